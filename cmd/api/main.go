package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/interview-assistant/pkg/validator"

	_ "github.com/johnquangdev/interview-assistant/docs"
	"github.com/johnquangdev/interview-assistant/internal/adapter/handler"
	"github.com/johnquangdev/interview-assistant/internal/adapter/repository"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/cache"
	capturesrc "github.com/johnquangdev/interview-assistant/internal/infrastructure/capture"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/storage"
	captureuse "github.com/johnquangdev/interview-assistant/internal/usecase/capture"
	sessionuse "github.com/johnquangdev/interview-assistant/internal/usecase/session"
	turnuse "github.com/johnquangdev/interview-assistant/internal/usecase/turn"
	useruse "github.com/johnquangdev/interview-assistant/internal/usecase/user"
	pkgai "github.com/johnquangdev/interview-assistant/pkg/ai"
	"github.com/johnquangdev/interview-assistant/pkg/config"
	"github.com/johnquangdev/interview-assistant/pkg/notify"
)

// @title           Interview Assistant API
// @version         1.0
// @description     Guided interview practice: voice-activated turn capture, transcription, AI interviewer replies, and session history over object storage.

// @contact.name   API Support
// @contact.url    https://api-interview.infoquang.id.vn/support
// @contact.email  support@infoquang.id.vn

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      api-interview.infoquang.id.vn
// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Running migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize cache: Redis, with an in-process fallback outside
	// production so a single developer laptop needs no Redis
	log.Println("📦 Connecting to Redis...")
	var cacheStore cache.Store
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		if cfg.Server.Environment == "production" {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("⚠️  Redis unavailable (%v), using in-memory cache", err)
		cacheStore = cache.NewMemoryStore()
	} else {
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient)
	}

	// Initialize object storage
	log.Println("🪣 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize AI providers
	log.Println("🤖 Initializing AI providers...")
	asmClient := pkgai.NewAssemblyAIClient(&cfg.Assembly)
	groqClient := pkgai.NewGroqClient(&cfg.Groq)
	speechClient := pkgai.NewSpeechClient(&cfg.Speech)
	if speechClient.Enabled() {
		log.Println("🔊 Assistant speech synthesis enabled")
	}

	// Initialize the audio capture source
	log.Printf("🎙️  Initializing capture source (driver: %s)...", cfg.Capture.Driver)
	source, err := capturesrc.NewSource(&cfg.Capture)
	if err != nil {
		log.Fatalf("Failed to initialize capture source: %v", err)
	}

	// Initialize finalize notifications
	var notifier notify.Dispatcher
	if cfg.Notify.Enabled {
		log.Println("📧 Finalize notifications enabled")
		notifier = notify.NewEmailClient(&cfg.Notify, logger)
	}

	// Initialize services
	log.Println("✨ Initializing services...")
	turnService := turnuse.NewService(minioClient, logger)
	userService := useruse.NewService(userRepo, logger)
	sessionService := sessionuse.NewService(sessionRepo, userRepo, minioClient, cacheStore, notifier, logger)
	captureService := captureuse.NewService(
		sessionRepo,
		turnService,
		source,
		cacheStore,
		asmClient,
		groqClient,
		speechClient,
		&cfg.Capture,
		logger,
	)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	userHandler := handler.NewUserHandler(userService, logger)
	sessionHandler := handler.NewSessionHandler(sessionService, logger)
	captureHandler := handler.NewCaptureHandler(captureService, logger)
	diagnosticsHandler := handler.NewDiagnosticsHandler(minioClient, captureService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, userHandler, sessionHandler, captureHandler, diagnosticsHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
