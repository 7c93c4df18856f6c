package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Assembly AssemblyConfig
	Groq     GroqConfig
	Speech   SpeechConfig
	Notify   NotifyConfig
	Capture  CaptureConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Type            string // "minio" or "s3"
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string // Public URL when MinIO sits behind a reverse proxy
}

// AssemblyConfig holds AssemblyAI transcription configuration
type AssemblyConfig struct {
	APIKey   string
	BaseURL  string // Override for self-hosted gateways and tests
	Language string // Fixed language code; empty enables per-turn detection
}

// GroqConfig holds Groq reply generation configuration
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// SpeechConfig holds text-to-speech configuration
type SpeechConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

// NotifyConfig holds finalize notification configuration
type NotifyConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	From     string
}

// CaptureConfig holds audio capture and turn segmentation tuning. Loaded
// through envconfig so every knob maps to a CAPTURE_* variable.
type CaptureConfig struct {
	Driver         string  `envconfig:"DRIVER" default:"malgo"`
	SampleRate     int     `envconfig:"SAMPLE_RATE" default:"16000"`
	FrameMs        int     `envconfig:"FRAME_MS" default:"50"`
	StartThreshold float64 `envconfig:"START_THRESHOLD" default:"3.0"`
	StopThreshold  float64 `envconfig:"STOP_THRESHOLD" default:"2.0"`
	MinDurationMs  int     `envconfig:"MIN_DURATION_MS" default:"1200"`
	MaxDurationMs  int     `envconfig:"MAX_DURATION_MS" default:"90000"`
	SilenceMs      int     `envconfig:"SILENCE_MS" default:"1600"`
	GraceMs        int     `envconfig:"GRACE_MS" default:"600"`
	MaxWaitMs      int     `envconfig:"MAX_WAIT_MS" default:"15000"`
	CalibrationMs  int     `envconfig:"CALIBRATION_MS" default:"1800"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "interview_assistant"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Type:            getEnv("STORAGE_TYPE", "minio"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "interview-assistant"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Assembly: AssemblyConfig{
			APIKey:   getEnv("ASSEMBLYAI_API_KEY", ""),
			BaseURL:  getEnv("ASSEMBLYAI_BASE_URL", ""),
			Language: getEnv("ASSEMBLYAI_LANGUAGE", ""),
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com"),
			Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},
		Speech: SpeechConfig{
			Enabled: getEnvAsBool("SPEECH_ENABLED", false),
			APIKey:  getEnv("SPEECH_API_KEY", ""),
			BaseURL: getEnv("SPEECH_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("SPEECH_MODEL", "tts-1"),
			Voice:   getEnv("SPEECH_VOICE", "alloy"),
		},
		Notify: NotifyConfig{
			Enabled:  getEnvAsBool("NOTIFY_ENABLED", false),
			Endpoint: getEnv("NOTIFY_ENDPOINT", ""),
			APIKey:   getEnv("NOTIFY_API_KEY", ""),
			From:     getEnv("NOTIFY_FROM", "no-reply@interview-assistant.local"),
		},
	}

	if err := envconfig.Process("capture", &config.Capture); err != nil {
		return nil, fmt.Errorf("failed to load capture config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.Speech.Enabled && c.Speech.APIKey == "" {
		return fmt.Errorf("SPEECH_API_KEY is required when SPEECH_ENABLED is true")
	}
	if c.Notify.Enabled && c.Notify.Endpoint == "" {
		return fmt.Errorf("NOTIFY_ENDPOINT is required when NOTIFY_ENABLED is true")
	}
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("CAPTURE_SAMPLE_RATE must be positive")
	}
	if c.Capture.FrameMs <= 0 {
		return fmt.Errorf("CAPTURE_FRAME_MS must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// FrameDuration returns the capture frame cadence.
func (c *CaptureConfig) FrameDuration() time.Duration {
	return time.Duration(c.FrameMs) * time.Millisecond
}

// CalibrationDuration returns how long calibration samples the noise floor.
func (c *CaptureConfig) CalibrationDuration() time.Duration {
	return time.Duration(c.CalibrationMs) * time.Millisecond
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
