package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg         *config.Config
	users       *User
	sessions    *Session
	capture     *Capture
	diagnostics *Diagnostics
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, users *User, sessions *Session, capture *Capture, diagnostics *Diagnostics) *Router {
	return &Router{
		cfg:         cfg,
		users:       users,
		sessions:    sessions,
		capture:     capture,
		diagnostics: diagnostics,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// Swagger UI
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupUserRoutes(v1)
	rt.setupSessionRoutes(v1)
	rt.setupDiagnosticsRoutes(v1)
}

// setupUserRoutes configures the handle registry routes
func (rt *Router) setupUserRoutes(g *echo.Group) {
	userGroup := g.Group("/users")

	userGroup.POST("", rt.users.Register)
	userGroup.GET("/:handle", rt.users.Get)
}

// setupSessionRoutes configures session lifecycle and capture routes
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessionGroup := g.Group("/sessions")

	sessionGroup.POST("", rt.sessions.Create)
	sessionGroup.GET("", rt.sessions.History)
	sessionGroup.GET("/by-handle", rt.sessions.ListByHandle)
	sessionGroup.GET("/:id", rt.sessions.Get)
	sessionGroup.DELETE("/:id", rt.sessions.Delete)
	sessionGroup.POST("/:id/finalize", rt.sessions.Finalize)

	// Capture endpoints block while the microphone is open
	sessionGroup.POST("/:id/calibrate", rt.capture.Calibrate)
	sessionGroup.POST("/:id/turns", rt.capture.CaptureTurn)
	sessionGroup.POST("/:id/cancel", rt.capture.Cancel)
}

// setupDiagnosticsRoutes configures the operational probe routes
func (rt *Router) setupDiagnosticsRoutes(g *echo.Group) {
	diagGroup := g.Group("/diagnostics")

	diagGroup.GET("/storage", rt.diagnostics.Storage)
	diagGroup.GET("/audio", rt.diagnostics.Audio)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	environment := "development"
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": environment,
	})
}
