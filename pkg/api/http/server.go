package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aescanero/gridmock/internal/application/catalog"
	"github.com/aescanero/gridmock/pkg/ports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router  *gin.Engine
	server  *http.Server
	catalog *catalog.Manager
	metrics ports.MetricsCollector
	logger  *zap.Logger

	defaultLimit int
}

// Config holds HTTP server configuration
type Config struct {
	Port              int
	Catalog           *catalog.Manager
	Metrics           ports.MetricsCollector
	MetricsHandler    http.Handler
	Logger            *zap.Logger
	DefaultPageLimit  int
	ReadHeaderTimeout time.Duration
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(recovery(cfg.Logger))
	router.Use(requestLogger(cfg.Logger))
	router.Use(requestMetrics(cfg.Metrics))
	router.Use(corsMiddleware())

	s := &Server{
		router:       router,
		catalog:      cfg.Catalog,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		defaultLimit: cfg.DefaultPageLimit,
	}

	s.setupRoutes(cfg.MetricsHandler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metricsHandler http.Handler) {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	if metricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := s.router.Group("/api")
	{
		api.GET("/components", s.handleListComponents)
		api.POST("/components", s.handleCreateComponent)
		api.GET("/components/:id", s.handleGetComponent)
		api.PUT("/components/:id", s.handleUpdateComponent)
		api.DELETE("/components/:id", s.handleDeleteComponent)

		api.GET("/history/:id", s.handleGetHistory)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Route not found"})
	})
}

// streamHandler serves the component change feed
type streamHandler interface {
	HandleComponentStream(*gin.Context)
}

// SetupWebSocket adds the component change feed to the server
func (s *Server) SetupWebSocket(handler streamHandler) {
	s.router.GET("/api/ws/components", handler.HandleComponentStream)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	s.logger.Info("API listening",
		zap.String("url", fmt.Sprintf("http://localhost:%d", port)))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// recovery turns panics into the generic 500 body
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("unexpected error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))

		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: internalErrorMessage})
	})
}
