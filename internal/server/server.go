// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kwrenn/signet/internal/api"
	"github.com/kwrenn/signet/internal/config"
	"github.com/kwrenn/signet/internal/content"
	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/devices"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	contentService *content.Service
	deviceService  *devices.Service
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	contentService := content.NewService(database, repos)
	deviceService := devices.NewService(repos, cfg.Server.OfflineThreshold)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		contentService: contentService,
		deviceService:  deviceService,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db, s.repos)
	api.SetupMediaRoutes(apiGroup, s.contentService)
	api.SetupPlaylistRoutes(apiGroup, s.contentService)
	api.SetupDeviceRoutes(apiGroup, s.deviceService)
}

// Router returns the HTTP handler, building it on first use. Exposed for
// integration tests.
func (s *Server) Router() http.Handler {
	if s.router == nil {
		s.setupRouter()
	}
	return s.router
}

// Start starts the HTTP server and the background device sweep
func (s *Server) Start() error {
	s.setupRouter()

	s.deviceService.Start()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.deviceService != nil {
		s.deviceService.Stop()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
