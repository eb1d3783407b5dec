// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/bus"
	"github.com/Brcolf/naarscars-notify/internal/config"
	"github.com/Brcolf/naarscars-notify/internal/feed"
	"github.com/Brcolf/naarscars-notify/internal/jobs"
	"github.com/Brcolf/naarscars-notify/internal/middleware"
	"github.com/Brcolf/naarscars-notify/internal/navigation"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/readstate"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server and the sync
// engine's long-lived components.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	notificationHandler *notification.Handler
	readstateHandler    *readstate.Handler
	navigationHandler   *navigation.Handler

	// Engine components with a lifecycle
	listener  *feed.Listener
	debouncer *feed.Debouncer
	eventBus  *bus.Bus
	sweepJob  *jobs.ReconcileSweepJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	verifier shared.TokenVerifier,
	session *shared.MemorySession,
	notificationHandler *notification.Handler,
	readstateHandler *readstate.Handler,
	navigationHandler *navigation.Handler,
	listener *feed.Listener,
	debouncer *feed.Debouncer,
	eventBus *bus.Bus,
	sweepJob *jobs.ReconcileSweepJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	sessionMW := middleware.SessionMiddleware(verifier, session, logger.Named("SessionMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Notification sync engine is healthy!"})
	})

	v1 := router.Group("/api/v1")

	notificationGroup := v1.Group("/notifications", sessionMW)
	notificationHandler.RegisterRoutes(notificationGroup)
	readstateHandler.RegisterRoutes(notificationGroup)
	navigationHandler.RegisterRoutes(notificationGroup)

	// The cache schema is owned by this process.
	if err := db.AutoMigrate(&notification.Notification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:          httpServer,
		router:              router,
		cfg:                 cfg,
		logger:              logger,
		notificationHandler: notificationHandler,
		readstateHandler:    readstateHandler,
		navigationHandler:   navigationHandler,
		listener:            listener,
		debouncer:           debouncer,
		eventBus:            eventBus,
		sweepJob:            sweepJob,
	}, nil
}

func (s *Server) Start() error {
	if s.sweepJob != nil {
		if err := s.sweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start reconcile sweep job", zap.Error(err))
		}
	} else {
		s.logger.Info("Reconcile sweep job is not configured, skipping start.")
	}

	if s.listener != nil {
		s.listener.Start()
		s.logger.Info("Change feed listener started")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

// Shutdown tears the engine down in dependency order: feed listener first so
// no new reconciliations get scheduled, then the pending debounce timer,
// then the sweep job, the bus, and finally the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.listener != nil {
		s.listener.Stop()
	}
	if s.debouncer != nil {
		s.debouncer.Stop()
	}
	if s.sweepJob != nil {
		s.sweepJob.Stop()
	}
	if s.eventBus != nil {
		s.eventBus.Close()
	}
	return s.httpServer.Shutdown(ctx)
}
