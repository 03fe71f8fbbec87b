package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/api/http"
	"github.com/wavecrest/desktopd/internal/api/middleware"
	"github.com/wavecrest/desktopd/internal/api/ws"
	"github.com/wavecrest/desktopd/internal/domain/desktop"
	"github.com/wavecrest/desktopd/internal/domain/organizer"
	"github.com/wavecrest/desktopd/internal/domain/session"
	"github.com/wavecrest/desktopd/internal/domain/transition"
	"github.com/wavecrest/desktopd/internal/infrastructure/config"
	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router      *gin.Engine
	repo        *desktop.Repository
	limiter     *desktop.Limiter
	controller  *desktop.Controller
	organizer   *organizer.Organizer
	transitions *transition.Transitions
	sessions    *session.Manager
	logger      *logging.Logger
	config      *config.Config
	metrics     *monitoring.Metrics
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	// Initialize logger
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Logging.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Initializing desktopd",
		zap.String("port", cfg.Server.Port),
		zap.Int("max_task_limit", cfg.Desktop.MaxTaskLimit),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.New()

	// Domain wiring: repository -> transitions -> limiter -> controller
	repo := desktop.NewRepository().WithMetrics(metrics)
	transitions := transition.New(logger).WithMetrics(metrics)
	org := organizer.New(repo, logger)

	limiter, err := desktop.NewLimiter(transitions, repo, org, cfg.Desktop.MaxTaskLimit, logger)
	if err != nil {
		return nil, err
	}
	limiter.WithMetrics(metrics)

	controller := desktop.NewController(repo, limiter, transitions, logger)
	sessions := session.NewManager(repo, cfg.Session.Dir, logger).WithMetrics(metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Create handlers
	handlers := http.NewHandlers(repo, limiter, controller, org, sessions)
	wsHandler := ws.NewHandler(logger).WithMetrics(metrics)
	repo.AddListener(wsHandler)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Desktop state
	router.GET("/displays", handlers.ListDisplays)
	router.GET("/displays/:id/tasks", handlers.ListDisplayTasks)
	router.GET("/displays/:id/minimized", handlers.ListMinimizedTasks)

	// Desktop operations
	router.POST("/tasks/front", handlers.MoveTaskToFront)
	router.POST("/displays/:id/tasks/:task_id/minimize", handlers.MinimizeTask)
	router.POST("/displays/:id/cleanup", handlers.CleanUpDisplay)

	// Session endpoints
	router.POST("/sessions/save", handlers.SaveSession)
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions/:name/restore", handlers.RestoreSession)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoint
	router.GET("/metrics", func(c *gin.Context) {
		metrics.UpdateUptime()
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	logger.Info("Server initialized successfully")

	return &Server{
		router:      router,
		repo:        repo,
		limiter:     limiter,
		controller:  controller,
		organizer:   org,
		transitions: transitions,
		sessions:    sessions,
		logger:      logger,
		config:      cfg,
		metrics:     metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Address()
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.logger.Sync()
	return nil
}
