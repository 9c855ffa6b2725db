// Package server implements the REST API consumed by the Ecogate console.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/config"
	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Load JWT secret from database (auto-generated during first setup)
	var settings models.Settings
	if err := db.First(&settings).Error; err == nil {
		auth.InitializeJWT(settings.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		// No settings yet - first setup hasn't happened
		zlog.Info().Msg("No settings found - JWT will be initialized during first setup")
	}

	// Initialize validator
	validate := validator.New()

	// OTP codes are exactly six digits. Registered on both the standalone
	// validator and gin's binding engine so the `otp` tag works in DTOs.
	otpPattern := regexp.MustCompile(`^\d{6}$`)
	otpRule := func(fl validator.FieldLevel) bool {
		return otpPattern.MatchString(fl.Field().String())
	}
	if err := validate.RegisterValidation("otp", otpRule); err != nil {
		return nil, fmt.Errorf("failed to register otp validator: %w", err)
	}
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := engine.RegisterValidation("otp", otpRule); err != nil {
			return nil, fmt.Errorf("failed to register otp binding validator: %w", err)
		}
	}

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   validate,
		asynqClient: asynqClient,
		version:     version,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // seconds
		busyTimeout     = 5000
		cacheSize       = 10000 // 10MB
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Credentialed CORS for the browser console; cookies require an exact origin
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.HTTP.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")

	// Public endpoints
	api.POST("/setup/", s.setupFirstAdministrator)
	api.POST("/login/", s.login)
	api.POST("/token/refresh/", s.refreshToken)
	api.POST("/logout/", s.logout)
	api.POST("/request-password-reset/", s.requestPasswordReset)
	api.POST("/verify-password-reset/", s.verifyPasswordReset)

	// Authenticated endpoints (access cookie required)
	authed := api.Group("")
	authed.Use(CookieAuthMiddleware(s.db, s.logger))
	{
		authed.GET("/authenticated/", s.isAuthenticated)

		// Profile
		authed.GET("/me/", s.getMyProfile)
		authed.PATCH("/me/update/", s.updateProfile)

		// Dashboard todos
		authed.GET("/todos/", s.listTodos)
		authed.POST("/todos/", s.createTodo)
		authed.PATCH("/todos/:id/", s.updateTodo)

		// Establishment registry
		est := authed.Group("/establishment")
		{
			est.GET("/establishments/", s.listEstablishments)
			est.POST("/establishments/", s.createEstablishment)
			est.PATCH("/establishments/:id/", s.updateEstablishment)
			est.POST("/establishments/:id/archive/", s.archiveEstablishment)
			est.POST("/establishments/:id/unarchive/", s.unarchiveEstablishment)
			est.GET("/nature-of-business/", s.listNatureOfBusiness)
		}

		// User management and audit trail (administrator only)
		admin := authed.Group("")
		admin.Use(AdministratorOnlyMiddleware(s.logger))
		{
			admin.GET("/users/", s.listUsers)
			admin.POST("/register/", s.registerUser)
			admin.PATCH("/users/:id/", s.updateUser)
			admin.PATCH("/users/:id/status/", s.changeUserStatus)
			admin.POST("/admin-reset-password/", s.adminResetPassword)
			admin.GET("/activity-logs/", s.listActivityLogs)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "ecogate-api",
	})
}

// recordActivity enqueues an audit trail entry. Failures are logged and
// swallowed; audit recording never fails a request.
func (s *Server) recordActivity(p tasks.ActivityPayload) {
	task, err := tasks.NewRecordActivityTask(p)
	if err != nil {
		s.logger.Warn().Err(err).Str("action", p.Action).Msg("Failed to build activity task")
		return
	}
	if _, err := s.asynqClient.Enqueue(task); err != nil {
		s.logger.Warn().Err(err).Str("action", p.Action).Msg("Failed to enqueue activity task")
	}
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router exposes the configured router, mainly for handler tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":" + s.config.HTTP.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
