package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"auth-be/internal/cache"
	"auth-be/internal/config"
	"auth-be/internal/controllers"
	"auth-be/internal/database"
	"auth-be/internal/jwt"
	"auth-be/internal/logging"
	"auth-be/internal/mailer"
	"auth-be/internal/middleware"
	"auth-be/internal/password"
	"auth-be/internal/repository"
	"auth-be/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize user store: PostgreSQL when configured, process memory otherwise
	var userRepo repository.UserRepository
	if cfg.DatabaseURL != "" {
		db, err := database.NewConnection(ctx, cfg.DatabaseURL, database.DefaultConnectOptions, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
		userRepo = repository.NewUserRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, users are kept in memory")
		userRepo = repository.NewMemoryUserRepository()
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	if cfg.RedisURL != "" {
		cacheClient, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", "error", err)
		} else {
			defer cacheClient.Close()
			logger.Info("connected to Redis cache")
			userRepo = repository.NewCachedUserRepository(userRepo, cacheClient, cfg.UserCacheTTL(), logger)
		}
	}

	// Initialize mailer
	var m mailer.Mailer
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return err
		}
		m = smtp
	} else {
		logger.Warn("SMTP_HOST not set, reset emails are written to the log")
		m = mailer.NewLogMailer(logger)
	}

	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTLifetime())
	authService := service.NewAuthService(
		userRepo,
		password.NewBcryptHasher(cfg.BcryptCost),
		jwtService,
		m,
		logger,
		service.AuthOptions{},
	)
	authController := controllers.NewAuthController(authService, cfg.BaseURL)

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return err
	}
	router.Use(
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	authController.RegisterRoutes(router.Group("/authentication"), middleware.AuthMiddleware(authService))
	router.NoRoute(middleware.NotFound)

	return serve(ctx, router, cfg.Port, logger)
}

func serve(ctx context.Context, handler http.Handler, port string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
