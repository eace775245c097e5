package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodcourt-service/internal/handler"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/router"
	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/config"
	"foodcourt-service/pkg/database"
	"foodcourt-service/pkg/jwtutil"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/pkg/xendit"
	"foodcourt-service/prometheus"

	"go.uber.org/zap"
)

const serviceName = "foodcourt-service"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync() //nolint:errcheck
	log.Info("Starting food court service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(model.All()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	if cfg.Admin.Enabled() {
		created, err := service.NewAdminService(db).EnsureAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			log.Fatal("Failed to seed admin", zap.Error(err))
		}
		if created {
			log.Info("Bootstrap admin created", zap.String("username", cfg.Admin.Username))
		}
	}

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg.Metrics.Prefix)
	log.Info("Prometheus metrics initialized")

	if cfg.Xendit.WebhookToken == "" {
		log.Warn("XENDIT_WEBHOOK_TOKEN is not set; payment callbacks will be rejected")
	}

	e := router.New(router.Config{
		ServiceName: cfg.ServiceName,
		Handlers: handler.Options{
			JWT: jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
				SigningKey:           cfg.JWT.SigningKey,
				MerchantSessionHours: cfg.JWT.MerchantSessionHours,
			}),
			Gateway: xendit.NewClient(cfg.Xendit.BaseURL, cfg.Xendit.APIKey, log.Named("xendit")),
			Payments: service.PaymentOptions{
				BaseURL:         cfg.App.BaseURL,
				InvoiceDuration: cfg.Xendit.InvoiceDuration,
			},
			WebhookToken:   cfg.Xendit.WebhookToken,
			AdminUsername:  cfg.Admin.Username,
			AdminPassword:  cfg.Admin.Password,
			UploadDir:      cfg.Upload.Dir,
			UploadMaxBytes: cfg.Upload.MaxBytes,
			PublicBaseURL:  cfg.App.BaseURL,
			SecureCookies:  cfg.Server.Env == "production",
		},
	})

	// Start server
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
