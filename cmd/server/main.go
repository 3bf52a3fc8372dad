package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lunchperk/lunchperk-backend/internal/adapter/store"
	"github.com/lunchperk/lunchperk-backend/internal/audit"
	"github.com/lunchperk/lunchperk-backend/internal/fraud"
	"github.com/lunchperk/lunchperk-backend/internal/handler"
	"github.com/lunchperk/lunchperk-backend/internal/middleware"
	"github.com/lunchperk/lunchperk-backend/internal/service"
	"github.com/lunchperk/lunchperk-backend/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting LunchPerk core",
		"port", cfg.Port,
		"flush_interval", cfg.AuditFlushInterval,
		"batch_size", cfg.AuditBatchSize,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	// ── Audit pipeline ───────────────────────────────────────────────────
	var metrics *audit.Metrics
	if cfg.MetricsEnabled {
		metrics = audit.NewMetrics()
	}
	auditor := audit.New(pgStore, audit.Options{
		FlushInterval: cfg.AuditFlushInterval,
		BatchSize:     cfg.AuditBatchSize,
		FlushTimeout:  cfg.AuditFlushTimeout,
		Metrics:       metrics,
	})
	auditor.Start()

	// ── Services ─────────────────────────────────────────────────────────
	fraudService := fraud.NewService(pgStore, pgStore, pgStore, auditor, nil)
	claimService := service.NewClaimService(pgStore, pgStore, fraudService, auditor, metrics, nil)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Request-scoped audit context (records all requests)
	app.Use(middleware.RequestAudit(auditor))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// ── Protected Routes ─────────────────────────────────────────────────
	jwtMiddleware := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		ExpiresIn: time.Duration(cfg.JWTExpiration) * time.Hour,
	})

	api := app.Group("/api/v1", jwtMiddleware)

	claimHandler := handler.NewClaimHandler(claimService)
	claimHandler.Register(api)

	admin := api.Group("", middleware.RequireRole("admin"))

	auditHandler := handler.NewAuditHandler(auditor)
	auditHandler.Register(admin)

	fraudHandler := handler.NewFraudHandler(fraudService)
	fraudHandler.Register(admin)

	// ── Start ────────────────────────────────────────────────────────────
	go func() {
		slog.Info("🌐 Fiber listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	// Drain remaining audit entries before the process exits.
	if err := auditor.Stop(shutdownCtx); err != nil {
		slog.Error("audit drain incomplete", "error", err, "queue_depth", auditor.QueueDepth())
	}
}
