package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chronicle-app/chronicle/internal/api"
	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/config"
	"github.com/chronicle-app/chronicle/internal/cryptox"
	"github.com/chronicle-app/chronicle/internal/database"
	"github.com/chronicle-app/chronicle/internal/expense"
	"github.com/chronicle-app/chronicle/internal/metadata"
	"github.com/chronicle-app/chronicle/internal/migrations"
	"github.com/chronicle-app/chronicle/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	csrfKey, refreshTokenKey, err := cfg.SecretKeys()
	if err != nil {
		slog.Error("invalid secret keys", "error", err)
		os.Exit(1)
	}

	box, err := cryptox.NewBox(csrfKey, refreshTokenKey)
	if err != nil {
		slog.Error("failed to initialize crypto keys", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(ctx, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	users := auth.NewStore(db.Pool())
	settingsRepo := settings.NewRepository(db.Pool())
	metadataRepo := metadata.NewRepository(db.Pool())
	expenseRepo := expense.NewRepository(db.Pool())

	authService := auth.NewService(users, settingsRepo, metadataRepo, box, cfg.BcryptCost)
	guard := auth.NewCSRFGuard(box)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:    db,
		Version:     cfg.Version,
		Production:  cfg.IsProduction(),
		AuthService: authService,
		Users:       users,
		Guard:       guard,
		Settings:    settingsRepo,
		Expenses:    expenseRepo,
		Metadata:    metadataRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting chronicle server", "port", cfg.Port, "version", cfg.Version, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
