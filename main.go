package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"salesdesk/app"
	"salesdesk/config"
	"salesdesk/logger"
)

func main() {
	// Load .env file in development (ignores error if file doesn't exist)
	// In production, variables should be set directly
	envLoaded := false
	if os.Getenv("ENV") != "production" {
		// Use Overload to ensure .env values override system environment variables
		envLoaded = godotenv.Overload(".env") == nil
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if envLoaded {
		logger.L().Info("Successfully loaded environment variables from .env (overriding system variables)")
	}
	logger.L().Warnw("⚠️ Tax: a single rate is applied to checkout and reports; the legacy reports used 0.19",
		"taxRate", cfg.TaxRate.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize application
	a, err := app.Initialize(ctx, cfg)
	if err != nil {
		logger.L().Fatalw("❌ Failed to initialize application", "error", err)
	}
	defer a.Close()

	// Listen on 0.0.0.0 to accept connections from all interfaces (required for Docker/Render)
	addr := "0.0.0.0:" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.L().Warnw("⚠️ Server shutdown failed", "error", err)
		}
	}()

	logger.L().Infow("Server starting", "addr", addr, "env", cfg.Env)
	logger.L().Infof("Reports endpoint: GET http://localhost:%s/admin/reports?mode=date&format=csv", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L().Fatalw("Server failed to start", "error", err)
	}
}
