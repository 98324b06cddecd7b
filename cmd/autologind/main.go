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

	"github.com/joho/godotenv"

	memoryadapter "github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/adapter/driven/memory"
	sqliteadapter "github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/adapter/driven/sqlite"
	httphandler "github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/adapter/driving/http"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/application"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/config"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (optional .env file, then environment).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.StoreBackend,
		"token_ttl", cfg.TokenTTL,
		"max_attempts", cfg.MaxAttempts,
		"attempt_window", cfg.AttemptWindow,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Select the storage backend.
	var codeStore driven.CodeStore
	var attemptStore driven.AttemptStore
	var counterSweep application.ExpiredDeleter

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		slog.Info("database opened", "path", cfg.DBPath)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		slog.Info("migrations complete")

		attemptRepo := sqliteadapter.NewAttemptRepo(db)
		codeStore = sqliteadapter.NewCodeRepo(db)
		attemptStore = attemptRepo
		counterSweep = attemptRepo

	case config.BackendMemory:
		memAttempts := memoryadapter.NewAttemptStore()
		codeStore = memoryadapter.NewCodeStore()
		attemptStore = memAttempts
		counterSweep = memAttempts
		slog.Info("using in-memory store, codes will not survive restart")
	}

	// 4. Wire application services.
	tokenSvc := application.NewTokenService(codeStore, cfg.SecretLength, !cfg.MultiUse, application.DefaultMintCacheCapacity)
	limiter := application.NewRateLimiter(attemptStore, slog.Default())
	loginSvc := application.NewLoginService(tokenSvc, limiter, cfg.MaxAttempts, cfg.AttemptWindow, slog.Default())
	signer := application.NewURLSigner(tokenSvc, slog.Default())
	sweepSvc := application.NewSweepService(codeStore, counterSweep, cfg.SweepInterval, slog.Default())

	// 5. Start the expiry reaper.
	go sweepSvc.Start(ctx)

	// 6. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(tokenSvc, loginSvc, signer, sweepSvc, cfg.TokenTTL, cfg.TrustProxy, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, loginSvc, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("autologind started", "listen_addr", cfg.ListenAddr, "sweep_interval", cfg.SweepInterval)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	return nil
}
