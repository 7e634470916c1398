package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/image-identifier/internal/application"
	appanalysis "github.com/bryanwahyu/image-identifier/internal/application/analysis"
	"github.com/bryanwahyu/image-identifier/internal/bootstrap"
	"github.com/bryanwahyu/image-identifier/internal/config"
	"github.com/bryanwahyu/image-identifier/internal/infra/ai/prompt"
	"github.com/bryanwahyu/image-identifier/internal/infra/httpserver"
	"github.com/bryanwahyu/image-identifier/internal/logger"
	"github.com/bryanwahyu/image-identifier/internal/middleware"
)

func main() {
	// path config.yaml
	path := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	invoker, err := bootstrap.NewInvoker(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("ai init error")
	}

	middleware.Register()
	opts := []appanalysis.Option{
		appanalysis.WithClock(application.SystemClock{}),
		appanalysis.WithTimeout(cfg.AI.Timeout),
		appanalysis.WithLogger(log.With().Str("component", "analysis").Logger()),
		appanalysis.WithObserver(middleware.AnalysisObserver{}),
	}

	checkers := map[string]middleware.HealthChecker{}
	auditStore, err := bootstrap.OpenAudit(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("audit db init error")
	}
	if auditStore != nil {
		defer auditStore.Close()
		opts = append(opts, appanalysis.WithAudit(auditStore.Repo))
		checkers["audit_db"] = middleware.PingChecker{Target: auditStore.Repo}
		log.Info().Str("driver", cfg.Database.Driver).Msg("audit trail enabled")
	}

	svc := appanalysis.NewService(invoker, prompt.Build, opts...)

	limiter := middleware.NewRateLimiter(cfg.Limits.RateCapacity, cfg.Limits.RateRefill)
	defer limiter.Close()

	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:         log,
		CORSOrigins:    cfg.Server.CORSOrigins,
		APIKeys:        cfg.Auth.APIKeys,
		Limiter:        limiter,
		MaxBodyBytes:   middleware.BodyLimitForImage(cfg.Limits.MaxImageBytes),
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("model", invoker.Model()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
