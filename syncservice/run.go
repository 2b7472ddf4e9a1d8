// Package syncservice boots the SyncSphere time-accounting HTTP service.
package syncservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/syncsphere/server/internal/api"
	"github.com/syncsphere/server/internal/config"
	"github.com/syncsphere/server/internal/factory"
	"github.com/syncsphere/server/internal/logger"
	"github.com/syncsphere/server/internal/notifier"
	"github.com/syncsphere/server/internal/services"
	"github.com/syncsphere/server/internal/store"
)

// Run starts the HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("syncsphere")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Sync service starting")

	// Cancellable root context bound to SIGINT/SIGTERM.
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}

	// Optional webhook collaborator; nil disables notifications.
	var n services.Notifier
	if hook := notifier.NewWebhook(cfg.NotifyWebhookURL); hook != nil {
		n = hook
	}

	users := services.NewUserService(st)
	timer := services.NewTimerService(st, n, log)
	reports := services.NewReportService(st)
	router := api.NewRouter(users, timer, reports)

	// Periodic store health probe feeding /api/health.
	checker := store.NewHealthChecker(st, log, time.Duration(cfg.HealthProbeTimeoutSeconds)*time.Second)
	go checker.Start(ctx, time.Duration(cfg.HealthIntervalSeconds)*time.Second)
	api.BindServiceHealth(checker.IsHealthy)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}
