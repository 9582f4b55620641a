package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arenignacio/venus-bugtracker/internal/config"
	"github.com/arenignacio/venus-bugtracker/internal/database"
	"github.com/arenignacio/venus-bugtracker/internal/observability/tracing"
	"github.com/arenignacio/venus-bugtracker/internal/router"
	"github.com/arenignacio/venus-bugtracker/internal/session"
	"github.com/arenignacio/venus-bugtracker/pkg/logger"
)

func main() {
	// config + logger
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config")
	}
	l := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, l, cfg.OTLPEndpoint, "venus-api", cfg.Env)
	if err != nil {
		l.Fatal().Err(err).Msg("tracing init failed")
	}

	// store
	store, err := database.OpenStore(ctx, cfg)
	if err != nil {
		l.Fatal().Err(err).Str("store", cfg.Store).Msg("store connect failed")
	}
	defer store.Close()
	l.Info().Str("store", cfg.Store).Msg("store connected")

	// sessions
	sessions, closeSessions := openSessions(ctx, l, cfg)
	defer closeSessions()

	// http
	r := router.New(l, router.Deps{Store: store, Sessions: sessions}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, "venus-api"),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("tracing shutdown")
	}
	l.Info().Msg("shutdown complete")
}

func openSessions(ctx context.Context, l zerolog.Logger, cfg config.Config) (session.Store, func()) {
	if cfg.SessionStore == "redis" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			l.Fatal().Err(err).Msg("session store connect failed")
		}
		return rs, func() { _ = rs.Close() }
	}

	ms := session.NewMemoryStore(cfg.SessionTTL)
	tick := time.NewTicker(time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-tick.C:
				if n := ms.Sweep(); n > 0 {
					l.Debug().Int("expired", n).Msg("sessions swept")
				}
			case <-done:
				return
			}
		}
	}()
	l.Warn().Msg("using in-memory sessions; logins do not survive a restart")
	return ms, func() {
		tick.Stop()
		close(done)
	}
}
