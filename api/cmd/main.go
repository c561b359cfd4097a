package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventlane/eventlane/internal/application/event"
	"github.com/eventlane/eventlane/internal/application/participation"
	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/config"
	"github.com/eventlane/eventlane/internal/infrastructure/caching/redis"
	"github.com/eventlane/eventlane/internal/infrastructure/db/postgres"
	"github.com/eventlane/eventlane/internal/infrastructure/stats"
	"github.com/eventlane/eventlane/internal/pkg/logger"
	"github.com/eventlane/eventlane/internal/security"
	"github.com/eventlane/eventlane/internal/transport/rest"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger.Init("eventlane", cfg.LogLevel, cfg.AppEnv == "dev")
	log := logger.Logger.With().Str("env", cfg.AppEnv).Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	dbPool, err := postgres.Connect(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer dbPool.Close()
	log.Info().Msg("postgres connected")

	eventStore := postgres.NewEventStore(dbPool)
	requestStore := postgres.NewRequestStore(dbPool)
	directory := postgres.NewDirectory(dbPool)

	// ---- Redis ----
	cache := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()

		// Best-effort; the cache degrades to direct reads when redis is down
		if err := cache.Client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
	}

	// ---- Stats (view counters) ----
	var views event.ViewCounter
	var hits rest.HitRecorder
	if cfg.StatsURL != "" {
		client := stats.New(cfg.StatsURL, "eventlane")
		views = client
		hits = client
	}

	// ---- Application services ----
	aud := audit.New(logger.Logger)
	clock := realClock{}

	eventSvc := event.New(eventStore, directory, views, cache, aud, clock, cfg.CacheEventTTL)
	requestSvc := participation.New(requestStore, directory, aud, clock)

	// ---- JWT verifier ----
	verifier := security.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer)

	// ---- Router ----
	var limiter rest.RateLimiter
	if cfg.RLEnabled {
		limiter = cache
	}
	httpHandler := rest.NewRouter(rest.RouterDeps{
		Events:   rest.NewEventHandler(eventSvc, hits),
		Requests: rest.NewRequestHandler(requestSvc),
		Verifier: verifier,
		Limiter:  limiter,
		RLLimit:  cfg.RLLimit,
		RLWindow: cfg.RLWindow,
	})

	// ---- Outbox worker (outbound event.* / request.* messages) ----
	if cfg.OutboxEnabled {
		postgres.NewOutboxWorker(dbPool).Start(rootCtx, cfg.RabbitURL, cfg.RabbitExchange)
		log.Info().Msg("outbox worker started")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
