package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"uservault/internal/jwttoken"
	"uservault/internal/platform/config"
	"uservault/internal/platform/httpserver"
	"uservault/internal/platform/logger"
	"uservault/internal/platform/metrics"
	platformredis "uservault/internal/platform/redis"
	"uservault/internal/users/events"
	usershandler "uservault/internal/users/handler"
	usersservice "uservault/internal/users/service"
	usersstore "uservault/internal/users/store"
	"uservault/internal/users/validation"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in internal/users.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	users, serviceOpts, healthcheck, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	validator := validation.New(cfg.MinimumAge)
	log.Info("minimum age configured", "age", validator.MinimumAge())

	svc := usersservice.New(users, validator, append(serviceOpts,
		usersservice.WithLogger(log),
		usersservice.WithMetrics(m),
		usersservice.WithPublisher(publisher),
	)...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "uservault")
	h := usershandler.New(svc, log, m, jwttoken.NewMiddlewareAdapter(jwtService))

	router := chi.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := healthcheck(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting uservault", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("uservault stopped")
}

// buildStore selects the record store: postgres when a database URL is
// configured, in-memory otherwise, with an optional redis cache on top.
func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger) (usersstore.UserStore, []usersservice.Option, func(context.Context) error, func(), error) {
	cleanup := func() {}
	healthcheck := func(context.Context) error { return nil }

	var users usersstore.UserStore
	var opts []usersservice.Option

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, cleanup, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, nil, cleanup, err
		}
		pg := usersstore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, cleanup, err
		}
		users = pg
		opts = append(opts, usersservice.WithTx(newUsersPostgresTx(db)))
		healthcheck = db.PingContext
		cleanup = func() { db.Close() }
		log.Info("using postgres store")
	} else {
		users = usersstore.NewInMemory()
		log.Info("using in-memory store")
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, nil, func() {}, err
		}
		users = usersstore.NewCached(users, client.Client, cfg.CacheTTL, log)
		prevCleanup := cleanup
		cleanup = func() {
			client.Close()
			prevCleanup()
		}
		log.Info("record cache enabled", "ttl", cfg.CacheTTL)
	}

	return users, opts, healthcheck, cleanup, nil
}

func buildPublisher(ctx context.Context, cfg config.Server, log *slog.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.NewKafka(ctx, cfg.KafkaBrokers, events.DefaultTopic, log)
	if err != nil {
		return nil, err
	}
	log.Info("lifecycle events enabled", "topic", events.DefaultTopic)
	return publisher, nil
}
