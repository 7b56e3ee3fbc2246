package main

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/internal/platform/config"
	"github.com/example/discussion-platform/internal/platform/db"
	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/internal/platform/grpcserver"
	"github.com/example/discussion-platform/internal/platform/httpserver"
	"github.com/example/discussion-platform/internal/platform/logging"
	"github.com/example/discussion-platform/internal/platform/natsconn"
	"github.com/example/discussion-platform/internal/platform/run"
	svcconfig "github.com/example/discussion-platform/services/discussion/internal/config"
	"github.com/example/discussion-platform/services/discussion/internal/forum"
	"github.com/example/discussion-platform/services/discussion/internal/handlers"
	"github.com/example/discussion-platform/services/discussion/internal/store"
	"github.com/example/discussion-platform/services/discussion/migrations"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run.Exit(serve())
		return nil
	},
}

func serve() int {
	app, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(logging.Options{
		Service: app.ServiceName,
		Level:   app.LogLevel,
		Console: app.Env == "development",
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := svcconfig.Load()
	if err != nil {
		log.Error("config", zap.Error(err))
		return 1
	}

	st, closeStore, err := openStore(app, cfg, log)
	if err != nil {
		log.Error("store", zap.Error(err))
		return 1
	}
	defer closeStore()

	publisher, closeNATS := connectEvents(cfg, app.ServiceName, log)
	defer closeNATS()

	svc := &forum.Service{
		Store:                  st,
		Tokens:                 auth.JWTIssuer{Secret: cfg.JWTSecret, Issuer: app.ServiceName, TTL: cfg.AccessTokenTTL},
		Events:                 publisher,
		Log:                    log,
		BootstrapAdminUsername: cfg.BootstrapAdminUsername,
	}

	ready := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return st.Ping(ctx)
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc:          ready,
		CORSAllowedOrigins: app.HTTP.CORSAllowedOrigins,
		Logger:             log,
	})
	handlers.Mount(r, handlers.RouteDeps{
		Service:  svc,
		Verifier: auth.JWTVerifier{Secret: cfg.JWTSecret, Issuer: app.ServiceName, Leeway: 5 * time.Second},
		Limiter:  httpserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Log:      log,
	})
	srv := httpserver.New(httpserver.Options{Addr: app.HTTP.Addr, Router: r})

	var grpcSrv *grpcserver.Server
	if app.GRPC.Addr != "" {
		grpcSrv = grpcserver.New(app.GRPC.Addr, app.ServiceName, log)
	}

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if grpcSrv != nil {
			go grpcSrv.WatchReady(ctx, app.ServiceName, 5*time.Second, ready)
			go func() {
				if err := grpcSrv.Serve(); err != nil {
					log.Error("grpc serve", zap.Error(err))
				}
			}()
		}
		go runner.Graceful(ctx, func(c context.Context) error {
			if grpcSrv != nil {
				grpcSrv.Shutdown(runner.ShutdownTimeout)
			}
			return srv.Shutdown(c)
		})
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	return code
}

// openStore picks Postgres when DATABASE_URL is set and falls back to the
// in-memory store outside production.
func openStore(app config.AppConfig, cfg svcconfig.Config, log *zap.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		if app.IsProduction() {
			return nil, nil, errors.New("DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL not set, using in-memory store (development only)")
		return store.NewMemory(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, db.Options{
		DSN:              cfg.DatabaseURL,
		MaxConns:         cfg.DBMaxConns,
		AppName:          app.ServiceName,
		StatementTimeout: 15 * time.Second,
		ConnectAttempts:  5,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool, migrations.FS, db.MigrateUp); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("migrations applied")
	}
	log.Info("store: postgres")
	return store.NewPostgres(pool), pool.Close, nil
}

// connectEvents is best effort: without NATS the publisher is a no-op.
func connectEvents(cfg svcconfig.Config, name string, log *zap.Logger) (*events.Publisher, func()) {
	if cfg.NATSURL == "" {
		log.Info("NATS_URL not set, domain events disabled")
		return events.New(nil, log), func() {}
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: name, Logger: log})
	if err != nil {
		log.Warn("nats connect failed, domain events disabled", zap.Error(err))
		return events.New(nil, log), func() {}
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		log.Warn("jetstream unavailable, domain events disabled", zap.Error(err))
		nc.Close()
		return events.New(nil, log), func() {}
	}
	if err := events.EnsureStream(js, log); err != nil {
		log.Warn("ensure stream", zap.Error(err))
	}
	return events.New(js, log), func() {
		select {
		case <-js.PublishAsyncComplete():
		case <-time.After(5 * time.Second):
			log.Warn("timed out flushing pending events")
		}
		nc.Close()
	}
}
