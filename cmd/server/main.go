package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/rentledger/api/handler"
	"github.com/fastygo/rentledger/internal/config"
	"github.com/fastygo/rentledger/internal/infrastructure/monitor"
	"github.com/fastygo/rentledger/internal/infrastructure/outbox"
	pgInfra "github.com/fastygo/rentledger/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/rentledger/internal/infrastructure/redis"
	"github.com/fastygo/rentledger/internal/metrics"
	"github.com/fastygo/rentledger/internal/middleware"
	"github.com/fastygo/rentledger/internal/router"
	"github.com/fastygo/rentledger/internal/services"
	"github.com/fastygo/rentledger/internal/services/lifecycle"
	"github.com/fastygo/rentledger/pkg/httpcontext"
	"github.com/fastygo/rentledger/pkg/logger"
	"github.com/fastygo/rentledger/repository"
	"github.com/fastygo/rentledger/repository/boltdb"
	"github.com/fastygo/rentledger/repository/ledger"
	pgRepo "github.com/fastygo/rentledger/repository/postgres"
	redisRepo "github.com/fastygo/rentledger/repository/redis"
	"github.com/fastygo/rentledger/repository/sqlite"
	"github.com/fastygo/rentledger/usecase"
	agreementUC "github.com/fastygo/rentledger/usecase/agreement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
	}

	var redisClient *goRedis.Client
	if cfg.NeedsRedis() {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	ledgerStore, err := openLedger(cfg, pool, redisClient)
	if err != nil {
		zapLogger.Fatal("failed to open ledger", zap.String("backend", cfg.Ledger.Backend), zap.Error(err))
	}
	manager.Register("ledger", func(ctx context.Context) error {
		return ledgerStore.Close()
	})
	zapLogger.Info("ledger ready", zap.String("backend", cfg.Ledger.Backend))

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	sinks, probes := buildSinks(cfg, pool, redisClient, zapLogger)
	fanout := services.NewFanoutPublisher(sinks...)

	mon := monitor.New(monitor.Targets{
		Backend: cfg.Ledger.Backend,
		Ledger:  ledgerStore,
		Sinks:   probes,
		Outbox:  outboxStore,
	}, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	relay := services.NewOutboxRelay(
		outboxStore,
		mon,
		fanout,
		appMetrics,
		zapLogger,
		services.RelayConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
		},
	)
	relay.Start()
	manager.Register("outbox_relay", func(ctx context.Context) error {
		relay.Stop(ctx)
		return nil
	})

	agreementStore := ledger.NewAgreementStore(ledgerStore, services.NewOutboxPublisher(relay), zapLogger)

	dispatcher := usecase.NewDispatcher()
	agreementUC.New(agreementStore, appMetrics, zapLogger).Register(dispatcher)
	zapLogger.Info("dispatcher ready",
		zap.Strings("commands", dispatcher.Commands()),
		zap.Strings("sinks", fanout.Names()))

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Agreement: apiHandler.NewAgreementHandler(dispatcher, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	var opts router.Options
	if cfg.HTTP.EnableMetrics {
		opts.Metrics = registry
	}
	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware, opts)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openLedger(cfg *config.Config, pool *pgxpool.Pool, redisClient *goRedis.Client) (repository.LedgerStore, error) {
	switch cfg.Ledger.Backend {
	case config.BackendBolt:
		return boltdb.Open(cfg.Ledger.BoltPath, cfg.Ledger.BoltBucket)
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLite.Path)
	case config.BackendPostgres:
		return pgRepo.NewLedgerStore(pool), nil
	case config.BackendRedis:
		return redisRepo.NewLedgerStore(redisClient, cfg.Ledger.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func buildSinks(cfg *config.Config, pool *pgxpool.Pool, redisClient *goRedis.Client, appLogger *zap.Logger) ([]services.Sink, map[string]monitor.Pinger) {
	sinks := make([]services.Sink, 0, len(cfg.Events.Sinks))
	probes := make(map[string]monitor.Pinger)

	for _, name := range cfg.Events.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, services.Sink{Name: name, Publisher: services.NewLogPublisher(appLogger)})
		case config.SinkRedis:
			pub := redisRepo.NewEventPublisher(redisClient, cfg.Events.RedisChannel)
			sinks = append(sinks, services.Sink{Name: name, Publisher: pub})
			probes[name] = pub
		case config.SinkPostgres:
			eventLog := pgRepo.NewEventLog(pool)
			sinks = append(sinks, services.Sink{Name: name, Publisher: eventLog})
			probes[name] = eventLog
		}
	}
	return sinks, probes
}
