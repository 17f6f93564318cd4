package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync/config"
	"catalog-sync/internal/broker"
	"catalog-sync/internal/redisclient"
	"catalog-sync/internal/service"
	"catalog-sync/internal/store"
	"catalog-sync/internal/util"

	"go.uber.org/zap"
)

type pathOptions struct {
	catalog  string
	results  string
	mirror   string
	noMirror bool
}

// apply lets command line flags win over the environment
func (o *pathOptions) apply(cfg *config.Config) {
	if o.catalog != "" {
		cfg.Paths.Catalog = o.catalog
	}
	if o.results != "" {
		cfg.Paths.Results = o.results
	}
	if o.mirror != "" {
		cfg.Paths.Mirror = o.mirror
	}
	if o.noMirror {
		cfg.Paths.Mirror = ""
	}
}

// app holds the optional backends of a single command invocation
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	redis    *redisclient.Client
	producer *broker.Producer
	closers  []func()
}

func newApp(opts *pathOptions, command string) (*app, error) {
	cfg := config.Load()
	opts.apply(cfg)

	if err := util.InitLogger(cfg.Env, command); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: util.GetLogger()}
	a.closers = append(a.closers, util.SyncLogger)

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint, Version, command)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		})
	}

	return a, nil
}

// openStore connects the Postgres ledger when DATABASE_URL is set
func (a *app) openStore(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		return nil
	}

	db, err := store.NewStore(a.cfg.Database.URL)
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return err
	}

	a.store = db
	a.closers = append(a.closers, func() { db.Close() })
	a.logger.Info("Database connected")
	return nil
}

// openRedis connects the checkpoint store when REDIS_ADDR is set
func (a *app) openRedis() error {
	if a.cfg.Redis.Addr == "" {
		return nil
	}

	client, err := redisclient.NewClient(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB, a.cfg.Redis.CheckpointTTL)
	if err != nil {
		return err
	}

	a.redis = client
	a.closers = append(a.closers, func() { client.Close() })
	a.logger.Info("Redis connected", zap.String("addr", a.cfg.Redis.Addr))
	return nil
}

// openProducer creates the Kafka producer when KAFKA_BROKERS is set
func (a *app) openProducer() {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return
	}

	producer := broker.NewProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.TopicEvents)
	a.producer = producer
	a.closers = append(a.closers, func() { producer.Close() })
	a.logger.Info("Kafka producer initialized", zap.String("topic", a.cfg.Kafka.TopicEvents))
}

// ledger, checkpoints and events return nil interfaces for disabled
// backends so the services fall back to no-ops.
func (a *app) ledger() service.Ledger {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *app) checkpoints() service.Checkpoints {
	if a.redis == nil {
		return nil
	}
	return a.redis
}

func (a *app) events() service.EventPublisher {
	if a.producer == nil {
		return nil
	}
	return broker.NewEventPublisher(a.producer)
}

// writeMetrics dumps the run's metrics when METRICS_TEXTFILE is set
func (a *app) writeMetrics() {
	if a.cfg.Observ.MetricsTextfile == "" {
		return
	}
	if err := util.WriteMetrics(a.cfg.Observ.MetricsTextfile); err != nil {
		a.logger.Error("Failed to write metrics", zap.String("path", a.cfg.Observ.MetricsTextfile), zap.Error(err))
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
