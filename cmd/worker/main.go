// Command worker consumes screening jobs from kafka, screens the stored
// library and publishes each job's result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/KeyIP-Substructure/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/http/handlers"
)

const (
	defaultHealthPort = 8081
	cacheTTLJitter    = 0.1
)

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: KEYIP_* environment)")
	workers := flag.Int("workers", 0, "concurrent consumers in the group (overrides worker.concurrency)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port serving /healthz, /readyz and /metrics")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Worker.Concurrency = *workers
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      []string{cfg.Log.Output},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *healthPort, logger); err != nil {
		logger.Error("Worker failed", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}

func run(ctx context.Context, cfg *config.Config, healthPort int, logger logging.Logger) error {
	hostname, _ := os.Hostname()
	logger = logger.With(logging.String("worker_id", hostname))
	logger.Info("Starting screening worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.String("topic", cfg.Kafka.RequestTopic),
	)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
	}, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer postgres.Close(pool)

	rc, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = rc.Close() }()

	mc, err := minio.NewClient(ctx, cfg.MinIO, logger)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}

	if cfg.Kafka.AutoCreateTopics {
		topics := kafka.ScreeningTopics(cfg.Kafka.RequestTopic, cfg.Kafka.ResultTopic, cfg.Kafka.DeadLetterTopic)
		if err := kafka.EnsureTopics(ctx, cfg.Kafka.Brokers[0], topics, logger); err != nil {
			return fmt.Errorf("kafka topics: %w", err)
		}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer func() { _ = producer.Close() }()

	svc, err := screening.NewService(screening.Config{
		Search:       cfg.Search,
		RequestTopic: cfg.Kafka.RequestTopic,
		ResultTopic:  cfg.Kafka.ResultTopic,
		WorkerID:     hostname,
	}, screening.Dependencies{
		Repository: repositories.NewLibraryRepository(pool, logger, metrics),
		Molfiles:   minio.NewMolfileStore(mc, logger),
		Cache:      redis.NewRedisCache(rc, logger, redis.WithPrefix(cfg.Redis.KeyPrefix), redis.WithTTLJitter(cacheTTLJitter)),
		Leaser:     rc,
		Publisher:  producer,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		return fmt.Errorf("screening service: %w", err)
	}
	defer svc.Close()

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			_ = c.Close()
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(cfg.Kafka, []string{cfg.Kafka.RequestTopic}, producer, logger)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		c.Subscribe(cfg.Kafka.RequestTopic, svc.HandleScreeningRequest)
		consumers = append(consumers, c)
	}

	health := httpserver.NewServer(config.ServerConfig{
		Port:         healthPort,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:  handlers.NewHealthHandler(version, workerCheckers(pool, rc, mc)...),
		MetricsHandler: collector.Handler(),
		Logger:         logger,
	}), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(health.Start)
	for _, c := range consumers {
		c := c
		g.Go(func() error { return c.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		timeout := cfg.Worker.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return health.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	logStats(logger, consumers, producer)
	return err
}

func logStats(logger logging.Logger, consumers []*kafka.Consumer, producer *kafka.Producer) {
	var total kafka.ConsumerStats
	for _, c := range consumers {
		s := c.Stats()
		total.Consumed += s.Consumed
		total.Processed += s.Processed
		total.Retried += s.Retried
		total.DeadLettered += s.DeadLettered
	}
	sent := producer.Stats()
	logger.Info("Screening worker stopped",
		logging.Int64("consumed", total.Consumed),
		logging.Int64("processed", total.Processed),
		logging.Int64("retried", total.Retried),
		logging.Int64("dead_lettered", total.DeadLettered),
		logging.Int64("published", sent.Sent),
		logging.Int64("publish_failed", sent.Failed),
	)
}

func workerCheckers(pool *pgxpool.Pool, rc *redis.Client, mc *minio.Client) []handlers.HealthChecker {
	return []handlers.HealthChecker{
		handlers.CheckFunc{Component: "postgres", Fn: pool.Ping},
		handlers.CheckFunc{Component: "redis", Fn: rc.Ping},
		handlers.CheckFunc{Component: "minio", Fn: mc.HealthCheck},
	}
}

//Personal.AI order the ending
