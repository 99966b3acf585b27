package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/storage/minio"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/http/handlers"
)

// cacheTTLJitter spreads result cache expirations.
const cacheTTLJitter = 0.1

// infrastructure holds the external clients behind the screening service.
type infrastructure struct {
	pool     *pgxpool.Pool
	redis    *redis.Client
	minio    *minio.Client
	producer *kafka.Producer
	logger   logging.Logger
}

func initInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (*infrastructure, error) {
	infra := &infrastructure{logger: logger}

	if cfg.Database.MigrationPath != "" {
		if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}
	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	infra.pool = pool

	rc, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	infra.redis = rc

	mc, err := minio.NewClient(ctx, cfg.MinIO, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("minio: %w", err)
	}
	infra.minio = mc

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	infra.producer = producer

	logger.Info("Infrastructure initialized")
	return infra, nil
}

// dependencies binds the clients to the screening service collaborators.
func (i *infrastructure) dependencies(cfg *config.Config, metrics *prometheus.AppMetrics) screening.Dependencies {
	return screening.Dependencies{
		Repository: repositories.NewLibraryRepository(i.pool, i.logger, metrics),
		Molfiles:   minio.NewMolfileStore(i.minio, i.logger),
		Cache:      redis.NewRedisCache(i.redis, i.logger, redis.WithPrefix(cfg.Redis.KeyPrefix), redis.WithTTLJitter(cacheTTLJitter)),
		Leaser:     i.redis,
		Publisher:  i.producer,
		Logger:     i.logger,
		Metrics:    metrics,
	}
}

// healthCheckers reports each client to the readiness probe.
func (i *infrastructure) healthCheckers() []handlers.HealthChecker {
	return []handlers.HealthChecker{
		handlers.CheckFunc{Component: "postgres", Fn: i.pool.Ping},
		handlers.CheckFunc{Component: "redis", Fn: i.redis.Ping},
		handlers.CheckFunc{Component: "minio", Fn: i.minio.HealthCheck},
	}
}

func (i *infrastructure) Close() {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			i.logger.Warn("Kafka producer close failed", logging.Err(err))
		}
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.pool != nil {
		postgres.Close(i.pool)
	}
}

//Personal.AI order the ending
