// Command apiserver serves the substructure search over REST and gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	grpcserver "github.com/turtacn/KeyIP-Substructure/internal/interfaces/grpc"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/KeyIP-Substructure/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: KEYIP_* environment)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	migrateCmd := flag.String("migrate", "", "run a schema migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
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

	if *migrateCmd != "" {
		if err := runMigration(*migrateCmd, cfg, logger); err != nil {
			logger.Error("Migration failed", logging.String("command", *migrateCmd), logging.Err(err))
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *configPath, logger); err != nil {
		logger.Error("API server failed", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("API server stopped")
}

func run(ctx context.Context, cfg *config.Config, configPath string, logger logging.Logger) error {
	logger.Info("Starting substructure API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.GRPC.Port),
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

	infra, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := screening.NewService(screening.Config{
		Search:       cfg.Search,
		RequestTopic: cfg.Kafka.RequestTopic,
		ResultTopic:  cfg.Kafka.ResultTopic,
	}, infra.dependencies(cfg, metrics))
	if err != nil {
		return fmt.Errorf("screening service: %w", err)
	}
	defer svc.Close()

	if configPath != "" {
		config.Watch(configPath, func(*config.Config) {
			logger.Info("Configuration file changed, restart to apply", logging.String("path", configPath))
		}, func(err error) {
			logger.Warn("Configuration reload failed", logging.Err(err))
		})
	}

	gin.SetMode(cfg.Server.Mode)
	routerCfg := httpserver.RouterConfig{
		SubstructureHandler: handlers.NewSubstructureHandler(svc, logger),
		LibraryHandler:      handlers.NewLibraryHandler(svc, logger),
		JobHandler:          handlers.NewJobHandler(svc, logger),
		HealthHandler:       handlers.NewHealthHandler(version, infra.healthCheckers()...),
		RateLimit:           ptr(middleware.DefaultRateLimitConfig()),
		Logging:             middleware.DefaultLoggingConfig(),
		MaxBodySize:         cfg.Server.MaxBodySize,
		Logger:              logger,
		Metrics:             metrics,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsHandler = collector.Handler()
	}
	httpSrv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	grpcSrv := grpcserver.NewServer(cfg.GRPC,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(metrics),
	)
	grpcSrv.RegisterService(&services.SubstructureServiceDesc, services.NewSubstructureService(svc, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	g.Go(grpcSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		grpcSrv.Stop(shutdownCtx)
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runMigration applies, reverts or reports the library schema.
func runMigration(cmd string, cfg *config.Config, logger logging.Logger) error {
	switch cmd {
	case "up":
		return postgres.RunMigrations(cfg.Database, logger)
	case "down":
		if err := postgres.RollbackMigration(cfg.Database, 1); err != nil {
			return err
		}
		logger.Info("Rolled back one migration")
	case "status":
		version, dirty, err := postgres.MigrationStatus(cfg.Database)
		if err != nil {
			return err
		}
		logger.Info("Migration status", logging.Int64("version", int64(version)), logging.Bool("dirty", dirty))
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}

func ptr[T any](v T) *T { return &v }

//Personal.AI order the ending
