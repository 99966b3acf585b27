// Package config defines the configuration structures of the substructure
// service. No I/O lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds gRPC server tunables.
type GRPCConfig struct {
	Port             int  `mapstructure:"port"`
	EnableReflection bool `mapstructure:"enable_reflection"`
	MaxRecvMsgSize   int  `mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize   int  `mapstructure:"max_send_msg_size"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the molecule library.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the result cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the screening job queue parameters.
type KafkaConfig struct {
	Brokers          []string      `mapstructure:"brokers"`
	GroupID          string        `mapstructure:"group_id"`
	RequestTopic     string        `mapstructure:"request_topic"`
	ResultTopic      string        `mapstructure:"result_topic"`
	DeadLetterTopic  string        `mapstructure:"dead_letter_topic"`
	AutoOffsetReset  string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	BatchSize        int           `mapstructure:"batch_size"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	AutoCreateTopics bool          `mapstructure:"auto_create_topics"`
}

// MinIOConfig holds the molfile object store parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// SearchConfig holds substructure engine defaults.
type SearchConfig struct {
	RingDataMax         int           `mapstructure:"ring_data_max"`
	StrictAromaticity   bool          `mapstructure:"strict_aromaticity"`
	MaxTargetsPerBatch  int           `mapstructure:"max_targets_per_batch"`
	BatchConcurrency    int           `mapstructure:"batch_concurrency"`
	ResultCacheTTL      time.Duration `mapstructure:"result_cache_ttl"`
	PerceptionCacheSize int64         `mapstructure:"perception_cache_size"`
	SearchTimeout       time.Duration `mapstructure:"search_timeout"`
	MaxTargetAtoms      int           `mapstructure:"max_target_atoms"`
}

// WorkerConfig holds background screening worker parameters.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Search   SearchConfig   `mapstructure:"search"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("config: %s %d is out of range [1, 65535]", name, port)
	}
	return nil
}

// Validate performs semantic validation of a defaulted Config. It returns the
// first error encountered.
func (c *Config) Validate() error {
	if err := validPort("server.port", c.Server.Port); err != nil {
		return err
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if err := validPort("grpc.port", c.GRPC.Port); err != nil {
		return err
	}
	if c.GRPC.Port == c.Server.Port {
		return fmt.Errorf("config: grpc.port and server.port must differ, both are %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if err := validPort("database.port", c.Database.Port); err != nil {
		return err
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.RequestTopic == "" || c.Kafka.ResultTopic == "" {
		return fmt.Errorf("config: kafka.request_topic and kafka.result_topic are required")
	}
	if c.Kafka.RequestTopic == c.Kafka.ResultTopic {
		return fmt.Errorf("config: kafka request and result topics must differ")
	}

	if c.Search.RingDataMax < 3 {
		return fmt.Errorf("config: search.ring_data_max must be ≥ 3, got %d", c.Search.RingDataMax)
	}
	if c.Search.StrictAromaticity && c.Search.RingDataMax < 6 {
		return fmt.Errorf("config: search.ring_data_max must be ≥ 6 with strict aromaticity, got %d", c.Search.RingDataMax)
	}
	if c.Search.BatchConcurrency < 1 {
		return fmt.Errorf("config: search.batch_concurrency must be ≥ 1, got %d", c.Search.BatchConcurrency)
	}
	if c.Search.MaxTargetsPerBatch < 1 {
		return fmt.Errorf("config: search.max_targets_per_batch must be ≥ 1, got %d", c.Search.MaxTargetsPerBatch)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
