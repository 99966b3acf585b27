// Package config provides configuration loading, defaults, and validation for
// the substructure service.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "KEYIP"

// newViper returns a viper instance reading YAML with KEYIP_* env overrides,
// where "search.ring_data_max" resolves to KEYIP_SEARCH_RING_DATA_MAX.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers every known key so that env-only configuration
// unmarshals; viper.AutomaticEnv alone does not surface keys absent from the file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
		"server.max_body_size", "server.shutdown_timeout",
		"grpc.port", "grpc.enable_reflection",
		"database.host", "database.port", "database.user", "database.password",
		"database.db_name", "database.ssl_mode", "database.max_conns", "database.migration_path",
		"redis.addr", "redis.password", "redis.db", "redis.key_prefix", "redis.default_ttl",
		"kafka.brokers", "kafka.group_id", "kafka.request_topic", "kafka.result_topic",
		"kafka.dead_letter_topic", "kafka.auto_create_topics",
		"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.use_ssl",
		"search.ring_data_max", "search.strict_aromaticity", "search.max_targets_per_batch",
		"search.batch_concurrency", "search.result_cache_ttl", "search.perception_cache_size",
		"search.search_timeout", "search.max_target_atoms",
		"worker.concurrency", "worker.max_retries",
		"log.level", "log.format", "log.output",
		"metrics.enabled", "metrics.namespace", "metrics.path",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges KEYIP_* overrides, applies
// defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from KEYIP_* environment variables only.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch invokes onChange with the reparsed Config whenever configPath is
// written. Invalid revisions are reported to onError and otherwise skipped.
// Watch is non-blocking.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on error. For main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
