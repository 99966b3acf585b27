package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8081
  mode: debug
grpc:
  port: 9091
database:
  host: db.internal
  port: 5432
  user: keyip
  password: secret
  db_name: library
redis:
  addr: redis.internal:6379
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
search:
  ring_data_max: 7
  strict_aromaticity: true
  result_cache_ttl: 5m
log:
  level: debug
  format: console
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 9091, cfg.GRPC.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Search.RingDataMax)
	assert.True(t, cfg.Search.StrictAromaticity)
	assert.Equal(t, 5*time.Minute, cfg.Search.ResultCacheTTL)
	assert.Equal(t, DefaultKafkaRequestTopic, cfg.Kafka.RequestTopic)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "server: [\n"))
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "search:\n  ring_data_max: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KEYIP_SERVER_PORT", "9999")
	t.Setenv("KEYIP_SEARCH_RING_DATA_MAX", "10")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Search.RingDataMax)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KEYIP_DATABASE_HOST", "env-db")
	t.Setenv("KEYIP_LOG_LEVEL", "warn")
	t.Setenv("KEYIP_KAFKA_AUTO_CREATE_TOPICS", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Kafka.AutoCreateTopics)
	assert.Equal(t, DefaultKafkaDLQTopic, cfg.Kafka.DeadLetterTopic)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 4)
	Watch(path, func(c *Config) { changed <- c }, nil)

	updated := []byte(validConfigYAML + "worker:\n  concurrency: 11\n")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, updated, 0o644)
		select {
		case c := <-changed:
			return c.Worker.Concurrency == 11
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 200*time.Millisecond)
}

//Personal.AI order the ending
