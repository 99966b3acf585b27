package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultGRPCPort, cfg.GRPC.Port)
	assert.Equal(t, DefaultRingDataMax, cfg.Search.RingDataMax)
	assert.Equal(t, DefaultKafkaRequestTopic, cfg.Kafka.RequestTopic)
	assert.Equal(t, DefaultKafkaResultTopic, cfg.Kafka.ResultTopic)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultResultCacheTTL, cfg.Search.ResultCacheTTL)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Search.RingDataMax = 12
	cfg.Search.ResultCacheTTL = time.Minute
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Search.RingDataMax)
	assert.Equal(t, time.Minute, cfg.Search.ResultCacheTTL)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
