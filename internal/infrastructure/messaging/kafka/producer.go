package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// MaxMessageBytes bounds a single published value.
const MaxMessageBytes = 1 << 20

var ErrProducerClosed = errors.New(errors.ErrCodeServiceUnavailable, "producer closed")

// Writer abstracts kafka.Writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is what the screening service and the consumer's dead-letter
// path need from a producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, env *EventEnvelope) error
	PublishRaw(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// ProducerStats are cumulative counters.
type ProducerStats struct {
	Sent   int64
	Failed int64
	Bytes  int64
}

// Producer writes envelopes to Kafka, keyed for partition affinity.
type Producer struct {
	writer Writer
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
	bytes  atomic.Int64
}

var _ Publisher = (*Producer)(nil)

// NewProducer builds a hash-balanced writer over the configured brokers.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidParam("kafka brokers required")
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    batch,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
	}
	return NewProducerWithWriter(w, log), nil
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w Writer, log logging.Logger) *Producer {
	return &Producer{writer: w, logger: log}
}

// Publish encodes env and writes it to topic.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, env *EventEnvelope) error {
	value, err := env.Encode()
	if err != nil {
		return err
	}
	return p.PublishRaw(ctx, topic, key, value, map[string]string{
		"event_type":     env.EventType,
		"schema_version": env.SchemaVersion,
	})
}

// PublishRaw writes value as-is.
func (p *Producer) PublishRaw(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if topic == "" {
		return errors.InvalidParam("topic required")
	}
	if len(value) == 0 || len(value) > MaxMessageBytes {
		return errors.InvalidParam("message value size out of range")
	}

	msg := kafka.Message{Topic: topic, Key: key, Value: value, Time: time.Now()}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeJobSubmitFailed, "publish failed").WithDetail(topic)
	}
	p.sent.Add(1)
	p.bytes.Add(int64(len(value)))
	p.logger.Debug("Message published", logging.String("topic", topic), logging.Duration("latency", time.Since(start)))
	return nil
}

// Stats returns a snapshot of the counters.
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{Sent: p.sent.Load(), Failed: p.failed.Load(), Bytes: p.bytes.Load()}
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

//Personal.AI order the ending
