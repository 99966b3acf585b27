package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Reader abstracts kafka.Reader for testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RetryPolicy controls redelivery of a failing message before it is
// dead-lettered.
type RetryPolicy struct {
	MaxRetries      int
	Backoff         time.Duration
	MaxBackoff      time.Duration
	DeadLetterTopic string
}

// ConsumerStats are cumulative counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Retried      int64
	DeadLettered int64
}

// Consumer reads a consumer group and dispatches by topic.
type Consumer struct {
	reader     Reader
	retry      RetryPolicy
	deadLetter Publisher
	logger     logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	running  atomic.Bool

	consumed     atomic.Int64
	processed    atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
}

// NewConsumer joins cfg.GroupID on topics. deadLetter may be nil.
func NewConsumer(cfg config.KafkaConfig, topics []string, deadLetter Publisher, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.GroupID == "" {
		return nil, errors.InvalidParam("kafka brokers and group id required")
	}
	start := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		start = kafka.LastOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		MaxWait:     time.Second,
		StartOffset: start,
	})
	policy := RetryPolicy{MaxRetries: cfg.MaxRetries, DeadLetterTopic: cfg.DeadLetterTopic}
	return NewConsumerWithReader(r, policy, deadLetter, log), nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r Reader, policy RetryPolicy, deadLetter Publisher, log logging.Logger) *Consumer {
	if policy.Backoff <= 0 {
		policy.Backoff = time.Second
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = 30 * time.Second
	}
	return &Consumer{
		reader:     r,
		retry:      policy,
		deadLetter: deadLetter,
		logger:     log,
		handlers:   make(map[string]Handler),
	}
}

// Subscribe registers handler for topic.
func (c *Consumer) Subscribe(topic string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Run consumes until ctx is cancelled. Each message is committed once it is
// handled or dead-lettered.
func (c *Consumer) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("FetchMessage failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		c.consumed.Add(1)

		msg := &Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Time,
			Headers:   make(map[string]string, len(m.Headers)),
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		} else if err := c.process(ctx, msg, handler); err != nil {
			// cancelled mid-retry; leave uncommitted for redelivery
			return nil
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err))
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *Message, handler Handler) error {
	err := handler(ctx, msg)
	backoff := c.retry.Backoff
	for i := 0; err != nil && i < c.retry.MaxRetries; i++ {
		if errors.IsCode(err, errors.ErrCodeJobPayloadFailed) {
			break
		}
		c.retried.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		err = handler(ctx, msg)
		backoff *= 2
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}
	if err == nil {
		c.processed.Add(1)
		return nil
	}

	c.logger.Error("Message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))

	if c.deadLetter == nil || c.retry.DeadLetterTopic == "" {
		return nil
	}
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["original_topic"] = msg.Topic
	headers["original_offset"] = strconv.FormatInt(msg.Offset, 10)
	headers["error_message"] = err.Error()
	if dlErr := c.deadLetter.PublishRaw(ctx, c.retry.DeadLetterTopic, msg.Key, msg.Value, headers); dlErr != nil {
		c.logger.Error("Failed to dead-letter message", logging.Err(dlErr))
		return nil
	}
	c.deadLettered.Add(1)
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
	}
}

func (c *Consumer) Close() error {
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

//Personal.AI order the ending
