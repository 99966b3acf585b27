package testutil

import (
	"context"
	"sync"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
)

// NewObservedLogger returns a logger whose entries are captured at debug
// level and above.
func NewObservedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewLoggerFromCore(core), logs
}

// Published is one envelope handed to a RecordingPublisher.
type Published struct {
	Topic    string
	Key      string
	Envelope *kafka.EventEnvelope
	Value    []byte
	Headers  map[string]string
}

// RecordingPublisher is a kafka.Publisher that keeps what it is given.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
	// Err fails every publish when set.
	Err error
}

var _ kafka.Publisher = (*RecordingPublisher)(nil)

func (p *RecordingPublisher) Publish(_ context.Context, topic string, key []byte, env *kafka.EventEnvelope) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Key: string(key), Envelope: env})
	return nil
}

func (p *RecordingPublisher) PublishRaw(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Key: string(key), Value: value, Headers: headers})
	return nil
}

// Events returns a copy of everything published so far.
func (p *RecordingPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

//Personal.AI order the ending
