package kafka

import (
	"context"
	"net"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// Event types carried in envelopes.
const (
	EventScreeningRequested = "screening.requested"
	EventScreeningCompleted = "screening.completed"
	EventScreeningFailed    = "screening.failed"
)

const envelopeSchemaVersion = "1"

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes one consumed message.
type Handler func(ctx context.Context, msg *Message) error

// EventEnvelope wraps every screening payload on the wire.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope encodes payload into a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: envelopeSchemaVersion,
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeJobPayloadFailed, "failed to decode event payload").WithDetail(e.EventType)
	}
	return nil
}

// Encode renders the envelope as JSON.
func (e *EventEnvelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}
	return data, nil
}

// DecodeEnvelope parses a consumed message value.
func DecodeEnvelope(msg *Message) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeJobPayloadFailed, "message is not an event envelope").
			WithDetail(msg.Topic + "@" + strconv.FormatInt(msg.Offset, 10))
	}
	if env.EventType == "" || len(env.Payload) == 0 {
		return nil, errors.New(errors.ErrCodeJobPayloadFailed, "event envelope missing type or payload")
	}
	return &env, nil
}

// TopicSpec describes a topic to create.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// ScreeningTopics returns the topics the worker reads and writes.
func ScreeningTopics(request, result, deadLetter string) []TopicSpec {
	week := int64(7 * 24 * time.Hour / time.Millisecond)
	return []TopicSpec{
		{Name: request, Partitions: 6, ReplicationFactor: 1, RetentionMs: week},
		{Name: result, Partitions: 6, ReplicationFactor: 1, RetentionMs: week},
		{Name: deadLetter, Partitions: 1, ReplicationFactor: 1, RetentionMs: 4 * week},
	}
}

// EnsureTopics creates any missing topics through the cluster controller.
func EnsureTopics(ctx context.Context, broker string, specs []TopicSpec, log logging.Logger) error {
	var d kafka.Dialer
	conn, err := d.DialContext(ctx, "tcp", broker)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to dial kafka")
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to find kafka controller")
	}
	cc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to dial kafka controller")
	}
	defer cc.Close()

	configs := make([]kafka.TopicConfig, 0, len(specs))
	for _, s := range specs {
		configs = append(configs, kafka.TopicConfig{
			Topic:             s.Name,
			NumPartitions:     s.Partitions,
			ReplicationFactor: s.ReplicationFactor,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(s.RetentionMs, 10)},
			},
		})
	}
	if err := cc.CreateTopics(configs...); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to create topics")
	}
	for _, s := range specs {
		log.Info("Kafka topic ensured", logging.String("topic", s.Name), logging.Int("partitions", s.Partitions))
	}
	return nil
}

//Personal.AI order the ending
