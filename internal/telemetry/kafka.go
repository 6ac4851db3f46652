package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"basegraph.app/insight/common/logger"
)

const (
	EventInference   = "inference"
	EventTraining    = "training"
	EventInteraction = "interaction"
)

// Envelope is the wire format on the telemetry topic.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MessageReader is the subset of *kafka.Reader the ingestor needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaIngestor feeds telemetry events from a Kafka topic into a Registry.
type KafkaIngestor struct {
	reader   MessageReader
	registry *Registry
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func NewKafkaIngestor(reader MessageReader, registry *Registry) *KafkaIngestor {
	return &KafkaIngestor{reader: reader, registry: registry}
}

// Run consumes until ctx is cancelled. Malformed messages are logged and skipped so one bad
// producer cannot stall the topic.
func (k *KafkaIngestor) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "insight.telemetry.kafka"})
	slog.InfoContext(ctx, "telemetry ingestor started")

	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.InfoContext(ctx, "telemetry ingestor stopping")
				return nil
			}
			slog.WarnContext(ctx, "telemetry read error", "error", err)
			continue
		}

		if err := k.Handle(msg.Value); err != nil {
			slog.WarnContext(ctx, "skipping telemetry message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
		}
	}
}

// Handle decodes one envelope and records it.
func (k *KafkaIngestor) Handle(value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}
	if len(env.Payload) == 0 {
		return errors.New("envelope has no payload")
	}

	switch env.Type {
	case EventInference:
		var e InferenceEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return fmt.Errorf("decoding inference event: %w", err)
		}
		return k.registry.RecordInference(e)
	case EventTraining:
		var e TrainingEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return fmt.Errorf("decoding training event: %w", err)
		}
		return k.registry.RecordTraining(e)
	case EventInteraction:
		var e InteractionEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return fmt.Errorf("decoding interaction event: %w", err)
		}
		return k.registry.RecordInteraction(e)
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
}

func (k *KafkaIngestor) Close() error {
	return k.reader.Close()
}
