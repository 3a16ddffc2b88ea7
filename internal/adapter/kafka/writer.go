// Package kafka publishes detected marine heatwave events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/scottwales/marine-heatwaves/internal/config"
	"github.com/scottwales/marine-heatwaves/internal/domain"
)

// Writer produces event messages to the configured topic.
// It implements pipeline.EventSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and publishes the detected events in a single
// WriteMessages call. Event IDs are deterministic, so replays produce
// duplicate keys downstream consumers can collapse.
func (w *Writer) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Event into a Kafka message keyed by its ID.
func serializeToMessage(event domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(event.Region)},
			{Key: "category", Value: []byte(event.Category)},
			{Key: "detected_at", Value: []byte(event.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
