package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg *config.Config, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		MaxAttempts:  3,
	}

	return &Producer{writer: writer}
}

// PublishEvent wraps data in an Event envelope. The key is the patient identifier,
// so every document request of one patient lands on the same partition.
func (p *Producer) PublishEvent(ctx context.Context, eventType, source, key string, data map[string]interface{}) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if key == "" {
		key = event.ID
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(source)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	entry := logger.ForPatient(key).WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": eventType,
		"topic":      p.writer.Topic,
	})
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		entry.WithError(err).Error("Failed to publish event")
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}
	entry.Debug("Event published")
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
