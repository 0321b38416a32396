package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

const (
	handlerAttempts = 3
	baseBackoff     = 500 * time.Millisecond
	maxBackoff      = 10 * time.Second
)

// messageReader is the part of *kafka.Reader the consumer loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader   messageReader
	attempts int
	backoff  time.Duration
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(cfg *config.Config, topic string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: reader, attempts: handlerAttempts, backoff: baseBackoff}
}

// Consume blocks until ctx is done. Undecodable messages are committed and skipped.
// A failing handler is retried in place with backoff; when every attempt fails,
// Consume returns the error without committing so the group redelivers the
// message once the worker restarts. Later offsets are never committed past it.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	fetchDelay := c.backoff
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).WithField("retry_in", fetchDelay).Error("Failed to fetch message")
			if err := sleep(ctx, fetchDelay); err != nil {
				return err
			}
			fetchDelay = nextBackoff(fetchDelay)
			continue
		}
		fetchDelay = c.backoff

		var event models.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			if err := c.reader.CommitMessages(ctx, message); err != nil {
				logger.Log.WithError(err).Error("Failed to commit message")
			}
			continue
		}

		if err := handleWithRetry(ctx, handler, event, c.attempts, c.backoff); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event %s at offset %d: %w", event.ID, message.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Log.WithError(err).Error("Failed to commit message")
		}
	}
}

// handleWithRetry calls handler up to attempts times, doubling the pause between
// tries. It returns the last handler error, or ctx's error if ctx ends first.
func handleWithRetry(ctx context.Context, handler EventHandler, event models.Event, attempts int, backoff time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	delay := backoff
	for i := 1; i <= attempts; i++ {
		if err = handler(ctx, event); err == nil {
			return nil
		}
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id": event.ID,
			"attempt":  i,
			"attempts": attempts,
		}).Error("Failed to process event")
		if i == attempts {
			break
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		delay = nextBackoff(delay)
	}
	return err
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
