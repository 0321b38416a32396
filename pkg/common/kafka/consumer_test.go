package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

type scriptedReader struct {
	messages  []kafka.Message
	fetchErr  error
	fetches   int
	committed []int64
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.fetches++
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *scriptedReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func eventMessage(t *testing.T, offset int64, id string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(models.Event{ID: id, Type: "document.requested"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Offset: offset, Value: value}
}

func TestHandleWithRetryRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, event models.Event) error {
		calls++
		if calls < 3 {
			return errors.New("disk busy")
		}
		return nil
	}
	if err := handleWithRetry(context.Background(), handler, models.Event{ID: "e1"}, 3, time.Millisecond); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestConsumeDoesNotCommitPastFailedMessage(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		eventMessage(t, 10, "bad"),
		eventMessage(t, 11, "good"),
	}}
	c := &Consumer{reader: reader, attempts: 2, backoff: time.Millisecond}

	var seen []string
	err := c.Consume(context.Background(), func(ctx context.Context, event models.Event) error {
		seen = append(seen, event.ID)
		if event.ID == "bad" {
			return errors.New("render failed")
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected the persistent failure to stop the consumer")
	}
	if len(reader.committed) != 0 {
		t.Fatalf("no offset may be committed past a failed message, got %v", reader.committed)
	}
	if len(seen) != 2 || seen[0] != "bad" || seen[1] != "bad" {
		t.Fatalf("expected the failing event to be retried in place, got %v", seen)
	}
}

func TestConsumeCommitsUndecodableAndHandledMessages(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		{Offset: 1, Value: []byte("not json")},
		eventMessage(t, 2, "ok"),
	}}
	c := &Consumer{reader: reader, attempts: 1, backoff: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(reader.committed) != 2 || reader.committed[0] != 1 || reader.committed[1] != 2 {
		t.Fatalf("unexpected commits %v", reader.committed)
	}
}

func TestConsumeBacksOffOnFetchErrors(t *testing.T) {
	reader := &scriptedReader{fetchErr: errors.New("broker down")}
	c := &Consumer{reader: reader, attempts: 1, backoff: 20 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the deadline to end the loop, got %v", err)
	}
	// Pauses of 20ms, 40ms and 80ms leave room for three fetches.
	if reader.fetches > 4 {
		t.Fatalf("fetch errors must back off, got %d fetches in 100ms", reader.fetches)
	}
}
