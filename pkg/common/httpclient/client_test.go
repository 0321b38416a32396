package httpclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &StatusError{Code: 400}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one call and an error, got %d calls, err %v", calls, err)
	}
}

func TestRetryRetriesServerErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %d calls, err %v", calls, err)
	}
}

func TestIsRetriableDeadline(t *testing.T) {
	if !IsRetriable(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded should be retriable")
	}
	if IsRetriable(errors.New("boom")) {
		t.Fatal("plain errors should not be retriable")
	}
}
