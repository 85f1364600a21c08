package db

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollReady_EventuallySucceeds(t *testing.T) {
	calls := 0
	err := PollReady(context.Background(), time.Second, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPollReady_Timeout(t *testing.T) {
	err := PollReady(context.Background(), 250*time.Millisecond, func(context.Context) error {
		return errors.New("down")
	})
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpPing {
		t.Fatalf("expected db.Error{Op: PING}, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
