package transcription

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastPoller runs the production state machine without real timers.
func fastPoller(interval time.Duration, maxAttempts int, sleeps *int) *Poller {
	p := NewPoller(interval, maxAttempts)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps++
		}
		return nil
	}
	return p
}

func TestPollerCompletes(t *testing.T) {
	attempts := 0
	check := func(ctx context.Context, jobID string) (*PollResult, error) {
		attempts++
		if attempts < 3 {
			return &PollResult{Status: JobProcessing}, nil
		}
		return &PollResult{Status: JobCompleted, Body: []byte(`{"status":"completed"}`)}, nil
	}

	state, body, err := fastPoller(2*time.Second, 60, nil).Wait(context.Background(), "job-1", check)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if state.Status != JobCompleted {
		t.Errorf("expected JobCompleted, got %v", state.Status)
	}
	if state.AttemptsMade != 3 {
		t.Errorf("expected 3 attempts, got %d", state.AttemptsMade)
	}
	if len(body) == 0 {
		t.Error("expected terminal payload")
	}
}

func TestPollerTimesOutAtAttemptCap(t *testing.T) {
	sleeps := 0
	checks := 0
	check := func(ctx context.Context, jobID string) (*PollResult, error) {
		checks++
		return &PollResult{Status: JobProcessing}, nil
	}

	state, _, err := fastPoller(2*time.Second, 60, &sleeps).Wait(context.Background(), "job-1", check)

	var te *Error
	if !errors.As(err, &te) || te.Kind != KindTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if state.Status != JobProcessing {
		t.Errorf("expected final status JobProcessing, got %v", state.Status)
	}
	if checks < 59 || checks > 60 {
		t.Errorf("expected 59-60 status checks, got %d", checks)
	}
	if state.AttemptsMade != checks {
		t.Errorf("state records %d attempts but %d checks ran", state.AttemptsMade, checks)
	}
}

func TestPollerSurfacesJobFailure(t *testing.T) {
	check := func(ctx context.Context, jobID string) (*PollResult, error) {
		return &PollResult{Status: JobFailed, Message: "audio too short"}, nil
	}

	state, _, err := fastPoller(time.Second, 10, nil).Wait(context.Background(), "job-1", check)

	var te *Error
	if !errors.As(err, &te) || te.Kind != KindProvider {
		t.Fatalf("expected provider error, got %v", err)
	}
	if te.Message != "audio too short" {
		t.Errorf("expected provider message to surface, got %q", te.Message)
	}
	if state.Status != JobFailed {
		t.Errorf("expected JobFailed, got %v", state.Status)
	}
}

func TestPollerWaitIsInterruptible(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	check := func(ctx context.Context, jobID string) (*PollResult, error) {
		t.Fatal("check should not run after cancellation")
		return nil, nil
	}

	// Real sleep here: cancellation must cut the wait short, not block for
	// the full interval.
	start := time.Now()
	_, _, err := NewPoller(time.Minute, 5).Wait(ctx, "job-1", check)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled wait took %v", elapsed)
	}
}
