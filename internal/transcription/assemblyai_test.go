package transcription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/littletalks/backend/internal/proxy"
)

func TestSpeakerIndexFromLabel(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"A", 0},
		{"B", 1},
		{"C", 2},
		{"Z", 25},
		{"a", 0},
		{" b ", 1},
		{"", 0},
		{"3", 0},
	}
	for _, c := range cases {
		if got := speakerIndexFromLabel(c.label); got != c.want {
			t.Errorf("speakerIndexFromLabel(%q) = %d, want %d", c.label, got, c.want)
		}
	}
}

func TestAssemblyAIAdapterSubmitThenPoll(t *testing.T) {
	polls := 0
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return jsonResponse(`{"id": "job-42", "status": "queued"}`)
		},
		pollFn: func(provider, jobID string) (*proxy.Response, error) {
			if jobID != "job-42" {
				t.Errorf("polled unexpected job %q", jobID)
			}
			polls++
			if polls < 3 {
				return jsonResponse(`{"id": "job-42", "status": "processing"}`)
			}
			return jsonResponse(`{
				"id": "job-42",
				"status": "completed",
				"utterances": [
					{"speaker": "A", "text": "look a dinosaur", "start": 0, "end": 1800},
					{"speaker": "C", "text": "rawr", "start": 1800, "end": 2400}
				]
			}`)
		},
	}

	sleeps := 0
	adapter := NewAssemblyAIAdapter(broker, fastPoller(2*time.Second, 60, &sleeps))

	tr, err := adapter.Transcribe(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	want := []Utterance{
		{Speaker: 0, Text: "look a dinosaur", StartMs: 0, EndMs: 1800},
		{Speaker: 2, Text: "rawr", StartMs: 1800, EndMs: 2400},
	}
	if len(tr.Utterances) != len(want) {
		t.Fatalf("expected %d utterances, got %d", len(want), len(tr.Utterances))
	}
	for i, u := range tr.Utterances {
		if u != want[i] {
			t.Errorf("utterance %d: expected %+v, got %+v", i, want[i], u)
		}
	}
	if broker.transcribeCalls != 1 {
		t.Errorf("expected exactly one submit, got %d", broker.transcribeCalls)
	}
	if polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
}

func TestAssemblyAIAdapterSubmitFailureIsImmediate(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return nil, &proxy.StatusError{Provider: "assemblyai", StatusCode: 401, Body: "bad key"}
		},
		pollFn: func(provider, jobID string) (*proxy.Response, error) {
			t.Fatal("poll should not run after a failed submit")
			return nil, nil
		},
	}

	adapter := NewAssemblyAIAdapter(broker, fastPoller(time.Second, 10, nil))
	_, err := adapter.Transcribe(context.Background(), testPayload())

	var te *Error
	if !errors.As(err, &te) || te.Kind != KindProvider {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestAssemblyAIAdapterJobErrorSurfacesMessage(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return jsonResponse(`{"id": "job-9", "status": "queued"}`)
		},
		pollFn: func(provider, jobID string) (*proxy.Response, error) {
			return jsonResponse(`{"id": "job-9", "status": "error", "error": "unsupported codec"}`)
		},
	}

	adapter := NewAssemblyAIAdapter(broker, fastPoller(time.Second, 10, nil))
	_, err := adapter.Transcribe(context.Background(), testPayload())

	var te *Error
	if !errors.As(err, &te) || te.Kind != KindProvider {
		t.Fatalf("expected provider error, got %v", err)
	}
	if te.Message != "unsupported codec" {
		t.Errorf("expected provider message to surface, got %q", te.Message)
	}
}

func TestAssemblyAIAdapterPollTimeoutIsDistinct(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return jsonResponse(`{"id": "job-7", "status": "queued"}`)
		},
		pollFn: func(provider, jobID string) (*proxy.Response, error) {
			return jsonResponse(`{"id": "job-7", "status": "processing"}`)
		},
	}

	adapter := NewAssemblyAIAdapter(broker, fastPoller(2*time.Second, 60, nil))
	_, err := adapter.Transcribe(context.Background(), testPayload())

	var te *Error
	if !errors.As(err, &te) || te.Kind != KindTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if te.Provider != "assemblyai" {
		t.Errorf("expected provider assemblyai on timeout, got %q", te.Provider)
	}
	if broker.pollCalls != 60 {
		t.Errorf("expected 60 polls before timeout, got %d", broker.pollCalls)
	}
}
