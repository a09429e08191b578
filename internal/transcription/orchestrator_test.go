package transcription

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/littletalks/backend/internal/proxy"
)

type stubProvider struct {
	name  string
	calls int
	tr    *Transcript
	err   error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.tr, nil
}

func TestOrchestratorRejectsEmptyPayloadBeforeAnyAdapter(t *testing.T) {
	p1 := &stubProvider{name: "google", tr: &Transcript{}}
	p2 := &stubProvider{name: "deepgram", tr: &Transcript{}}
	orch := NewOrchestrator(p1, p2)

	_, err := orch.Transcribe(context.Background(), AudioPayload{})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if p1.calls != 0 || p2.calls != 0 {
		t.Errorf("validation failure must not reach adapters: calls %d/%d", p1.calls, p2.calls)
	}
}

func TestOrchestratorShortCircuitsOnFirstSuccess(t *testing.T) {
	p1 := &stubProvider{name: "google", tr: &Transcript{Utterances: []Utterance{{Text: "hi"}}}}
	p2 := &stubProvider{name: "deepgram", tr: &Transcript{}}
	p3 := &stubProvider{name: "assemblyai", tr: &Transcript{}}
	orch := NewOrchestrator(p1, p2, p3)

	tr, err := orch.Transcribe(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(tr.Utterances) != 1 || tr.Utterances[0].Text != "hi" {
		t.Errorf("unexpected transcript: %+v", tr)
	}
	if p1.calls != 1 {
		t.Errorf("expected 1 call to first provider, got %d", p1.calls)
	}
	if p2.calls != 0 || p3.calls != 0 {
		t.Errorf("later providers must not run after a success: calls %d/%d", p2.calls, p3.calls)
	}
}

func TestOrchestratorFallsThroughToSecondProvider(t *testing.T) {
	p1 := &stubProvider{name: "google", err: &Error{Kind: KindProvider, Provider: "google", Message: "boom"}}
	p2 := &stubProvider{name: "deepgram", tr: &Transcript{Utterances: []Utterance{{Text: "ok"}}}}
	orch := NewOrchestrator(p1, p2)

	tr, err := orch.Transcribe(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if tr.Utterances[0].Text != "ok" {
		t.Errorf("unexpected transcript: %+v", tr)
	}
	if p1.calls != 1 || p2.calls != 1 {
		t.Errorf("expected one call each, got %d/%d", p1.calls, p2.calls)
	}
}

func TestOrchestratorAggregatesAllFailures(t *testing.T) {
	p1 := &stubProvider{name: "google", err: &Error{Kind: KindProvider, Provider: "google", Message: "x"}}
	p2 := &stubProvider{name: "deepgram", err: &Error{Kind: KindProvider, Provider: "deepgram", Message: "y"}}
	p3 := &stubProvider{name: "assemblyai", err: &Error{Kind: KindTimeout, Provider: "assemblyai", Message: "z"}}
	orch := NewOrchestrator(p1, p2, p3)

	_, err := orch.Transcribe(context.Background(), testPayload())

	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if len(agg.Attempts) != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", len(agg.Attempts))
	}

	msg := agg.Error()
	for _, reason := range []string{"x", "y", "z"} {
		if !strings.Contains(msg, reason) {
			t.Errorf("aggregate message missing reason %q: %s", reason, msg)
		}
	}
	// The timeout must be tellable apart from a provider-reported failure.
	if !strings.Contains(msg, "timeout") {
		t.Errorf("aggregate message does not label the timeout: %s", msg)
	}
}

func TestOrchestratorLabelsNotConfiguredDistinctly(t *testing.T) {
	p1 := &stubProvider{name: "google", err: proxy.ErrNotConfigured}
	p2 := &stubProvider{name: "deepgram", err: &Error{Kind: KindProvider, Provider: "deepgram", Message: "outage"}}
	orch := NewOrchestrator(p1, p2)

	_, err := orch.Transcribe(context.Background(), testPayload())

	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if agg.Attempts[0].Kind != KindNotConfigured.String() {
		t.Errorf("expected first attempt labeled not configured, got %q", agg.Attempts[0].Kind)
	}
	if agg.Attempts[1].Kind != KindProvider.String() {
		t.Errorf("expected second attempt labeled provider error, got %q", agg.Attempts[1].Kind)
	}
}

func TestOrchestratorStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p1 := &stubProvider{name: "google"}
	p1.err = context.Canceled
	p2 := &stubProvider{name: "deepgram", tr: &Transcript{}}
	orch := NewOrchestrator(p1, p2)

	cancel()
	_, err := orch.Transcribe(ctx, testPayload())
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if p2.calls != 0 {
		t.Errorf("fallback must stop once the caller is gone, got %d calls", p2.calls)
	}
}
