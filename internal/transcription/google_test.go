package transcription

import (
	"context"
	"errors"
	"testing"

	"github.com/littletalks/backend/internal/proxy"
)

func TestGoogleAdapterGroupsContiguousSpeakerWords(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return jsonResponse(`{
				"results": [{
					"alternatives": [{
						"transcript": "Hello there Hi",
						"words": [
							{"word": "Hello", "startTime": "0s", "endTime": "0.500s", "speakerTag": 1},
							{"word": "there", "startTime": "0.500s", "endTime": "0.900s", "speakerTag": 1},
							{"word": "Hi", "startTime": "0.900s", "endTime": "1.200s", "speakerTag": 2}
						]
					}]
				}]
			}`)
		},
	}

	tr, err := NewGoogleAdapter(broker).Transcribe(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	want := []Utterance{
		{Speaker: 0, Text: "Hello there", StartMs: 0, EndMs: 900},
		{Speaker: 1, Text: "Hi", StartMs: 900, EndMs: 1200},
	}
	if len(tr.Utterances) != len(want) {
		t.Fatalf("expected %d utterances, got %d: %+v", len(want), len(tr.Utterances), tr.Utterances)
	}
	for i, u := range tr.Utterances {
		if u != want[i] {
			t.Errorf("utterance %d: expected %+v, got %+v", i, want[i], u)
		}
	}
}

func TestGoogleAdapterFlatTranscriptFallback(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return jsonResponse(`{"results": [{"alternatives": [{"transcript": "all one string"}]}]}`)
		},
	}

	tr, err := NewGoogleAdapter(broker).Transcribe(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(tr.Utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(tr.Utterances))
	}
	u := tr.Utterances[0]
	if u.Speaker != 0 || u.Text != "all one string" || u.StartMs != 0 || u.EndMs != 0 {
		t.Errorf("unexpected fallback utterance: %+v", u)
	}
}

func TestGoogleAdapterEmptyResultIsLegal(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return jsonResponse(`{"results": []}`)
		},
	}

	tr, err := NewGoogleAdapter(broker).Transcribe(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(tr.Utterances) != 0 {
		t.Errorf("expected empty transcript, got %+v", tr.Utterances)
	}
}

func TestGoogleAdapterStatusErrorBecomesProviderError(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return nil, &proxy.StatusError{Provider: "google", StatusCode: 500, Body: "internal"}
		},
	}

	_, err := NewGoogleAdapter(broker).Transcribe(context.Background(), testPayload())
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if te.Kind != KindProvider {
		t.Errorf("expected KindProvider, got %v", te.Kind)
	}
	if te.Provider != "google" {
		t.Errorf("expected provider google, got %q", te.Provider)
	}
}

func TestGoogleAdapterNotConfigured(t *testing.T) {
	broker := &fakeBroker{
		transcribeFn: func(req proxy.Request) (*proxy.Response, error) {
			return nil, proxy.ErrNotConfigured
		},
	}

	_, err := NewGoogleAdapter(broker).Transcribe(context.Background(), testPayload())
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if te.Kind != KindNotConfigured {
		t.Errorf("expected KindNotConfigured, got %v", te.Kind)
	}
}
