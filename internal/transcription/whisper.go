package transcription

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/littletalks/backend/internal/proxy"
)

// WhisperAdapter is the last-resort backend. Whisper does no diarization, so
// every result takes the single-utterance form: one speaker, unknown
// offsets.
type WhisperAdapter struct {
	broker Broker
}

func NewWhisperAdapter(broker Broker) *WhisperAdapter {
	return &WhisperAdapter{broker: broker}
}

func (a *WhisperAdapter) Name() string { return proxy.ProviderWhisper }

func (a *WhisperAdapter) Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error) {
	resp, err := a.broker.Transcribe(ctx, proxy.Request{
		Provider:    proxy.ProviderWhisper,
		RequestType: proxy.RequestTypeTranscription,
		Audio:       payload.Bytes,
		MediaType:   payload.MediaType,
	})
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: "unparseable response: " + err.Error()}
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return &Transcript{}, nil
	}
	return &Transcript{Utterances: []Utterance{{Speaker: 0, Text: text}}}, nil
}
