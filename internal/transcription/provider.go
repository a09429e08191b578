package transcription

import (
	"context"
	"fmt"

	"github.com/littletalks/backend/internal/proxy"
)

// Provider is one speech-to-text backend behind its normalizing adapter.
// Transcribe is synchronous from the caller's point of view even when the
// backend is job-based; polling is hidden inside the adapter.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error)
}

// Broker is the adapters' view of the anonymizing proxy boundary. Adapters
// never call a provider directly. Satisfied by proxy.Service in-process and
// by proxy.Client over HTTP.
type Broker interface {
	Transcribe(ctx context.Context, req proxy.Request) (*proxy.Response, error)
	PollJob(ctx context.Context, provider, jobID string) (*proxy.Response, error)
}

// NewProvider builds the adapter for a configured provider name. Adding a
// backend means adding one adapter and one case here.
func NewProvider(name string, broker Broker, poller *Poller) (Provider, error) {
	switch name {
	case proxy.ProviderGoogle:
		return NewGoogleAdapter(broker), nil
	case proxy.ProviderDeepgram:
		return NewDeepgramAdapter(broker), nil
	case proxy.ProviderAssemblyAI:
		return NewAssemblyAIAdapter(broker, poller), nil
	case proxy.ProviderWhisper:
		return NewWhisperAdapter(broker), nil
	}
	return nil, fmt.Errorf("unknown transcription provider %q", name)
}
