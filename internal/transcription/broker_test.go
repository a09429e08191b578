package transcription

import (
	"context"

	"github.com/littletalks/backend/internal/proxy"
)

// fakeBroker stands in for the proxy boundary in adapter tests.
type fakeBroker struct {
	transcribeCalls int
	pollCalls       int

	transcribeFn func(req proxy.Request) (*proxy.Response, error)
	pollFn       func(provider, jobID string) (*proxy.Response, error)
}

func (b *fakeBroker) Transcribe(ctx context.Context, req proxy.Request) (*proxy.Response, error) {
	b.transcribeCalls++
	return b.transcribeFn(req)
}

func (b *fakeBroker) PollJob(ctx context.Context, provider, jobID string) (*proxy.Response, error) {
	b.pollCalls++
	return b.pollFn(provider, jobID)
}

func jsonResponse(body string) (*proxy.Response, error) {
	return &proxy.Response{RequestID: "req-1", Body: []byte(body)}, nil
}

func testPayload() AudioPayload {
	p, err := NewAudioPayload([]byte("fake audio bytes"), "audio/wav")
	if err != nil {
		panic(err)
	}
	return p
}
