package transcription

import (
	"context"
	"errors"
	"log/slog"
)

// Orchestrator tries adapters strictly in priority order and returns the
// first success. Order reflects expected diarization quality for overlapping
// similar voices, not cost. There are no per-adapter retries here; the job
// poller's status checks are the only retry loop in the system.
type Orchestrator struct {
	providers []Provider
}

func NewOrchestrator(providers ...Provider) *Orchestrator {
	return &Orchestrator{providers: providers}
}

func (o *Orchestrator) Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error) {
	// A bad payload never reaches an adapter and is never retried.
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var attempts []Attempt
	for _, p := range o.providers {
		t, err := p.Transcribe(ctx, payload)
		if err == nil {
			slog.Info("transcription succeeded", "provider", p.Name(), "utterances", len(t.Utterances))
			return t, nil
		}

		// The caller is gone or the overall budget is spent: stop falling
		// back instead of billing more providers.
		if ctx.Err() != nil {
			return nil, classify(p.Name(), err)
		}

		failure := classify(p.Name(), err)
		attempts = append(attempts, Attempt{
			Provider: p.Name(),
			Kind:     failure.Kind.String(),
			Message:  failure.Message,
		})
		slog.Warn("transcription provider failed, trying next",
			"provider", p.Name(),
			"kind", failure.Kind.String(),
			"error", failure.Message,
		)
	}

	return nil, &AggregateError{Attempts: attempts}
}

// IsValidationError reports whether err is a payload validation failure, so
// handlers can map it to a 400 rather than a gateway error.
func IsValidationError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindValidation
}
