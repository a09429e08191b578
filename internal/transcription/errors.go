package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/littletalks/backend/internal/proxy"
)

type Kind int

const (
	// KindValidation: the payload was rejected before any adapter ran.
	KindValidation Kind = iota + 1
	// KindNotConfigured: the provider has no credentials; no network attempt
	// was made.
	KindNotConfigured
	// KindProvider: the provider was reached and reported a failure.
	KindProvider
	// KindTimeout: an asynchronous job never reached a terminal state within
	// the poll budget.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindNotConfigured:
		return "not configured"
	case KindProvider:
		return "provider error"
	case KindTimeout:
		return "timeout"
	}
	return "unknown error"
}

// Error is a single classified transcription failure.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Attempt records one adapter's failure during a fallback run.
type Attempt struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// AggregateError is raised only when every configured adapter has failed. It
// enumerates each attempt so operators can tell a config gap from an outage.
type AggregateError struct {
	Attempts []Attempt
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", a.Provider, a.Kind, a.Message))
	}
	return "all transcription providers failed: " + strings.Join(parts, "; ")
}

// classify maps a broker or adapter failure into the transcription taxonomy.
func classify(provider string, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		if te.Provider == "" {
			te.Provider = provider
		}
		return te
	}

	if errors.Is(err, proxy.ErrNotConfigured) {
		return &Error{Kind: KindNotConfigured, Provider: provider, Message: "no credentials configured"}
	}

	var statusErr *proxy.StatusError
	if errors.As(err, &statusErr) {
		return &Error{Kind: KindProvider, Provider: provider, Message: statusErr.Error()}
	}

	var transportErr *proxy.TransportError
	if errors.As(err, &transportErr) {
		return &Error{Kind: KindProvider, Provider: provider, Message: transportErr.Error()}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: provider, Message: err.Error()}
	}

	return &Error{Kind: KindProvider, Provider: provider, Message: err.Error()}
}
