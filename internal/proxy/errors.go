package proxy

import (
	"errors"
	"fmt"
)

// The boundary reports three distinct failure kinds so callers can tell a
// config gap from a provider outage from a network fault.
var (
	ErrNotConfigured   = errors.New("provider not configured")
	ErrUnauthenticated = errors.New("missing caller identity")
)

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// TransportError is a network-level failure: the provider never answered.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
