package providers

import (
	"errors"
	"fmt"
)

// ErrNotFound means the provider has no data for the request. It is a
// normal, non-exceptional outcome: adapters return it instead of inventing
// empty records, and the orchestrator treats it as "try the next tier".
var ErrNotFound = errors.New("providers: not found")

// ErrRateLimited means the provider rejected the call on quota grounds.
// For the key-pooled provider this must trigger rotation before any retry.
var ErrRateLimited = errors.New("providers: rate limited")

// UpstreamError wraps a provider failure with enough context to diagnose
// without reproducing. Transient marks timeouts and 5xx responses that a
// later call may not hit; a malformed response shape is permanent.
type UpstreamError struct {
	Provider  string
	Status    int
	Transient bool
	Err       error
}

func (e *UpstreamError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Status != 0 {
		return fmt.Sprintf("providers: %s upstream %s (status %d): %v", e.Provider, kind, e.Status, e.Err)
	}
	return fmt.Sprintf("providers: %s upstream %s: %v", e.Provider, kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Transient builds a transient upstream error.
func Transient(provider string, status int, err error) error {
	return &UpstreamError{Provider: provider, Status: status, Transient: true, Err: err}
}

// Permanent builds a permanent upstream error (malformed payloads and the like).
func Permanent(provider string, err error) error {
	return &UpstreamError{Provider: provider, Err: err}
}

// IsNotFound reports whether err means "no data anywhere for this request".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is worth retrying on a later call.
func IsTransient(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Transient
	}
	return false
}
