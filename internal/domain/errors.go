package domain

import "errors"

var (
	// ErrValidation signals an empty or malformed row or message.
	ErrValidation = errors.New("validation failed")
	// ErrDimMismatch signals an embedding whose length differs from the
	// deployment dimension D.
	ErrDimMismatch = errors.New("embedding dimension mismatch")
	// ErrProviderError signals a transient embedding/generation provider failure.
	ErrProviderError = errors.New("provider error")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderTimeout signals a provider call that exceeded its deadline.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrUpstreamUnavailable signals an unreachable vector store.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// IsTransient reports whether err is worth retrying. Validation and dimension
// errors are never transient; timeouts fail the current attempt without retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderError) || errors.Is(err, ErrRateLimited)
}
