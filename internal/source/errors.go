package source

import (
	"errors"
	"fmt"
)

// Common errors returned by source adapters.
var (
	// ErrRateLimited indicates the upstream API returned 429.
	ErrRateLimited = errors.New("source rate limit exceeded")

	// ErrUnavailable indicates the upstream API kept failing after retries.
	ErrUnavailable = errors.New("source unavailable")
)

// FetchError is a transient transport or HTTP failure from one source.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch failed (HTTP %d): %s", e.Source, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates the upstream payload as a whole could not be decoded.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s returned an unparseable payload: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsTransient returns true if the error is worth retrying on a later run.
func IsTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode == 0 || fe.StatusCode == 429 || fe.StatusCode >= 500
	}
	return false
}
