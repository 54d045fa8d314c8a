package orchestrator

import "fmt"

// Kind is the closed set of request failure categories. The HTTP layer maps
// kinds to status codes; the detail text carries the underlying cause.
type Kind int

const (
	// KindUnauthorized rejects a missing or unrecognized secret.
	KindUnauthorized Kind = iota
	// KindUnavailable means a dependency never initialized; the process is
	// up but cannot serve this request.
	KindUnavailable
	// KindInternal covers generation and publish failures. Callers can only
	// distinguish the stage from the detail text.
	KindInternal
)

// Error is a categorized request failure.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func unauthorized(detail string) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

func unavailable(detail string) *Error {
	return &Error{Kind: KindUnavailable, Detail: detail}
}

func internal(detail string, err error) *Error {
	return &Error{Kind: KindInternal, Detail: detail, Err: err}
}
