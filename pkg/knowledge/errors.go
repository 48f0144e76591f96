package knowledge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for callers deciding on retry.
type ErrorKind int

const (
	// InvalidTool marks a tool name outside the registered set. Caller bug,
	// not retryable.
	InvalidTool ErrorKind = iota + 1
	// InvalidArgument marks an empty or missing topic argument. Not retryable.
	InvalidArgument
	// Upstream marks a backend failure (unreachable, unauthenticated, timed
	// out). Transient; the whole request may be retried.
	Upstream
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidTool:
		return "invalid_tool"
	case InvalidArgument:
		return "invalid_argument"
	case Upstream:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the dispatcher. Exactly one of a
// record or an *Error comes out of every Handle call.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or zero if err is not a pipeline
// error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
