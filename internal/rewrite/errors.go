package rewrite

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindConfig              Kind = "config_error"
	KindAuth                Kind = "auth_error"
	KindQuotaOrConfig       Kind = "quota_or_config_error"
	KindUpstream            Kind = "upstream_error"
	KindInsufficientResults Kind = "insufficient_results"
	KindInsufficientContent Kind = "insufficient_content"
	KindGeneration          Kind = "generation_error"
	KindNotFound            Kind = "not_found"
	KindResolution          Kind = "resolution_error"
	KindInternal            Kind = "internal_error"
)

// Error is the single error type that leaves the rewrite pipeline.
// Reference is 1 or 2 when the failure belongs to one reference, 0 otherwise.
type Error struct {
	Kind      Kind
	Reference int
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error onto an HTTP status class. A resolution failure takes
// the status of the tier failure it wraps.
func (e *Error) Status() int {
	switch e.Kind {
	case KindConfig, KindAuth, KindQuotaOrConfig, KindInsufficientResults:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindResolution:
		var cause *Error
		if errors.As(e.Err, &cause) {
			return cause.Status()
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Is matches on Kind so callers can write errors.Is(err, &Error{Kind: KindConfig}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reference == 0 || t.Reference == e.Reference)
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// HasKind reports whether err or any error it wraps is a rewrite error of kind.
func HasKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// AsError returns err as a rewrite error, wrapping anything unclassified as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var out *Error
	if errors.As(err, &out) {
		return out
	}
	return newError(KindInternal, "Failed to rewrite article", err)
}
