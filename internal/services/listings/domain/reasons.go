package domain

import (
	"context"
	"errors"

	perr "marketfeed/internal/platform/errors"
)

// Reason classifies why a lifecycle operation failed
type Reason string

// Failure reasons; the string is carried as the error kind on the wire
const (
	ReasonInvalidTransition Reason = "invalid_transition"
	ReasonNotExpired        Reason = "not_expired"
	ReasonForbidden         Reason = "forbidden"
	ReasonNotFound          Reason = "not_found"
	ReasonTransport         Reason = "transport_error"
	ReasonEmptySelection    Reason = "empty_selection"
	ReasonSuperseded        Reason = "superseded"
	ReasonInternal          Reason = "internal"
)

// Label is the short human phrase used in bulk summaries
func (r Reason) Label() string {
	switch r {
	case ReasonInvalidTransition:
		return "not allowed in current state"
	case ReasonNotExpired:
		return "not yet expired"
	case ReasonForbidden:
		return "not owned by you"
	case ReasonNotFound:
		return "not found"
	case ReasonTransport:
		return "temporarily unavailable"
	case ReasonEmptySelection:
		return "nothing selected"
	case ReasonSuperseded:
		return "superseded by a newer request"
	}
	return "unexpected error"
}

// ErrSuperseded is returned for feed responses that lost to a newer query
var ErrSuperseded = perr.Kinded(perr.ErrorCodeConflict, string(ReasonSuperseded), "feed request superseded")

// ErrEmptySelection is returned for bulk requests without ids
var ErrEmptySelection = perr.Kinded(perr.ErrorCodeInvalidArgument, string(ReasonEmptySelection), "no listings selected")

// InvalidTransition reports an illegal move from the current status
func InvalidTransition(t Transition, from Status) error {
	return perr.Kinded(perr.ErrorCodeConflict, string(ReasonInvalidTransition),
		"cannot "+string(t)+" a listing that is "+string(from))
}

// NotExpired reports an auto-expire attempt inside the retention window
func NotExpired(id string) error {
	return perr.Kinded(perr.ErrorCodeConflict, string(ReasonNotExpired), "listing "+id+" has not expired")
}

// Forbidden reports an actor acting on someone else's listing
func Forbidden() error {
	return perr.Kinded(perr.ErrorCodeForbidden, string(ReasonForbidden), "listing is not owned by you")
}

// NotFound reports a missing or deleted listing
func NotFound(id string) error {
	return perr.Kinded(perr.ErrorCodeNotFound, string(ReasonNotFound), "listing "+id+" not found")
}

// Transport wraps a store or network failure
func Transport(err error, msg string) error {
	return perr.WithKind(perr.Wrap(err, perr.ErrorCodeUnavailable, msg), string(ReasonTransport))
}

// ReasonOf classifies any error into a Reason; nil is ""
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	switch r := Reason(perr.KindOf(err)); r {
	case ReasonInvalidTransition, ReasonNotExpired, ReasonForbidden, ReasonNotFound,
		ReasonTransport, ReasonEmptySelection, ReasonSuperseded:
		return r
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonTransport
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeNotFound:
		return ReasonNotFound
	case perr.ErrorCodeForbidden:
		return ReasonForbidden
	case perr.ErrorCodeConflict:
		return ReasonInvalidTransition
	}
	if perr.Transient(err) {
		return ReasonTransport
	}
	return ReasonInternal
}
