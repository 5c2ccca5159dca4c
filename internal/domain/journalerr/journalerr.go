// Package journalerr defines the stable error kinds and codes returned by the
// journal's membership and record services.
//
// Every precondition failure is one of the sentinel values below, compared
// with errors.Is. The Code is machine-readable and does not depend on which
// of several concurrent callers won a race.
package journalerr

import (
	"errors"
)

// Kind groups codes into the four caller-visible categories.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "internal"
	}
}

// Error is a domain error with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// NotFound
var (
	ErrFeedNotFound   = newErr(KindNotFound, "FEED_NOT_FOUND", "feed not found")
	ErrUserNotFound   = newErr(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrRecordNotFound = newErr(KindNotFound, "RECORD_NOT_FOUND", "record not found")
)

// Forbidden
var (
	ErrForbidden = newErr(KindForbidden, "FORBIDDEN", "not allowed to act on this feed")
)

// Conflict
var (
	ErrUserAlreadyInvited     = newErr(KindConflict, "USER_ALREADY_INVITED", "user is already a contributor of this feed")
	ErrUserNotInvited         = newErr(KindConflict, "USER_NOT_INVITED", "user is not a contributor of this feed")
	ErrConcurrentModification = newErr(KindConflict, "CONCURRENT_MODIFICATION", "records changed while being reordered")
)

// InvalidArgument
var (
	ErrSelfInvitationNotAllowed   = newErr(KindInvalidArgument, "SELF_INVITATION_NOT_ALLOWED", "feed owner cannot invite themselves")
	ErrSelfExpellingNotAllowed    = newErr(KindInvalidArgument, "SELF_EXPELLING_NOT_ALLOWED", "feed owner cannot expel themselves")
	ErrFeedOwnerLeavingNotAllowed = newErr(KindInvalidArgument, "FEED_OWNER_LEAVING_NOT_ALLOWED", "feed owner cannot leave their own feed")
	ErrCrossFeedSwap              = newErr(KindInvalidArgument, "CROSS_FEED_SWAP", "records belong to different feeds")
	ErrCrossDateSwap              = newErr(KindInvalidArgument, "CROSS_DATE_SWAP", "records belong to different dates")
	ErrDateOutOfRange             = newErr(KindInvalidArgument, "DATE_OUT_OF_RANGE", "date is outside the feed's travel window")
	ErrInvalidArgument            = newErr(KindInvalidArgument, "INVALID_ARGUMENT", "invalid argument")
)

// Invalid returns an InvalidArgument error with a custom message. It still
// matches ErrInvalidArgument under errors.Is.
func Invalid(msg string) error {
	return &invalidErr{msg: msg}
}

type invalidErr struct{ msg string }

func (e *invalidErr) Error() string { return e.msg }

func (e *invalidErr) Is(target error) bool { return target == ErrInvalidArgument }

func (e *invalidErr) As(target any) bool {
	if t, ok := target.(**Error); ok {
		*t = &Error{Kind: KindInvalidArgument, Code: ErrInvalidArgument.Code, Message: e.msg}
		return true
	}
	return false
}

// KindOf returns the Kind of err, or KindInternal when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or "INTERNAL".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
