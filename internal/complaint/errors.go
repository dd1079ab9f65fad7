package complaint

import (
	"errors"
	"fmt"
)

// Kind classifies registry failures. The values double as stable error codes
// on the HTTP surface and as localization keys.
type Kind string

const (
	KindInvalidNationalID      Kind = "invalid_national_id"
	KindInvalidEnrollmentID    Kind = "invalid_enrollment_id"
	KindEnrollmentNotEligible  Kind = "enrollment_not_eligible"
	KindEligibilityUnavailable Kind = "eligibility_unavailable"
	KindMissingRequiredField   Kind = "missing_required_field"
	KindNotFound               Kind = "not_found"
	KindStore                  Kind = "store_failure"
	KindProtocolExhausted      Kind = "protocol_exhausted"
)

var (
	ErrInvalidNationalID      = errors.New("invalid national id")
	ErrInvalidEnrollmentID    = errors.New("invalid enrollment id")
	ErrEnrollmentNotEligible  = errors.New("enrollment not eligible")
	ErrEligibilityUnavailable = errors.New("eligibility check unavailable")
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrNotFound               = errors.New("complaint not found")
	ErrStore                  = errors.New("complaint store failure")
	ErrProtocolExhausted      = errors.New("protocol allocation exhausted")
)

var sentinels = map[Kind]error{
	KindInvalidNationalID:      ErrInvalidNationalID,
	KindInvalidEnrollmentID:    ErrInvalidEnrollmentID,
	KindEnrollmentNotEligible:  ErrEnrollmentNotEligible,
	KindEligibilityUnavailable: ErrEligibilityUnavailable,
	KindMissingRequiredField:   ErrMissingRequiredField,
	KindNotFound:               ErrNotFound,
	KindStore:                  ErrStore,
	KindProtocolExhausted:      ErrProtocolExhausted,
}

// Error is returned by every Service operation. errors.Is matches it against
// the sentinel of its Kind, and Unwrap exposes the underlying cause if any.
type Error struct {
	Kind  Kind
	Field string
	Err   error
}

func newError(kind Kind, field string, cause error) *Error {
	return &Error{Kind: kind, Field: field, Err: cause}
}

func (e *Error) Error() string {
	msg := sentinels[e.Kind].Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == sentinels[e.Kind]
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsValidation reports whether the failure is user-correctable input.
func (e *Error) IsValidation() bool {
	switch e.Kind {
	case KindInvalidNationalID, KindInvalidEnrollmentID, KindMissingRequiredField:
		return true
	}
	return false
}

// KindOf extracts the Kind of err, or "" when err is not a registry error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
