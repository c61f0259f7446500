// Package apperr defines the error families shared by the locker and auth packages.
//
// Three families exist and must not be conflated:
//   - IllegalArgument: a required construction or creation argument is missing or malformed.
//   - IllegalParameter: an operation addressed an id or listener that does not exist.
//   - IllegalState: the addressed entity exists but its current state forbids the operation.
//
// Domain variants (wrong login credentials, too many tokens, expired token) belong
// to one of those families and match it with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies an error family.
type Kind string

const (
	KindIllegalArgument  Kind = "illegal_argument"
	KindIllegalParameter Kind = "illegal_parameter"
	KindIllegalState     Kind = "illegal_state"
)

// Family sentinels. Every *Error matches the sentinel of its family.
var (
	ErrIllegalArgument  = errors.New("illegal argument")
	ErrIllegalParameter = errors.New("illegal parameter")
	ErrIllegalState     = errors.New("illegal state")
)

// Domain variants.
var (
	ErrWrongLoginCredentials = errors.New("wrong login credentials")
	ErrTooManyTokens         = errors.New("too many tokens")
	ErrTokenExpired          = errors.New("token expired")
)

// Error is a classified error carrying a human readable message.
type Error struct {
	Kind    Kind
	Variant error
	Msg     string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is reports whether target is the family sentinel or the variant of e.
func (e *Error) Is(target error) bool {
	if e.Variant != nil && target == e.Variant {
		return true
	}
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindIllegalArgument:
		return ErrIllegalArgument
	case KindIllegalParameter:
		return ErrIllegalParameter
	case KindIllegalState:
		return ErrIllegalState
	}
	return nil
}

// IllegalArgument builds an invalid-input error.
func IllegalArgument(format string, args ...any) error {
	return &Error{Kind: KindIllegalArgument, Msg: fmt.Sprintf(format, args...)}
}

// IllegalParameter builds an invalid-reference error.
func IllegalParameter(format string, args ...any) error {
	return &Error{Kind: KindIllegalParameter, Msg: fmt.Sprintf(format, args...)}
}

// IllegalState builds an invalid-transition error.
func IllegalState(format string, args ...any) error {
	return &Error{Kind: KindIllegalState, Msg: fmt.Sprintf(format, args...)}
}

// WrongLoginCredentials is the login failure variant of IllegalArgument.
func WrongLoginCredentials(format string, args ...any) error {
	return &Error{Kind: KindIllegalArgument, Variant: ErrWrongLoginCredentials, Msg: fmt.Sprintf(format, args...)}
}

// TooManyTokens is the duplicate-token variant of IllegalState.
func TooManyTokens(format string, args ...any) error {
	return &Error{Kind: KindIllegalState, Variant: ErrTooManyTokens, Msg: fmt.Sprintf(format, args...)}
}

// TokenExpired is the expired-credential variant of IllegalState.
func TokenExpired(format string, args ...any) error {
	return &Error{Kind: KindIllegalState, Variant: ErrTokenExpired, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the family of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
