package loyalty

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes of the client. None of them is ever
// returned to callers of AddCustomer as a hard failure; they ride along in
// Result.Err.
type Kind string

const (
	KindTokenMissing Kind = "token_missing"
	KindParseFailure Kind = "parse_failure"
	KindWriteFailure Kind = "write_failure"
	KindTransport    Kind = "transport"
	KindConfig       Kind = "config"
	KindStore        Kind = "store"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrapErr(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func newErr(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind reports whether the first *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}
