package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers that need to tell bad input apart from
// infrastructure failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error provides detailed error information
type Error struct {
	Kind    Kind
	Op      string // Operation that failed
	ID      string // Target todo id (if applicable)
	Message string // Caller-facing message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.ID != "" {
		parts = append(parts, fmt.Sprintf("id=%s", e.ID))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStorage    = &Error{Kind: KindStorage}
)

func Validation(op, id, message string) error {
	return &Error{Kind: KindValidation, Op: op, ID: id, Message: message}
}

func NotFound(op, id string) error {
	return &Error{Kind: KindNotFound, Op: op, ID: id, Message: fmt.Sprintf("todo %s not found", id)}
}

// Storage wraps a persistence failure with the operation and target id.
func Storage(op, id string, err error) error {
	return &Error{Kind: KindStorage, Op: op, ID: id, Message: "storage failure", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		if e.Kind == KindStorage && e.Err != nil {
			return fmt.Sprintf("%s (%s %s): %v", e.Message, e.Op, e.ID, e.Err)
		}
		return e.Message
	}
	return err.Error()
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsStorage(err error) bool    { return KindOf(err) == KindStorage }
