// Package vecerr defines the error taxonomy shared by the store, the
// embedding layer, the search engine and the HTTP surface. Every failure
// carries a stable Kind that callers can check with errors.Is or KindOf,
// plus a human-readable detail string.
package vecerr

import (
	"errors"
	"fmt"
)

// Kind is a machine-checkable error category.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindProvider             Kind = "provider"
	KindStorage              Kind = "storage"
	KindResourceLimit        Kind = "resource_limit"
	KindExtensionUnavailable Kind = "extension_unavailable"
)

var (
	// ErrValidation matches malformed or out-of-range caller input.
	ErrValidation = errors.New("validation error")
	// ErrProvider matches embedding computation failures.
	ErrProvider = errors.New("provider error")
	// ErrStorage matches durable-store I/O or integrity failures.
	ErrStorage = errors.New("storage error")
	// ErrResourceLimit matches fallback scans refused by the row ceiling.
	ErrResourceLimit = errors.New("resource limit exceeded")
	// ErrExtensionUnavailable matches a missing native distance function.
	ErrExtensionUnavailable = errors.New("vector extension unavailable")
)

var sentinels = map[Kind]error{
	KindValidation:           ErrValidation,
	KindProvider:             ErrProvider,
	KindStorage:              ErrStorage,
	KindResourceLimit:        ErrResourceLimit,
	KindExtensionUnavailable: ErrExtensionUnavailable,
}

// Error is a categorized failure.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, op string, err error, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

// Validation reports malformed caller input.
func Validation(op, format string, args ...any) error {
	return newError(KindValidation, op, nil, format, args...)
}

// Provider reports an embedding failure, wrapping err when non-nil.
func Provider(op string, err error, format string, args ...any) error {
	return newError(KindProvider, op, err, format, args...)
}

// Storage wraps a storage-engine failure.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindStorage {
		return err
	}
	return newError(KindStorage, op, err, "")
}

// ResourceLimit reports a refused operation that would exceed a configured ceiling.
func ResourceLimit(op, format string, args ...any) error {
	return newError(KindResourceLimit, op, nil, format, args...)
}

// ExtensionUnavailable reports that no native distance function could be used.
func ExtensionUnavailable(op, format string, args ...any) error {
	return newError(KindExtensionUnavailable, op, nil, format, args...)
}

// KindOf returns the category of err, or "" when err is not categorized.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// DetailOf returns the human-readable detail of a categorized error, or
// err.Error() otherwise.
func DetailOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Detail != "" && e.Err != nil {
			return e.Detail + ": " + e.Err.Error()
		}
		if e.Detail != "" {
			return e.Detail
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	return err.Error()
}
