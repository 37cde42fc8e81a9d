// Package readererr defines the error-kind vocabulary shared across the
// image-serving core.
package readererr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories the core can surface. These are
// kinds, not concrete types, matching a short closed vocabulary rather
// than an open hierarchy of error structs.
type Kind string

const (
	NotFound         Kind = "not-found"
	Unsupported      Kind = "unsupported"
	SourceUnreadable Kind = "source-unreadable"
	BadDimensions    Kind = "bad-dimensions"
	EmptyImage       Kind = "empty-image"
	DecodeFailed     Kind = "decode-failed"
	ICCFailed        Kind = "icc-failed"
	CacheAliasing    Kind = "cache-aliasing"
	DiskError        Kind = "disk-error"
	StateInvariant   Kind = "state-invariant"
)

// Error carries a Kind alongside a short, non-localized message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Kind == e.Kind
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
