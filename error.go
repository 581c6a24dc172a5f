package avenum

import (
	"fmt"
	"strings"
)

// ErrNoMatchingVariant is the error returned by Decode when no reserved key
// in a document selects a variant.
type ErrNoMatchingVariant struct {
	// Rejected lists the reserved keys that were present but whose values did
	// not parse as the matching payload shape, in priority order.
	Rejected []string
}

func (e ErrNoMatchingVariant) Error() string {
	if len(e.Rejected) == 0 {
		return "no variant key found in document"
	}
	return fmt.Sprintf("no variant matched document (rejected keys: %s)", strings.Join(e.Rejected, ", "))
}

// ErrInvalidDocument is the error returned when the input cannot be read as a
// keyed document at all, e.g. malformed JSON text or a non-object value.
type ErrInvalidDocument struct {
	Err error
}

func (e ErrInvalidDocument) Error() string {
	return fmt.Sprintf("invalid document: %v", e.Err)
}

func (e ErrInvalidDocument) Unwrap() error { return e.Err }

// ErrAmbiguousDocument is the error returned in exclusive mode (see [Config])
// when a document populates more than one reserved key.
type ErrAmbiguousDocument struct {
	Keys []string
}

func (e ErrAmbiguousDocument) Error() string {
	return fmt.Sprintf("document has %d variant keys (%s), want exactly one", len(e.Keys), strings.Join(e.Keys, ", "))
}

// ErrNilVariant is the error returned by Encode when given a nil Variant
type ErrNilVariant struct{}

func (ErrNilVariant) Error() string { return "cannot encode nil variant" }

// ErrMissingField reports a required member absent from a record payload.
// Decode treats it as a shape mismatch.
type ErrMissingField struct {
	Field string
}

func (e ErrMissingField) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}
