package domain

import "errors"

// Serialization errors. Decoding is strict: a canonical layout has exactly
// one valid byte string per logical value, so anything else is rejected.
var (
	ErrTruncated          = errors.New("domain: truncated input")
	ErrTrailingBytes      = errors.New("domain: trailing bytes")
	ErrInvalidEnumTag     = errors.New("domain: invalid enum tag")
	ErrInvariantViolation = errors.New("domain: invariant violation")
)
