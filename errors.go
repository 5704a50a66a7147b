// Copyright (c) 2025 Neomantra Corp

package tagbin

import "fmt"

var (
	ErrTruncated         = fmt.Errorf("tagbin: truncated stream")
	ErrMalformedToken    = fmt.Errorf("tagbin: malformed token")
	ErrTypeMismatch      = fmt.Errorf("tagbin: type mismatch")
	ErrUnknownKeyID      = fmt.Errorf("tagbin: unknown key id")
	ErrUnknownStructID   = fmt.Errorf("tagbin: unknown struct id")
	ErrLimitExceeded     = fmt.Errorf("tagbin: limit exceeded")
	ErrInvalidNesting    = fmt.Errorf("tagbin: invalid nesting")
	ErrUnsupportedTarget = fmt.Errorf("tagbin: unsupported target")
)

func malformedMarkerError(m Marker) error {
	return fmt.Errorf("%w: reserved marker 0x%02X", ErrMalformedToken, byte(m))
}

func malformedVarintError(lead byte) error {
	return fmt.Errorf("%w: varint leading byte 0x%02X out of range", ErrMalformedToken, lead)
}

func errVarintOverflow(value uint32) error {
	return fmt.Errorf("%w: varint value %d exceeds 28-bit range", ErrMalformedToken, value)
}

func unexpectedTokenError(got TokenType, want TokenType) error {
	return fmt.Errorf("%w: expected token %v, got %v", ErrTypeMismatch, want, got)
}

func unknownKeyIDError(id uint32) error {
	return fmt.Errorf("%w: id %d", ErrUnknownKeyID, id)
}

func unknownStructIDError(id uint32) error {
	return fmt.Errorf("%w: id %d", ErrUnknownStructID, id)
}

func limitExceededError(limit string, got, max int) error {
	return fmt.Errorf("%w: %s is %d, max is %d", ErrLimitExceeded, limit, got, max)
}

func endWithoutBeginError() error {
	return fmt.Errorf("%w: END with no open BEGIN_ARRAY/BEGIN_MAP", ErrInvalidNesting)
}

func elementCountMismatchError(want, got int) error {
	return fmt.Errorf("%w: counted collection expected %d elements, got %d", ErrInvalidNesting, want, got)
}

func unboundedIntoCountedError() error {
	return fmt.Errorf("%w: cannot decode an unbounded collection into a counted target", ErrInvalidNesting)
}

func unsupportedDynamicTypeError(v any) error {
	return fmt.Errorf("%w: cannot encode dynamic value of type %T", ErrUnsupportedTarget, v)
}

func malformedDecimalError(s string) error {
	return fmt.Errorf("%w: invalid decimal literal %q", ErrTypeMismatch, s)
}
