package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUTF8 is returned when a name is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8")
	// ErrTruncated is returned when the input ends before a field is complete.
	ErrTruncated = errors.New("truncated input")
	// ErrMalformedVarint is returned when a length prefix does not terminate or overflows.
	ErrMalformedVarint = errors.New("malformed varint")
	// ErrTrailingBytes is returned by Decode when input remains after the offset field.
	ErrTrailingBytes = errors.New("trailing bytes")
)

// EncodingError reports a Row field that cannot be represented in the wire format.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("codec: encode %s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DecodingError reports malformed input at a byte offset.
type DecodingError struct {
	Offset int
	Err    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("codec: decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
