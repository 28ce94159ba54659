package repro

import (
	"fmt"

	"github.com/ssargent/rowcheck/pkg/codec"
)

// RoundTripMismatch reports that decoding an encoded row produced a different
// row. It is never expected from a correct codec and is treated as fatal.
type RoundTripMismatch struct {
	Expected codec.Row
	Actual   codec.Row
	Encoded  []byte
}

func (e *RoundTripMismatch) Error() string {
	return fmt.Sprintf("round trip mismatch: expected %v but found %v (encoded %x)", e.Expected, e.Actual, e.Encoded)
}

// Encoder is the codec surface the harness exercises.
type Encoder interface {
	Encode(r codec.Row) ([]byte, error)
	Decode(data []byte) (codec.Row, error)
}

// RoundTrip encodes row, decodes the result and compares. It returns the
// encoding on success, a *RoundTripMismatch when the rows differ, or the codec
// error.
func RoundTrip(c Encoder, row codec.Row) ([]byte, error) {
	encoded, err := c.Encode(row)
	if err != nil {
		return nil, err
	}

	decoded, err := c.Decode(encoded)
	if err != nil {
		return encoded, err
	}

	if !decoded.Equal(row) {
		return encoded, &RoundTripMismatch{Expected: row, Actual: decoded, Encoded: encoded}
	}
	return encoded, nil
}
