package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

const signBit = uint64(1) << 63

// EncodeOrderedInt64 writes v into dst[:8] with the sign bit flipped, most
// significant byte first, so unsigned byte comparison matches signed order.
func EncodeOrderedInt64(dst []byte, v int64) {
	binary.BigEndian.PutUint64(dst, uint64(v)^signBit)
}

// DecodeOrderedInt64 is the inverse of EncodeOrderedInt64.
func DecodeOrderedInt64(src []byte) int64 {
	return int64(binary.BigEndian.Uint64(src) ^ signBit)
}

// SizeOfVarString returns the encoded size of s: the varint length prefix plus
// the UTF-8 payload.
func SizeOfVarString(s string) int {
	return uvarintSize(uint64(len(s))) + len(s)
}

// AppendVarString appends the length-prefixed form of s to dst.
func AppendVarString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// DecodeVarString reads a length-prefixed string from the start of src and
// returns it with the number of bytes consumed. Error offsets are relative to src.
func DecodeVarString(src []byte) (string, int, error) {
	if len(src) == 0 {
		return "", 0, &DecodingError{Offset: 0, Err: ErrTruncated}
	}

	// Uvarint reports 0 for a prefix that never terminates and a negative
	// count for one that overflows 64 bits. Non-minimal forms are rejected so
	// that each row has exactly one encoding.
	n, k := binary.Uvarint(src)
	if k <= 0 || k != uvarintSize(n) {
		return "", 0, &DecodingError{Offset: 0, Err: ErrMalformedVarint}
	}

	if n > math.MaxInt32 || uint64(len(src)-k) < n {
		return "", 0, &DecodingError{Offset: k, Err: ErrTruncated}
	}

	end := k + int(n)
	payload := src[k:end]
	if !utf8.Valid(payload) {
		return "", 0, &DecodingError{Offset: k, Err: ErrInvalidUTF8}
	}

	return string(payload), end, nil
}

func uvarintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
