package codec

import (
	"errors"
	"unicode/utf8"
)

const (
	// KeySize is the encoded width of the sort key and offset fields.
	KeySize = 8
	// MinEncodedSize is the size of a row with an empty name.
	MinEncodedSize = 2*KeySize + 1
)

// RowCodec serializes rows into the order-preserving wire format:
//
//	[sortKey^MinInt64 (8, big-endian)][uvarint len(name)][name][offset^MinInt64 (8, big-endian)]
type RowCodec struct{}

// NewRowCodec creates a new row codec instance
func NewRowCodec() *RowCodec {
	return &RowCodec{}
}

// EncodedSize returns the exact length of the encoding of r.
func (c *RowCodec) EncodedSize(r Row) int {
	return 2*KeySize + SizeOfVarString(r.name)
}

// Encode serializes r into a newly allocated byte slice.
func (c *RowCodec) Encode(r Row) ([]byte, error) {
	return c.Append(make([]byte, 0, c.EncodedSize(r)), r)
}

// Append appends the encoding of r to dst and returns the extended slice.
// On error dst is returned unchanged.
func (c *RowCodec) Append(dst []byte, r Row) ([]byte, error) {
	if !utf8.ValidString(r.name) {
		return dst, &EncodingError{Field: "name", Err: ErrInvalidUTF8}
	}

	var key [KeySize]byte
	EncodeOrderedInt64(key[:], r.sortKey)
	dst = append(dst, key[:]...)
	dst = AppendVarString(dst, r.name)
	EncodeOrderedInt64(key[:], r.offset)
	dst = append(dst, key[:]...)

	return dst, nil
}

// Decode deserializes a row that occupies all of data.
func (c *RowCodec) Decode(data []byte) (Row, error) {
	r, n, err := c.DecodePrefix(data)
	if err != nil {
		return Row{}, err
	}
	if n != len(data) {
		return Row{}, &DecodingError{Offset: n, Err: ErrTrailingBytes}
	}
	return r, nil
}

// DecodePrefix deserializes a row from the start of data and returns the
// number of bytes it occupied. Bytes after the row are ignored.
func (c *RowCodec) DecodePrefix(data []byte) (Row, int, error) {
	if len(data) < MinEncodedSize {
		return Row{}, 0, &DecodingError{Offset: len(data), Err: ErrTruncated}
	}

	sortKey := DecodeOrderedInt64(data[:KeySize])

	name, n, err := DecodeVarString(data[KeySize:])
	if err != nil {
		var de *DecodingError
		if errors.As(err, &de) {
			de.Offset += KeySize
		}
		return Row{}, 0, err
	}

	pos := KeySize + n
	if len(data)-pos < KeySize {
		return Row{}, 0, &DecodingError{Offset: len(data), Err: ErrTruncated}
	}
	offset := DecodeOrderedInt64(data[pos : pos+KeySize])

	return RowOf(sortKey, name, offset), pos + KeySize, nil
}
