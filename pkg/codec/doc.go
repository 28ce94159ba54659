// Package codec provides the order-preserving binary encoding for rowcheck rows.
//
// A row is a fixed three-field tuple: a signed 64-bit sort key, a UTF-8 name
// and a signed 64-bit offset. The encoding is designed so that sorting encoded
// rows as raw bytes sorts them by sort key.
//
// # Row Format
//
// Rows are serialized in a binary format with the following structure:
//
//	[SortKey(8)][NameLen(varint)][Name][Offset(8)]
//
// Fields:
//   - SortKey: the sort key XORed with math.MinInt64 (big-endian)
//   - NameLen: unsigned base-128 varint, least significant group first
//   - Name: NameLen bytes of UTF-8
//   - Offset: the offset XORed with math.MinInt64 (big-endian)
//
// The total row size is: 16 bytes + SizeOfVarString(name). An empty name
// encodes to 17 bytes, a name of 128 bytes or more needs a 2-byte prefix.
//
// # Ordering
//
// Flipping the sign bit maps math.MinInt64..math.MaxInt64 onto
// 0..math.MaxUint64 monotonically, so bytes.Compare over two encodings
// agrees with the numeric order of their sort keys. Rows with equal sort keys
// and equal names order by offset.
//
// # Usage
//
//	c := codec.NewRowCodec()
//
//	encoded, err := c.Encode(codec.RowOf(42, "series", 7))
//	if err != nil {
//	    return err
//	}
//
//	row, err := c.Decode(encoded)
//	if err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Encode fails with an *EncodingError when the name is not valid UTF-8.
// Decode fails with a *DecodingError when the input is truncated, the length
// prefix is malformed, the name is not valid UTF-8 or bytes follow the row.
// Both wrap a sentinel error usable with errors.Is.
//
// # Thread Safety
//
// RowCodec holds no state and every call allocates its own output, so a single
// instance is safe for concurrent use. Row values are immutable.
package codec
