package codec

import (
	"fmt"
	"unicode/utf16"
)

// Row is the fixed three-field tuple handled by RowCodec. The zero value is a
// valid row with an empty name.
type Row struct {
	sortKey int64
	name    string
	offset  int64
}

// NewRow creates a row whose sort key is derived from name with NameHash.
func NewRow(name string, offset int64) Row {
	return Row{
		sortKey: NameHash(name),
		name:    name,
		offset:  offset,
	}
}

// RowOf creates a row with an explicit sort key.
func RowOf(sortKey int64, name string, offset int64) Row {
	return Row{
		sortKey: sortKey,
		name:    name,
		offset:  offset,
	}
}

// SortKey returns the primary ordering key.
func (r Row) SortKey() int64 { return r.sortKey }

// Name returns the row name.
func (r Row) Name() string { return r.name }

// Offset returns the row offset.
func (r Row) Offset() int64 { return r.offset }

// Equal reports whether all three fields match.
func (r Row) Equal(other Row) bool {
	return r.sortKey == other.sortKey && r.name == other.name && r.offset == other.offset
}

func (r Row) String() string {
	return fmt.Sprintf("Row{sortKey=%d, name=%q, offset=%d}", r.sortKey, r.name, r.offset)
}

// NameHash returns the 32-bit polynomial hash (h = 31*h + c) of the UTF-16
// code units of name, sign-extended to 64 bits.
func NameHash(name string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(name)) {
		h = 31*h + int32(c)
	}
	return int64(h)
}
