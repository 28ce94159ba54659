package storage

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/rowcheck/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *RowStore {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func collect(t *testing.T, s *RowStore) []codec.Row {
	t.Helper()
	var rows []codec.Row
	require.NoError(t, s.Scan(func(row codec.Row, _ ksuid.KSUID) error {
		rows = append(rows, row)
		return nil
	}))
	return rows
}

func TestRowStore_PutGet(t *testing.T) {
	s := openMem(t)
	attempt := ksuid.New()
	row := codec.RowOf(7, "series", 3)

	key, err := s.Put(attempt, row)
	require.NoError(t, err)
	assert.Len(t, key, codec.NewRowCodec().EncodedSize(row))

	got, err := s.Get(row)
	require.NoError(t, err)
	assert.Equal(t, attempt, got)

	_, err = s.Get(codec.RowOf(7, "series", 4))
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestRowStore_Delete(t *testing.T) {
	s := openMem(t)
	row := codec.RowOf(1, "a", 1)

	_, err := s.Put(ksuid.New(), row)
	require.NoError(t, err)
	require.NoError(t, s.Delete(row))

	_, err = s.Get(row)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestRowStore_PutInvalidRow(t *testing.T) {
	s := openMem(t)

	_, err := s.Put(ksuid.New(), codec.RowOf(1, "\xff", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrInvalidUTF8)
}

func TestRowStore_ScanOrdersBySortKey(t *testing.T) {
	s := openMem(t)
	attempt := ksuid.New()

	keys := []int64{42, math.MinInt64, -1, 0, math.MaxInt64, -42, 1}
	for _, k := range keys {
		_, err := s.Put(attempt, codec.RowOf(k, "same", 0))
		require.NoError(t, err)
	}

	rows := collect(t, s)
	require.Len(t, rows, len(keys))

	want := []int64{math.MinInt64, -42, -1, 0, 1, 42, math.MaxInt64}
	for i, row := range rows {
		assert.Equal(t, want[i], row.SortKey())
	}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, len(keys), n)
}

func TestRowStore_ScanOrdersByOffsetWithinKey(t *testing.T) {
	s := openMem(t)
	attempt := ksuid.New()

	for _, off := range []int64{5, -5, 0, math.MinInt64} {
		_, err := s.Put(attempt, codec.NewRow("name", off))
		require.NoError(t, err)
	}

	var offsets []int64
	for _, row := range collect(t, s) {
		offsets = append(offsets, row.Offset())
	}
	assert.Equal(t, []int64{math.MinInt64, -5, 0, 5}, offsets)
}

func TestRowStore_ScanSortKeys(t *testing.T) {
	s := openMem(t)
	attempt := ksuid.New()

	for k := int64(-5); k <= 5; k++ {
		_, err := s.Put(attempt, codec.RowOf(k, "r", k))
		require.NoError(t, err)
	}

	var got []int64
	err := s.ScanSortKeys(-2, 3, func(row codec.Row, id ksuid.KSUID) error {
		assert.Equal(t, attempt, id)
		got = append(got, row.SortKey())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{-2, -1, 0, 1, 2}, got)

	called := false
	require.NoError(t, s.ScanSortKeys(3, 3, func(codec.Row, ksuid.KSUID) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestRowStore_ScanStopsOnError(t *testing.T) {
	s := openMem(t)
	for i := int64(0); i < 3; i++ {
		_, err := s.Put(ksuid.New(), codec.RowOf(i, "", 0))
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	seen := 0
	err := s.Scan(func(codec.Row, ksuid.KSUID) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestRowStore_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rows")
	row := codec.RowOf(-9, "disk", 9)
	attempt := ksuid.New()

	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	_, err = s.Put(attempt, row)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	got, err := s.Get(row)
	require.NoError(t, err)
	assert.Equal(t, attempt, got)

	require.NoError(t, s.Destroy())
	assert.NoDirExists(t, dir)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}
