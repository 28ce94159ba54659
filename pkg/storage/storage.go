// Package storage persists encoded rows in a pebble database so that rows can
// be read back in raw key order.
package storage

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/rowcheck/pkg/codec"
)

// ErrRowNotFound is returned by Get when the row is not stored.
var ErrRowNotFound = errors.New("row not found")

// Options configures a RowStore.
type Options struct {
	// InMemory keeps the database in an in-memory filesystem; Dir is ignored.
	InMemory bool
	Dir      string
}

// RowStore maps the encoding of each row to the ID of the attempt that wrote it.
type RowStore struct {
	db    *pebble.DB
	codec *codec.RowCodec
	dir   string
}

// Open creates or opens a row store.
func Open(opts Options) (*RowStore, error) {
	pebbleOpts := &pebble.Options{}
	dir := opts.Dir
	if opts.InMemory {
		pebbleOpts.FS = vfs.NewMem()
		dir = ""
	} else if dir == "" {
		return nil, errors.New("storage: directory is required for an on-disk store")
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open %q", dir)
	}
	return &RowStore{db: db, codec: codec.NewRowCodec(), dir: dir}, nil
}

// Put stores row under its encoding and returns the key used.
func (s *RowStore) Put(attempt ksuid.KSUID, row codec.Row) ([]byte, error) {
	key, err := s.codec.Encode(row)
	if err != nil {
		return nil, errors.Wrap(err, "storage: put")
	}
	if err := s.db.Set(key, attempt.Bytes(), pebble.NoSync); err != nil {
		return nil, errors.Wrap(err, "storage: put")
	}
	return key, nil
}

// Get returns the attempt that stored row.
func (s *RowStore) Get(row codec.Row) (ksuid.KSUID, error) {
	key, err := s.codec.Encode(row)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "storage: get")
	}

	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return ksuid.Nil, ErrRowNotFound
	}
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "storage: get")
	}
	defer closer.Close()

	id, err := ksuid.FromBytes(data)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "storage: corrupt attempt id")
	}
	return id, nil
}

// Delete removes row from the store.
func (s *RowStore) Delete(row codec.Row) error {
	key, err := s.codec.Encode(row)
	if err != nil {
		return errors.Wrap(err, "storage: delete")
	}
	return s.db.Delete(key, pebble.NoSync)
}

// Scan calls fn for every stored row in ascending key order. A non-nil error
// from fn stops the scan and is returned.
func (s *RowStore) Scan(fn func(row codec.Row, attempt ksuid.KSUID) error) error {
	return s.scan(&pebble.IterOptions{}, fn)
}

// ScanSortKeys calls fn for every stored row whose sort key lies in [from, to),
// in ascending key order.
func (s *RowStore) ScanSortKeys(from, to int64, fn func(row codec.Row, attempt ksuid.KSUID) error) error {
	if from >= to {
		return nil
	}

	lower := make([]byte, codec.KeySize)
	upper := make([]byte, codec.KeySize)
	codec.EncodeOrderedInt64(lower, from)
	codec.EncodeOrderedInt64(upper, to)

	return s.scan(&pebble.IterOptions{LowerBound: lower, UpperBound: upper}, fn)
}

func (s *RowStore) scan(opts *pebble.IterOptions, fn func(row codec.Row, attempt ksuid.KSUID) error) error {
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return errors.Wrap(err, "storage: scan")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		row, err := s.codec.Decode(iter.Key())
		if err != nil {
			return errors.Wrapf(err, "storage: decode key %x", iter.Key())
		}
		id, err := ksuid.FromBytes(iter.Value())
		if err != nil {
			return errors.Wrap(err, "storage: corrupt attempt id")
		}
		if err := fn(row, id); err != nil {
			return err
		}
	}

	return iter.Error()
}

// Count returns the number of stored rows.
func (s *RowStore) Count() (int, error) {
	n := 0
	err := s.Scan(func(codec.Row, ksuid.KSUID) error {
		n++
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (s *RowStore) Close() error {
	return s.db.Close()
}

// Destroy closes the store and removes its directory if it is on disk.
func (s *RowStore) Destroy() error {
	if err := s.Close(); err != nil {
		return err
	}
	if s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}
