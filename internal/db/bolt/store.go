// Package bolt implements db.Store on an embedded bbolt file, for single-node and CLI use.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/cvmatch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

var bucketKV = []byte("kv")

// Store implements db.Store with one bbolt bucket.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the bolt file at path.
func Open(path string) (*Store, error) {
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKV); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketKV, err)
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}

	return &Store{db: bdb}, nil
}

// Ping reports whether the file is still open.
func (s *Store) Ping(_ context.Context) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketKV) == nil {
			return fmt.Errorf("bucket %s missing", bucketKV)
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the file.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns immediately: an opened bolt file is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key. The returned slice is a copy.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketKV).Get([]byte(key)); v != nil {
			out, found = bytes.Clone(v), true
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if !found {
		return nil, db.ErrKeyNotFound
	}
	return out, nil
}

// MGet retrieves several values in one transaction. Missing keys yield nil entries.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(keys))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		for i, k := range keys {
			if v := b.Get([]byte(k)); v != nil {
				out[i] = bytes.Clone(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketKV).Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return ok, nil
}

// ScanPrefix returns keys starting with prefix, in byte order.
func (s *Store) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketKV).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}
