// Package store adapts the embedded bbolt key-value store to the four
// operations spec.md §4.1 requires: put/get/del/count over an opaque
// ordered byte-to-byte map. No process-wide global is used — callers must
// open a Store and thread the handle through worker construction, unlike
// this project's Rust ancestor's lazy_static singleton (spec §9).
package store

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("modules")

// Store wraps a single bbolt database file holding one bucket of module
// records keyed by identifier.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt file at path and ensures the
// modules bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes value under key. After Put returns, a subsequent Get(key) in
// any caller observes this value or a later write, since bbolt commits are
// fsync'd on transaction commit.
func (s *Store) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

// Get returns the value stored under key and ok=true, or ok=false if absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			// bbolt's returned slice is only valid for the transaction's
			// lifetime; copy it out.
			value = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	return value, ok, err
}

// Delete removes key. A subsequent Get(key) observes absent or a later
// write.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

// Count returns the number of keys currently in the bucket via full-range
// iteration, a best-effort point-in-time count.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}
