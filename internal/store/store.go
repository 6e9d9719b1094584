// Package store persists documents and their chapter lists in an
// embedded bbolt database. bbolt serializes update transactions, which
// gives the read-modify-write paths (notably the self-healing chapter
// load) single-writer semantics without extra locking.
package store

import (
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketData     = []byte("data")        // generic key-value surface
	bucketDocs     = []byte("documents")   // document id -> Document JSON
	bucketChapters = []byte("chapters")    // documentChapters_<id> -> []Chapter JSON
	bucketChIndex  = []byte("chapter_ids") // chapter id -> owning document id
	bucketGroups   = []byte("groups")      // group id -> []string JSON
)

// Store wraps the bbolt database.
type Store struct {
	db  *bolt.DB
	log *slog.Logger
}

// Open opens (or creates) the database file and ensures all buckets
// exist.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketData, bucketDocs, bucketChapters, bucketChIndex, bucketGroups} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or nil if absent.
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketData).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// Put stores value under key.
func (s *Store) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketData).Put([]byte(key), value)
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketData).Delete([]byte(key))
	})
}
