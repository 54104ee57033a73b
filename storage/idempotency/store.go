// Package idempotency caches responses of mutating RPC calls so a retried
// request with the same Idempotency-Key replays instead of re-executing.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketResponses = []byte("responses")

// ErrKeyReused is returned when a key is presented with a different request body.
var ErrKeyReused = errors.New("idempotency: key reused with a different request")

// Record is a cached response envelope.
type Record struct {
	Method      string    `json:"method"`
	RequestHash string    `json:"requestHash"`
	StatusCode  int       `json:"statusCode"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"storedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Store persists records in a bbolt file.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("idempotency: create dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("idempotency: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResponses)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Key derives the storage key for a client-supplied idempotency key.
func Key(method, clientKey string) string {
	sum := sha256.Sum256([]byte(method + "|" + clientKey))
	return hex.EncodeToString(sum[:])
}

// RequestHash fingerprints a request body.
func RequestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Get returns the live record for key. Expired records are deleted. A record
// stored for a different request hash yields ErrKeyReused.
func (s *Store) Get(key, requestHash string, now time.Time) (Record, bool, error) {
	var (
		record Record
		found  bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketResponses)
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return err
		}
		if now.After(record.ExpiresAt) {
			record = Record{}
			return bucket.Delete([]byte(key))
		}
		found = true
		return nil
	})
	if err != nil {
		return Record{}, false, err
	}
	if !found {
		return Record{}, false, nil
	}
	if record.RequestHash != requestHash {
		return Record{}, false, ErrKeyReused
	}
	return record, true, nil
}

// Put stores record under key.
func (s *Store) Put(key string, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).Put([]byte(key), payload)
	})
}
