// Package sledengine implements the "sled" storage-engine variant named
// in spec §6's --engine flag: a pluggable alternative to the bespoke
// log-structured engine, backed by go.etcd.io/bbolt rather than a
// hand-rolled append log. It satisfies the same Set/Get/Remove contract
// as internal/engine so the server can run against either one
// uniformly.
package sledengine

import (
	"errors"
	"path/filepath"

	"github.com/iamNilotpal/kvs/internal/engine"
	"go.etcd.io/bbolt"
)

// ErrKeyNotFound is returned by Get and Remove when the key has no
// live value, mirroring internal/engine.ErrKeyNotFound.
var ErrKeyNotFound = errors.New("key not found")

var bucketName = []byte("kvs")

// Engine wraps a single bbolt database file under dataDir, using one
// bucket as the key/value namespace.
type Engine struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the bbolt database at
// <dataDir>/sled.db. Like internal/engine.Open, it checks and stamps the
// data directory's engine marker file first (spec §6): the marker lives
// at the data-directory level and must reject a variant mismatch no
// matter which engine is opening it.
func Open(dataDir string) (*Engine, error) {
	if err := engine.CheckEngineMarker(dataDir, "sled"); err != nil {
		return nil, err
	}

	path := filepath.Join(dataDir, "sled.db")

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Engine{db: db}, nil
}

// Set stores value under key.
func (e *Engine) Set(key, value string) error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (e *Engine) Get(key string) (string, error) {
	var value string
	var found bool

	err := e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			found = true
			value = string(v)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Remove deletes key, or returns ErrKeyNotFound if it has no stored value.
func (e *Engine) Remove(key string) error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return ErrKeyNotFound
		}
		return b.Delete([]byte(key))
	})
}

// Delete removes key; an alias for Remove so Engine satisfies the same
// Set/Get/Delete shape the server dispatches against regardless of
// which engine variant is active.
func (e *Engine) Delete(key string) error {
	return e.Remove(key)
}

// Close releases the underlying database file.
func (e *Engine) Close() error {
	return e.db.Close()
}
