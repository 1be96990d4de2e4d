// Package kvs is the public entry point for the key/value store: a
// high-throughput, crash-safe engine combining an in-memory index with
// an append-only log on disk, in the spirit of Bitcask. It wraps the
// internal engine with input validation and a logger/options bootstrap,
// and is what both the standalone server and any embedding application
// should import.
package kvs

import (
	"strings"

	"github.com/iamNilotpal/kvs/internal/engine"
	pkgerrors "github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/logger"
	"github.com/iamNilotpal/kvs/pkg/options"
)

// Store is the primary handle applications use to read and write the
// data directory it was opened against.
type Store struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates or resumes a Store for the given service name, applying
// any functional options over the documented defaults.
func Open(service string, opts ...options.OptionFunc) (*Store, error) {
	log := logger.New(service)

	resolved := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}

	eng, err := engine.Open(&engine.Config{Logger: log, Options: &resolved})
	if err != nil {
		return nil, err
	}

	return &Store{engine: eng, options: &resolved}, nil
}

// Set stores value under key. Both must be non-empty.
func (s *Store) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.NewRequiredFieldError("key")
	}
	if value == "" {
		return pkgerrors.NewRequiredFieldError("value")
	}
	return s.engine.Set(key, value)
}

// Get retrieves the value currently stored under key.
func (s *Store) Get(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", pkgerrors.NewRequiredFieldError("key")
	}
	return s.engine.Get(key)
}

// Delete removes key. It is an error to delete a key that has no live
// value (spec §4.B).
func (s *Store) Delete(key string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.NewRequiredFieldError("key")
	}
	return s.engine.Remove(key)
}

// Close flushes and closes every open segment, releasing the store.
func (s *Store) Close() error {
	return s.engine.Close()
}
