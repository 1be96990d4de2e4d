// Package engine implements the database engine: the coordinator that
// ties together the in-memory index, the on-disk segment storage, and
// inline compaction behind a simple Set/Get/Remove contract (spec §4).
//
// The engine serializes every operation behind a single exclusive lock
// (spec §5): Set, Get, Remove, and a compaction pass never run
// concurrently with one another. This trades read parallelism for a
// much simpler crash-safety and compaction story, matching the
// reference implementation's single-writer design.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/iamNilotpal/kvs/internal/compaction"
	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/record"
	"github.com/iamNilotpal/kvs/internal/storage"
	pkgerrors "github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/filesys"
	"github.com/iamNilotpal/kvs/pkg/options"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on
// a closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// ErrKeyNotFound is returned by Get and Remove when the key has no live
// value (spec §4.B).
var ErrKeyNotFound = errors.New("key not found")

// markerFile is the name of the per-data-directory file recording which
// engine variant owns it (spec §6).
const markerFile = "engine"

// Engine is the main database engine that coordinates the index,
// storage, and compaction subsystems behind a single lock.
type Engine struct {
	mu sync.Mutex

	opts       *options.Options
	log        *zap.SugaredLogger
	closed     atomic.Bool
	index      *index.Index
	storage    *storage.Storage
	compaction *compaction.Compactor

	deadBytes uint64
}

// Config holds the parameters needed to open an Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// Open initializes the index subsystem first since it has no external
// dependencies, the compaction subsystem next since it too has no
// state of its own, and the storage subsystem last since it has the
// most complex setup: it must discover and replay every segment on disk
// before the engine can serve a single request.
func Open(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("engine: invalid configuration")
	}

	if err := CheckEngineMarker(config.Options.DataDir, config.Options.Engine); err != nil {
		return nil, err
	}

	idx := index.New(config.Logger)
	compactor := compaction.New(config.Logger)

	store, err := storage.Open(&storage.Config{
		Dir:    config.Options.DataDir,
		Logger: config.Logger,
		Opts:   config.Options,
	})
	if err != nil {
		return nil, err
	}

	deadBytes, err := store.Replay(idx)
	if err != nil {
		store.Close()
		return nil, err
	}

	e := &Engine{
		opts:       config.Options,
		log:        config.Logger,
		index:      idx,
		storage:    store,
		compaction: compactor,
		deadBytes:  deadBytes,
	}

	config.Logger.Infow(
		"engine opened", "dataDir", config.Options.DataDir,
		"liveKeys", idx.Len(), "deadBytes", deadBytes,
	)
	return e, nil
}

// CheckEngineMarker enforces that a data directory is only ever opened
// with the engine variant it was created with (spec §6): a fresh
// directory gets stamped with engine, an existing one must match. It is
// exported so internal/sledengine can apply the same check at its own
// Open, since the marker lives at the data-directory level and applies
// regardless of which engine variant is opening it.
func CheckEngineMarker(dataDir, engine string) error {
	path := filepath.Join(dataDir, markerFile)

	exists, err := filesys.Exists(path)
	if err != nil {
		return pkgerrors.NewStorageError(err, pkgerrors.ErrorCodeIO, "failed to check engine marker").WithPath(path)
	}

	if !exists {
		if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
			return pkgerrors.NewStorageError(err, pkgerrors.ErrorCodeIO, "failed to create data directory").WithPath(dataDir)
		}
		if err := filesys.WriteFile(path, 0644, []byte(engine)); err != nil {
			return pkgerrors.NewStorageError(err, pkgerrors.ErrorCodeIO, "failed to write engine marker").WithPath(path)
		}
		return nil
	}

	got, err := filesys.ReadFile(path)
	if err != nil {
		return pkgerrors.NewStorageError(err, pkgerrors.ErrorCodeIO, "failed to read engine marker").WithPath(path)
	}
	if string(got) != engine {
		return pkgerrors.NewInvalidConfigError(
			"engine", fmt.Sprintf("data directory was created with engine %q, not %q", got, engine), engine,
		)
	}
	return nil
}

// Set stores value under key, triggering an inline compaction pass if
// the dead-byte count has crossed CompactionThreshold (spec §4.D).
func (e *Engine) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}

	ptr, err := e.storage.Append(record.Set(key, value))
	if err != nil {
		return err
	}

	if old, existed := e.index.Insert(key, ptr); existed {
		e.deadBytes += old.Length
	}

	return e.maybeCompact()
}

// Get returns the current value for key, or ErrKeyNotFound.
func (e *Engine) Get(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return "", ErrEngineClosed
	}

	ptr, ok := e.index.Get(key)
	if !ok {
		return "", ErrKeyNotFound
	}

	rec, err := e.storage.Read(ptr)
	if err != nil {
		return "", err
	}
	if rec.Kind != record.KindSet {
		return "", pkgerrors.NewStorageError(nil, pkgerrors.ErrorCodeSegmentCorrupted, "index points at a non-Set record").
			WithSegmentID(ptr.FileID).WithOffset(ptr.Offset)
	}
	return rec.Value, nil
}

// Remove deletes key, or returns ErrKeyNotFound if it has no live value.
func (e *Engine) Remove(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}

	old, ok := e.index.Get(key)
	if !ok {
		return ErrKeyNotFound
	}

	ptr, err := e.storage.Append(record.Remove(key))
	if err != nil {
		return err
	}

	e.index.Remove(key)
	e.deadBytes += old.Length + ptr.Length

	return e.maybeCompact()
}

// maybeCompact runs a compaction pass if accumulated dead bytes cross
// the configured threshold. Callers must hold e.mu.
func (e *Engine) maybeCompact() error {
	if e.deadBytes <= e.opts.CompactionThreshold {
		return nil
	}

	e.log.Infow("compaction threshold crossed", "deadBytes", e.deadBytes, "threshold", e.opts.CompactionThreshold)
	if _, _, err := e.compaction.Compact(e.storage, e.index); err != nil {
		return err
	}
	e.deadBytes = 0
	return nil
}

// Close shuts down the engine, flushing and closing every open segment.
// Only the first call performs the shutdown; subsequent calls return
// ErrEngineClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.storage.Close()
}
