// Package index implements the in-memory hash table that maps a live key
// to the LogPointer describing where its last Set record lives on disk
// (spec §3, §4.C). The index points exclusively at Set records; a Remove
// record evicts the key's entry.
package index

import (
	"sync"

	"go.uber.org/zap"
)

// LogPointer locates exactly one record inside a segment file: which
// file, the byte offset it starts at, and its total length including
// the framing terminator (spec §3).
type LogPointer struct {
	FileID uint64
	Offset uint64
	Length uint64
}

// Index is the engine's in-memory key -> LogPointer map. It is safe for
// concurrent use; callers needing atomicity across multiple operations
// (the engine's single-lock model) still serialize externally.
type Index struct {
	log     *zap.SugaredLogger
	mu      sync.RWMutex
	entries map[string]LogPointer
}

// New creates an empty Index.
func New(log *zap.SugaredLogger) *Index {
	return &Index{log: log, entries: make(map[string]LogPointer, 1024)}
}

// Insert maps key to pointer, returning the pointer it displaced, if any.
func (idx *Index) Insert(key string, pointer LogPointer) (LogPointer, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old, existed := idx.entries[key]
	idx.entries[key] = pointer
	return old, existed
}

// Get returns the pointer for key, if key is currently live.
func (idx *Index) Get(key string) (LogPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	p, ok := idx.entries[key]
	return p, ok
}

// Remove evicts key from the index, returning its prior pointer if any.
func (idx *Index) Remove(key string) (LogPointer, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	p, ok := idx.entries[key]
	if ok {
		delete(idx.entries, key)
	}
	return p, ok
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Range calls fn for every (key, pointer) pair, in unspecified order, as
// required only by the compactor (spec §4.C). fn must not call back into
// the index.
func (idx *Index) Range(fn func(key string, pointer LogPointer)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for k, p := range idx.entries {
		fn(k, p)
	}
}

// Set rewrites key's pointer in place, used by the compactor once it has
// copied the record's bytes to the new segment (spec §4.E step 2c).
func (idx *Index) Set(key string, pointer LogPointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[key] = pointer
}
