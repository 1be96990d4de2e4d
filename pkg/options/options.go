// Package options provides data structures and functional options for
// configuring the kvs engine and server: the data directory, the
// compaction threshold, worker pool shape, and the TCP bind address.
package options

import "strings"

// Options configures an engine/server instance.
type Options struct {
	// DataDir is the directory holding segment files and the engine
	// marker file (spec §3, §6).
	DataDir string `json:"dataDir"`

	// CompactionThreshold is the dead-byte threshold that triggers
	// inline compaction (spec §4.D's COMPACTION_THRESHOLD).
	CompactionThreshold uint64 `json:"compactionThreshold"`

	// Addr is the TCP address the server binds, or the client connects to.
	Addr string `json:"addr"`

	// Engine selects the storage engine variant: "kvs" or "sled".
	Engine string `json:"engine"`

	// PoolKind selects the worker-pool implementation (spec §4.F).
	PoolKind PoolKind `json:"poolKind"`

	// PoolSize is the number of workers for pool kinds with a fixed count.
	PoolSize int `json:"poolSize"`
}

// OptionFunc mutates an Options value being constructed.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to its documented default.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.DataDir = dir
		}
	}
}

// WithCompactionThreshold sets the dead-byte threshold that triggers
// inline compaction.
func WithCompactionThreshold(threshold uint64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.CompactionThreshold = threshold
		}
	}
}

// WithAddr sets the TCP address.
func WithAddr(addr string) OptionFunc {
	return func(o *Options) {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			o.Addr = addr
		}
	}
}

// WithEngine selects the storage engine variant.
func WithEngine(engine string) OptionFunc {
	return func(o *Options) {
		engine = strings.TrimSpace(strings.ToLower(engine))
		if engine != "" {
			o.Engine = engine
		}
	}
}

// WithPool selects the worker-pool implementation and its size.
func WithPool(kind PoolKind, size int) OptionFunc {
	return func(o *Options) {
		if kind != "" {
			o.PoolKind = kind
		}
		if size > 0 {
			o.PoolSize = size
		}
	}
}
