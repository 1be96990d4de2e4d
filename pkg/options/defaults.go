package options

import "time"

const (
	// DefaultDataDir is the base directory used when none is supplied.
	DefaultDataDir = "kvs-data"

	// DefaultCompactionThreshold is the reference COMPACTION_THRESHOLD
	// from spec §4.D: dead bytes beyond this trigger inline compaction.
	DefaultCompactionThreshold uint64 = 1 << 20 // 1 MiB

	// DefaultAddr is the TCP bind/connect address (spec §6).
	DefaultAddr = "127.0.0.1:4000"

	// DefaultEngine is the engine variant selected when none is given.
	DefaultEngine = "kvs"

	// DefaultPoolKind selects the worker pool implementation (spec §4.F).
	DefaultPoolKind = PoolShared

	// DefaultPoolSize is the number of workers for pool kinds that use a
	// fixed worker count.
	DefaultPoolSize = 4

	// DefaultAcceptPollInterval is the deadline the accept loop gives
	// each accept attempt before rechecking the shutdown flag (spec §5).
	DefaultAcceptPollInterval = time.Millisecond
)

// PoolKind selects one of the three worker-pool implementations spec
// §4.F requires.
type PoolKind string

const (
	PoolNaive    PoolKind = "naive"
	PoolShared   PoolKind = "shared-queue"
	PoolExternal PoolKind = "external"
)

var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	CompactionThreshold: DefaultCompactionThreshold,
	Addr:                DefaultAddr,
	Engine:              DefaultEngine,
	PoolKind:            DefaultPoolKind,
	PoolSize:            DefaultPoolSize,
}

// NewDefaultOptions returns the reference configuration for the engine
// and server.
func NewDefaultOptions() Options {
	return defaultOptions
}
