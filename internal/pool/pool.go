// Package pool provides the three worker-pool implementations the
// server can dispatch connections through (spec §4.F): a naive pool
// that spawns a goroutine per task, a shared-queue pool of a fixed
// number of long-lived workers draining one mutex-guarded queue, and an external
// pool delegating to golang.org/x/sync/errgroup. All three satisfy the
// same Pool interface so the server is written against the interface
// only.
package pool

// Pool dispatches work. A panicking task never brings down the caller
// or any other in-flight task.
type Pool interface {
	// Submit schedules task to run on another goroutine. NaivePool and
	// SharedQueuePool return immediately; ExternalPool blocks while its
	// concurrency limit is reached, until a running task finishes.
	Submit(task func())

	// Close waits for every task submitted before it to finish. It does
	// not reject later Submit calls.
	Close() error
}

// Kind identifies which Pool implementation to build.
type Kind string

const (
	KindNaive    Kind = "naive"
	KindShared   Kind = "shared-queue"
	KindExternal Kind = "external"
)

// New builds the Pool implementation named by kind, sized for size
// concurrent workers where the implementation uses a fixed count.
func New(kind Kind, size int) Pool {
	switch kind {
	case KindNaive:
		return NewNaivePool()
	case KindExternal:
		return NewExternalPool(size)
	default:
		return NewSharedQueuePool(size)
	}
}
