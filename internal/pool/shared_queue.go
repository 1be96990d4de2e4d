package pool

import (
	"sync"

	"go.uber.org/zap"
)

// SharedQueuePool runs tasks on a fixed number of long-lived worker
// goroutines draining one shared, unbounded FIFO queue (spec §4.F.2).
// The queue is a growable slice guarded by a mutex and condition
// variable, mirroring the reference implementation's mutex+condvar
// design: Submit never blocks the caller, no matter how far workers
// fall behind.
type SharedQueuePool struct {
	log *zap.SugaredLogger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	wg sync.WaitGroup
}

// NewSharedQueuePool starts size workers draining a shared task queue.
func NewSharedQueuePool(size int) *SharedQueuePool {
	return NewSharedQueuePoolWithLogger(size, nil)
}

// NewSharedQueuePoolWithLogger is NewSharedQueuePool with panic logging.
func NewSharedQueuePoolWithLogger(size int, log *zap.SugaredLogger) *SharedQueuePool {
	if size <= 0 {
		size = 1
	}

	p := &SharedQueuePool{log: log}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *SharedQueuePool) worker() {
	defer p.wg.Done()
	for {
		task, ok := p.dequeue()
		if !ok {
			return
		}
		p.run(task)
	}
}

// dequeue blocks until a task is available or the pool has been closed
// and the queue has drained.
func (p *SharedQueuePool) dequeue() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}

	task := p.queue[0]
	p.queue = p.queue[1:]
	return task, true
}

func (p *SharedQueuePool) run(task func()) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.Errorw("worker task panicked", "panic", r)
		}
	}()
	task()
}

// Submit appends task to the queue and returns immediately; it never
// blocks on queue capacity since the queue has none.
func (p *SharedQueuePool) Submit(task func()) {
	p.mu.Lock()
	p.queue = append(p.queue, task)
	p.mu.Unlock()
	p.cond.Signal()
}

// Close waits for every worker to drain the queue and exit. Submit is
// not rejected afterwards: a task queued once the workers have exited
// never runs.
func (p *SharedQueuePool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()

	p.wg.Wait()
	return nil
}
