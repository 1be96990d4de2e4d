package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ExternalPool delegates scheduling to golang.org/x/sync/errgroup with
// SetLimit, the proven-library option spec §4.F calls out as an
// alternative to hand-rolling a pool.
type ExternalPool struct {
	group *errgroup.Group
}

// NewExternalPool builds an ExternalPool capping concurrency at size.
func NewExternalPool(size int) *ExternalPool {
	g, _ := errgroup.WithContext(context.Background())
	if size > 0 {
		g.SetLimit(size)
	}
	return &ExternalPool{group: g}
}

// Submit schedules task on the errgroup, recovering panics into an
// error so one failing task doesn't take down the group's wait. When
// size tasks are already running, Submit blocks until one finishes.
func (p *ExternalPool) Submit(task func()) {
	p.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pool: task panicked: %v", r)
			}
		}()
		task()
		return nil
	})
}

// Close waits for every submitted task to finish.
func (p *ExternalPool) Close() error {
	return p.group.Wait()
}
