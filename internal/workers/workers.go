// Package workers runs functions on goroutines and waits for them.
package workers

import (
	"golang.org/x/sync/errgroup"
)

// Global is the unbounded worker for background work that outlives a request.
var Global = NewWorker(0)

// Worker runs functions concurrently, at most limit at a time.
//
// Functions do not return errors: each one records its own outcome,
// so a failing function never stops its siblings.
type Worker struct {
	group *errgroup.Group
}

// NewWorker creates a Worker. A limit below 1 means no limit.
func NewWorker(limit int) *Worker {
	group := &errgroup.Group{}
	if limit > 0 {
		group.SetLimit(limit)
	}

	return &Worker{group: group}
}

// Go runs fn on a new goroutine, blocking while the worker is at its limit.
func (w *Worker) Go(fn func()) {
	w.group.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every function started by Go has returned.
func (w *Worker) Wait() {
	_ = w.group.Wait()
}
