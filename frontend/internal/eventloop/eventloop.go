// Package eventloop runs UI work on a single goroutine. Blocking work is started
// with Go and its continuation is queued back onto the loop, so state touched by
// continuations never needs locking.
package eventloop

import (
	"context"
	"sync/atomic"
)

const defaultQueueSize = 256

type Loop struct {
	tasks    chan func()
	inflight atomic.Int64
}

func New() *Loop {
	return &Loop{tasks: make(chan func(), defaultQueueSize)}
}

// Go runs work on its own goroutine. The function work returns, if any, runs on the loop.
func (l *Loop) Go(work func() func()) {
	l.inflight.Add(1)
	go func() {
		var cont func()
		defer func() {
			l.tasks <- func() {
				l.inflight.Add(-1)
				if cont != nil {
					cont()
				}
			}
		}()
		cont = work()
	}()
}

// Pending reports how many queued tasks and background jobs have not finished.
func (l *Loop) Pending() int {
	return int(l.inflight.Load())
}

// Settle runs loop tasks on the calling goroutine until nothing is queued or in flight.
// The caller becomes the loop for the duration.
func (l *Loop) Settle() {
	for l.inflight.Load() > 0 {
		task := <-l.tasks
		task()
	}
}

// RunPending runs only the tasks already queued, without waiting for background work.
func (l *Loop) RunPending() int {
	n := 0
	for {
		select {
		case task := <-l.tasks:
			task()
			n++
		default:
			return n
		}
	}
}

// Run serves the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.tasks:
			task()
		}
	}
}
