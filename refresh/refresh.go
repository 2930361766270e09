// This file implements background revalidation for stale-while-revalidate reads.
// The goal is: "Keep data fresh without slowing down reads"

package refresh

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("refresh: queue full")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("refresh: revalidator closed")
)

// Task is one unit of background work, typically "call the loader and store the result".
type Task func()

/*
Revalidator runs refresh tasks on a fixed pool of background workers.

Tasks are queued on a buffered channel. Buffering is important:
- A burst of cache hits can each request a refresh without blocking
- The number of concurrent loader calls stays bounded by the worker count
*/
type Revalidator struct {
	ch chan Task

	// mu guards closed so Submit never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	// wg is used to wait for the workers to finish during shutdown.
	wg sync.WaitGroup
}

// NewRevalidator starts workers goroutines reading from a queue of the given size.
func NewRevalidator(workers, queue int) *Revalidator {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	r := &Revalidator{ch: make(chan Task, queue)}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

/*
Submit queues a task without blocking.
If the queue is full (ErrQueueFull) or the revalidator is closed (ErrClosed),
the task is DROPPED. A skipped refresh only means the caller keeps serving the value it
already has; blocking here would put the loader on the read path.
*/
func (r *Revalidator) Submit(t Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	select {
	case r.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns how many tasks are queued but not yet picked up.
func (r *Revalidator) Pending() int {
	return len(r.ch)
}

func (r *Revalidator) worker() {
	defer r.wg.Done()

	for t := range r.ch {
		t()
	}
}

/*
Close shuts down the revalidator gracefully.
------------------
1. Stop accepting tasks
2. Let the workers drain what is already queued
3. Wait for them to exit

Calling Close more than once is safe.
*/
func (r *Revalidator) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	r.wg.Wait()
}
