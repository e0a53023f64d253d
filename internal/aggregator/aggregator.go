// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package aggregator reduces the outcomes of a dynamically growing set of
// executions to a single tri-state signal: pending, all succeeded, or any
// failed. Failure is sticky: the first failing execution freezes the
// aggregator, and a fresh instance is required for a new batch.
package aggregator

import (
	"sync"
)

// Execution is the aggregator's view of one scheduled runnable.
type Execution interface {
	// Done is closed when the execution resolves.
	Done() <-chan struct{}
	// Terminated reports resolution by cancellation; terminated executions
	// count as neither success nor failure.
	Terminated() bool
	// Failed reports an unsuccessful outcome. Only valid once Done is closed.
	Failed() bool
}

// Status is the aggregate state of the batch.
type Status int

const (
	// StatusNeverStarted means no execution has ever been registered.
	StatusNeverStarted Status = iota
	// StatusPending means executions are underway and none has failed.
	StatusPending
	// StatusAllSucceeded means every registered execution succeeded.
	StatusAllSucceeded
	// StatusAnyFailed means at least one execution failed. It is terminal.
	StatusAnyFailed
)

// String implements the Stringer interface for Status.
func (s Status) String() string {
	switch s {
	case StatusNeverStarted:
		return "never started"
	case StatusPending:
		return "pending"
	case StatusAllSucceeded:
		return "all succeeded"
	case StatusAnyFailed:
		return "any failed"
	default:
		return "unknown"
	}
}

// Aggregator multiplexes an open-ended set of executions into one status.
// The zero value is not usable; use New. Push and Status are safe for
// concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	armed   bool
	current *bool // nil=pending, true=all succeeded, false=any failed
	pending []Execution
	frozen  bool

	notify chan struct{}
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// New creates an idle aggregator. The event loop is armed by the first Push.
func New() *Aggregator {
	return &Aggregator{
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Push registers a new execution. A fresh pending job always clears a prior
// success reading. Pushes after the aggregator froze on a failure are
// accepted but never processed.
func (a *Aggregator) Push(ex Execution) {
	a.mu.Lock()

	first := !a.armed
	a.armed = true

	if !a.frozen {
		// A new arrival resets the status to pending.
		a.current = nil
	}

	a.pending = append(a.pending, ex)
	a.mu.Unlock()

	if first {
		go a.loop()
	}

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Status returns the aggregate state of the batch.
func (a *Aggregator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case !a.armed:
		return StatusNeverStarted
	case a.current == nil:
		return StatusPending
	case *a.current:
		return StatusAllSucceeded
	default:
		return StatusAnyFailed
	}
}

// Close stops the event loop. It does not cancel registered executions.
func (a *Aggregator) Close() {
	a.once.Do(func() {
		close(a.quit)
	})
}

// Done returns a channel closed when the event loop has exited, either via
// Close or by freezing on the first failure. It is nil-safe only through New.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

func (a *Aggregator) loop() {
	defer close(a.done)

	outstanding := 0
	completions := make(chan Execution)

	for {
		select {
		case <-a.notify:
			for _, ex := range a.drainPending() {
				outstanding++

				go func(ex Execution) {
					select {
					case <-ex.Done():
					case <-a.quit:
						return
					}

					select {
					case completions <- ex:
					case <-a.quit:
					}
				}(ex)
			}

		case ex := <-completions:
			outstanding--

			switch {
			case ex.Terminated():
				// Neither success nor failure; it just leaves the set.
			case ex.Failed():
				a.fail()

				return
			case outstanding == 0 && !a.hasPending():
				a.setStatus(true)
			}

		case <-a.quit:
			return
		}
	}
}

func (a *Aggregator) drainPending() []Execution {
	a.mu.Lock()
	defer a.mu.Unlock()

	batch := a.pending
	a.pending = nil

	return batch
}

func (a *Aggregator) hasPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.pending) > 0
}

func (a *Aggregator) setStatus(succeeded bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		return
	}

	a.current = &succeeded
}

// fail records the terminal failure and freezes in a single critical section,
// so a concurrent Push can never observe the failure written but the
// aggregator not yet frozen and reset the status back to pending.
func (a *Aggregator) fail() {
	failed := false

	a.mu.Lock()
	a.current = &failed
	a.frozen = true
	a.mu.Unlock()

	// Unblock completion forwarders; their sends are no longer consumed.
	a.Close()
}
