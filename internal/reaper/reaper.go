// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package reaper hosts the long-lived background driver that every scheduled
// execution is enrolled with. The driver awaits each execution's resolution
// and surfaces terminal logging. Tokens signal the driver by message passing
// instead of spawning watchers from inside their state-mutation critical
// section.
//
// The driver is started at most once per Reaper, on first enrollment.
package reaper

import (
	"context"
	"sync"

	"github.com/matt-FFFFFF/runway/internal/ctxlog"
)

// Execution is the part of a scheduled execution the reaper needs: a
// resolution signal and a one-line description of the terminal state.
type Execution interface {
	Done() <-chan struct{}
	Summary() string
}

// Reaper runs the driver loop. The zero value is not usable; use New.
type Reaper struct {
	executions chan Execution
	quit       chan struct{}
	startOnce  sync.Once
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// New creates a stopped reaper. The driver starts on the first Enroll.
func New() *Reaper {
	return &Reaper{
		executions: make(chan Execution, 64),
		quit:       make(chan struct{}),
	}
}

// Enroll hands an execution to the driver, starting the driver if this is the
// first enrollment. It never blocks on the execution itself.
func (r *Reaper) Enroll(ctx context.Context, ex Execution) {
	r.startOnce.Do(func() {
		r.wg.Add(1)

		go r.run(ctx)
	})

	select {
	case r.executions <- ex:
	case <-r.quit:
	}
}

// Close stops the driver and waits for its watchers to unwind.
// Executions already resolved keep their results; Close never cancels them.
func (r *Reaper) Close() {
	r.closeOnce.Do(func() {
		close(r.quit)
	})
	r.wg.Wait()
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ctxlog.Debug(ctx, "reaper driver started")

	for {
		select {
		case ex := <-r.executions:
			r.wg.Add(1)

			go r.watch(ctx, ex)
		case <-r.quit:
			return
		}
	}
}

func (r *Reaper) watch(ctx context.Context, ex Execution) {
	defer r.wg.Done()

	select {
	case <-ex.Done():
		ctxlog.Debug(ctx, "execution settled", "summary", ex.Summary())
	case <-r.quit:
	}
}

var defaultReaper = New()

// Default returns the process-wide reaper used by tokens that were not given
// their own.
func Default() *Reaper {
	return defaultReaper
}
