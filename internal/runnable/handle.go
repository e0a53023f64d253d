// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runnable

import (
	"context"
	"fmt"
	"sync"
)

// ExecutionResult is produced exactly once, when a handle resolves normally.
// It is never produced for a cancelled execution.
type ExecutionResult struct {
	// ExitCode is the process exit status. It is -1 when the process never
	// produced one, in which case Error carries the reason.
	ExitCode int
	// Error is a runtime failure reported while awaiting the process, such
	// as a wait error. A non-zero exit code on its own does not set Error.
	Error error
	// Output is the capture pipeline for the execution, if any.
	Output *PendingOutput
}

// Success reports whether the process ran to completion with a zero exit code.
func (r *ExecutionResult) Success() bool {
	return r.Error == nil && r.ExitCode == 0
}

// WaitFunc awaits the underlying process and returns its exit code.
// It must honor cancellation of the context it was created with.
type WaitFunc func() (int, error)

// Handle is a shared, memoized, abortable view of one execution.
// All copies of a Handle pointer observe the same resolution: the first
// completion value is cached and replayed to every waiter, including waiters
// that arrive after completion. Dropping a Handle does not terminate the
// process; only Cancel does, and even then actual process teardown is
// delegated to the spawning context.
type Handle struct {
	label  string
	output *PendingOutput
	cancel context.CancelFunc

	mu         sync.Mutex
	done       chan struct{}
	result     *ExecutionResult
	terminated bool
}

// NewHandle wraps wait in a memoized, abortable future. ctx must be the
// context the underlying process was spawned with and cancel its cancel
// function; Cancel uses it to request cooperative teardown. output may be nil
// for executions that do not capture output.
func NewHandle(ctx context.Context, cancel context.CancelFunc, label string, output *PendingOutput, wait WaitFunc) *Handle {
	h := &Handle{
		label:  label,
		output: output,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		exitCode, err := wait()

		// A cancellation that lands before the process finishes always
		// wins: the handle resolves Terminated, never a status.
		if ctx.Err() != nil {
			h.resolveTerminated()
			return
		}

		h.resolveResult(&ExecutionResult{
			ExitCode: exitCode,
			Error:    err,
			Output:   output,
		})

		// Release the spawn context now that the outcome is cached.
		cancel()
	}()

	return h
}

// Label returns the display name of the execution.
func (h *Handle) Label() string {
	return h.label
}

// Output returns the capture pipeline for this execution, or nil if output is
// not captured.
func (h *Handle) Output() *PendingOutput {
	return h.output
}

// Done returns a channel that is closed when the handle resolves.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel requests cooperative cancellation. If the execution has not yet
// resolved it resolves to Terminated; otherwise Cancel is a no-op. Cancel is
// idempotent and safe to call from any goroutine.
func (h *Handle) Cancel() {
	h.cancel()
	h.resolveTerminated()
}

// Wait blocks until the handle resolves or ctx expires. Once resolved it
// returns the same value to every caller: the execution result, or
// ErrTerminated if the execution was cancelled.
func (h *Handle) Wait(ctx context.Context) (*ExecutionResult, error) {
	select {
	case <-h.done:
		return h.outcome()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result is a non-blocking peek at the outcome. The boolean reports whether
// the handle has resolved; once true, the other values behave like Wait's.
func (h *Handle) Result() (*ExecutionResult, bool, error) {
	select {
	case <-h.done:
	default:
		return nil, false, nil
	}

	res, err := h.outcome()

	return res, true, err
}

// Terminated reports whether the handle resolved via cancellation.
func (h *Handle) Terminated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.terminated
}

// Failed reports whether the handle resolved with an unsuccessful result.
// A terminated or still-running handle is not failed.
func (h *Handle) Failed() bool {
	res, ok, err := h.Result()

	return ok && err == nil && !res.Success()
}

// Summary describes the terminal state for logging.
func (h *Handle) Summary() string {
	res, ok, err := h.Result()

	switch {
	case !ok:
		return fmt.Sprintf("%s: in flight", h.label)
	case err != nil:
		return fmt.Sprintf("%s: terminated", h.label)
	case res.Error != nil:
		return fmt.Sprintf("%s: failed: %v", h.label, res.Error)
	default:
		return fmt.Sprintf("%s: exit code %d", h.label, res.ExitCode)
	}
}

func (h *Handle) outcome() (*ExecutionResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminated {
		return nil, ErrTerminated
	}

	return h.result, nil
}

func (h *Handle) resolveTerminated() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.resolvedLocked() {
		return
	}

	h.terminated = true
	close(h.done)
}

func (h *Handle) resolveResult(res *ExecutionResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.resolvedLocked() {
		return
	}

	h.result = res
	close(h.done)
}

func (h *Handle) resolvedLocked() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
