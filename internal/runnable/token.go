// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runnable

import (
	"context"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/runway/internal/cell"
	"github.com/matt-FFFFFF/runway/internal/ctxlog"
	"github.com/matt-FFFFFF/runway/internal/reaper"
)

// Metadata identifies where a token came from and how to display it.
type Metadata struct {
	// SourceID is the identity of the source that produced the token.
	SourceID uuid.UUID
	// DisplayName is the human-readable name of the runnable.
	DisplayName string
}

// RunState is the scheduling state of a token. Exactly one of the two fields
// is set: the recipe before scheduling, the handle after. The transition is
// one-directional and happens at most once per token.
type RunState struct {
	runnable Runnable
	handle   *Handle
}

// NotScheduled creates the initial state holding the recipe.
func NotScheduled(r Runnable) RunState {
	return RunState{runnable: r}
}

// Scheduled reports whether the runnable has been scheduled.
func (s RunState) Scheduled() bool {
	return s.handle != nil
}

// Handle returns the scheduled execution's handle, or nil before scheduling.
func (s RunState) Handle() *Handle {
	return s.handle
}

// Token is a handle to a runnable that lazily schedules it and deduplicates
// execution. Clones share the same underlying state cell, so every clone
// observes the same scheduling decision; token identity is the identity of
// that cell.
type Token struct {
	id     uuid.UUID
	meta   Metadata
	state  *cell.Cell[RunState]
	reaper *reaper.Reaper
}

// TokenOption configures a token at construction.
type TokenOption func(*Token)

// WithReaper routes the token's scheduled executions to the given reaper
// instead of the process-wide default.
func WithReaper(r *reaper.Reaper) TokenOption {
	return func(t *Token) {
		t.reaper = r
	}
}

// NewToken wraps a runnable in a lazily scheduled token.
func NewToken(r Runnable, meta Metadata, opts ...TokenOption) *Token {
	t := &Token{
		id:     uuid.New(),
		meta:   meta,
		state:  cell.New(NotScheduled(r)),
		reaper: reaper.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ID returns the token's identity. Clones share it.
func (t *Token) ID() uuid.UUID {
	return t.id
}

// Metadata returns the token's metadata.
func (t *Token) Metadata() Metadata {
	return t.meta
}

// Clone returns a token sharing this token's state cell and identity.
func (t *Token) Clone() *Token {
	return &Token{
		id:     t.id,
		meta:   t.meta,
		state:  t.state,
		reaper: t.reaper,
	}
}

// State returns a snapshot of the current run state.
func (t *Token) State() RunState {
	return t.state.Read()
}

// Schedule spawns the runnable, or returns the existing handle if it has
// already been scheduled. The inspect-spawn-transition sequence runs as a
// single critical section per token, so concurrent callers observe the same
// outcome and at most one process is ever spawned. A spawn failure leaves the
// state untouched and is returned to the caller; no handle is created.
func (t *Token) Schedule(ctx context.Context, cwd string) (*Handle, error) {
	var first bool

	st, err := t.state.Update(func(s RunState) (RunState, error) {
		if s.Scheduled() {
			return s, nil
		}

		handle, err := s.runnable.Exec(ctx, cwd)
		if err != nil {
			return s, err
		}

		first = true

		return RunState{handle: handle}, nil
	})
	if err != nil {
		return nil, err
	}

	if first {
		ctxlog.Debug(ctx, "runnable scheduled", "name", t.meta.DisplayName, "token", t.id)

		// The driver awaits the handle for terminal logging; it never
		// changes the run state.
		t.reaper.Enroll(ctx, st.Handle())
	}

	return st.Handle(), nil
}

// Handle returns the scheduled execution's handle. ok is false if the token
// has not been scheduled yet.
func (t *Token) Handle() (*Handle, bool) {
	st := t.state.Read()

	return st.handle, st.Scheduled()
}

// Result is a non-blocking peek at the execution's outcome. ok is false until
// the token has been scheduled and its handle has resolved.
func (t *Token) Result() (*ExecutionResult, bool, error) {
	h, ok := t.Handle()
	if !ok {
		return nil, false, nil
	}

	return h.Result()
}

// CancelFunc returns a function that cancels the scheduled execution.
// ok is false if the token has not been scheduled yet.
func (t *Token) CancelFunc() (func(), bool) {
	h, ok := t.Handle()
	if !ok {
		return nil, false
	}

	return h.Cancel, true
}

// WasScheduled reports whether the token has ever been scheduled.
func (t *Token) WasScheduled() bool {
	_, ok := t.Handle()

	return ok
}
