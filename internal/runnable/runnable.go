// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runnable

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matt-FFFFFF/runway/internal/definition"
)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrTerminated is the resolution of an execution that was cancelled
	// rather than allowed to finish. It is disjoint from both success and
	// runtime failure.
	ErrTerminated = errors.New("runnable terminated")
	// ErrUnknownRunnableKind is returned when a definition names an
	// unregistered runnable kind.
	ErrUnknownRunnableKind = errors.New("unknown runnable kind")
)

// Runnable is a short-lived recipe for an external process whose main purpose
// is to get spawned. Implementations must be safe to share between
// goroutines; a Runnable is an immutable value once constructed.
type Runnable interface {
	// Name returns the display name of the runnable.
	Name() string
	// Exec spawns the process in cwd and returns a ready handle, or an
	// error if the process could not be started at all. A failure to start
	// is distinct from the process later exiting unsuccessfully.
	Exec(ctx context.Context, cwd string) (*Handle, error)
}

// Factory builds a Runnable of a particular kind from its definition.
type Factory func(definition.Definition) (Runnable, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a factory for a runnable kind. Later registrations of the
// same kind replace earlier ones.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = f
}

// New builds a Runnable from a definition using the registered factories.
func New(def definition.Definition) (Runnable, error) {
	registryMu.RLock()
	f, ok := registry[def.Kind()]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRunnableKind, def.Kind())
	}

	return f(def)
}

func init() {
	Register(definition.DefaultKind, func(def definition.Definition) (Runnable, error) {
		return NewStatic(def), nil
	})
}
