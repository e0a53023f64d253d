// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runnable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/matt-FFFFFF/runway/internal/ctxlog"
	"github.com/matt-FFFFFF/runway/internal/definition"
)

var _ Runnable = (*StaticRunnable)(nil)

// StaticRunnable is a Runnable built from a statically configured definition,
// e.g. one parsed from a definitions file.
type StaticRunnable struct {
	def definition.Definition
}

// NewStatic creates a runnable from the given definition.
func NewStatic(def definition.Definition) *StaticRunnable {
	return &StaticRunnable{def: def}
}

// Name returns the label supplied at construction.
func (r *StaticRunnable) Name() string {
	return r.def.Label
}

// Definition returns the definition this runnable was built from.
func (r *StaticRunnable) Definition() definition.Definition {
	return r.def
}

// Exec spawns the configured command in cwd and returns a ready handle.
// The handle's cancellation kills the spawned process via the derived
// context.
func (r *StaticRunnable) Exec(ctx context.Context, cwd string) (*Handle, error) {
	logger := ctxlog.Logger(ctx).With("runnable", r.def.Label)

	runCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(runCtx, r.def.Command, r.def.Args...)
	cmd.Dir = cwd

	env := os.Environ()
	for k, v := range r.def.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	logger.Debug("starting process", "command", r.def.Command, "args", r.def.Args, "cwd", cwd)

	if err := cmd.Start(); err != nil {
		cancel()

		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	logger.Debug("process started", "pid", cmd.Process.Pid)

	output := NewPendingOutput(runCtx, stdout, stderr)

	wait := func() (int, error) {
		// The pipes must be fully drained before Wait closes them.
		<-output.Finished()

		err := cmd.Wait()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A failing exit status is a value, not an error.
			return exitErr.ExitCode(), nil
		}

		if err != nil {
			return -1, err
		}

		return cmd.ProcessState.ExitCode(), nil
	}

	return NewHandle(runCtx, cancel, r.def.Label, output, wait), nil
}
