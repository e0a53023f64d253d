// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand: it schedules every runnable in a
// definitions file, streams their output, and reports the aggregate outcome.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/runway/internal/aggregator"
	"github.com/matt-FFFFFF/runway/internal/color"
	"github.com/matt-FFFFFF/runway/internal/ctxlog"
	"github.com/matt-FFFFFF/runway/internal/reaper"
	"github.com/matt-FFFFFF/runway/internal/runnable"
	"github.com/matt-FFFFFF/runway/internal/source"
	"github.com/matt-FFFFFF/runway/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	fileArg     = "file"
	cwdFlag     = "cwd"
	tuiFlag     = "tui"
	timeoutFlag = "timeout"
)

var (
	// ErrNoRunnables is returned when the definitions file declares nothing to run.
	ErrNoRunnables = errors.New("no runnables defined")
	// ErrSchedule is returned when a runnable could not be scheduled.
	ErrSchedule = errors.New("failed to schedule runnable")
	// ErrRunFailed is returned when at least one runnable failed.
	ErrRunFailed = errors.New("run failed")
	// ErrInterrupted is returned when the view was quit before the batch settled.
	ErrInterrupted = errors.New("run interrupted")
)

// RunCmd is the command that schedules every runnable defined in a YAML file.
var RunCmd = &cli.Command{
	Name:        "run",
	Description: "Schedule every runnable defined in a YAML file and wait for the batch to settle.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      fileArg,
			UsageText: "YAMLFILE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        cwdFlag,
			Usage:       "Working directory for the spawned processes",
			Value:       ".",
			DefaultText: ".",
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Usage:       "Render live progress in an interactive view",
			Value:       false,
			DefaultText: "false",
		},
		&cli.DurationFlag{
			Name:  timeoutFlag,
			Usage: "Cancel every runnable still in flight after this duration",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(fileArg)
	if path == "" {
		return cli.Exit("Please provide a YAML file to run", 1)
	}

	file, err := source.Track(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read file %s: %s", path, err.Error()), 1)
	}

	src := source.NewStatic(file, runnable.WithReaper(reaper.Default()))

	tokens, err := src.RunnablesForPath(ctx, path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load runnables from %s: %s", path, err.Error()), 1)
	}

	if len(tokens) == 0 {
		return errors.Join(ErrNoRunnables, fmt.Errorf("file %s", path))
	}

	if timeout := cmd.Duration(timeoutFlag); timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	agg := aggregator.New()
	defer agg.Close()

	handles, errs := scheduleAll(ctx, cmd.String(cwdFlag), tokens, agg)

	if cmd.Bool(tuiFlag) {
		errs = multierror.Append(errs, watch(ctx, agg, handles))
	} else {
		stream(cmd.Writer, handles)
	}

	errs = multierror.Append(errs, waitAll(ctx, handles))

	printSummary(cmd.Writer, agg, handles)

	if final := errs.ErrorOrNil(); final != nil {
		return cli.Exit(errors.Join(ErrRunFailed, final).Error(), 1)
	}

	return nil
}

// scheduleAll schedules every token and registers the resulting handles with
// the aggregator. Scheduling failures are collected, not fatal; the rest of
// the batch still runs.
func scheduleAll(
	ctx context.Context, cwd string, tokens []*runnable.Token, agg *aggregator.Aggregator,
) ([]*runnable.Handle, *multierror.Error) {
	var errs *multierror.Error

	handles := make([]*runnable.Handle, 0, len(tokens))

	for _, tok := range tokens {
		h, err := tok.Schedule(ctx, cwd)
		if err != nil {
			errs = multierror.Append(errs, errors.Join(
				ErrSchedule, fmt.Errorf("%s: %w", tok.Metadata().DisplayName, err),
			))

			continue
		}

		ctxlog.Debug(ctx, "scheduled runnable", "label", h.Label())
		agg.Push(h)
		handles = append(handles, h)
	}

	return handles, errs
}

// stream copies every handle's line feed to w, each line prefixed with the
// runnable's label. It returns once every feed is exhausted; the feeds close
// when their processes exit, including on cancellation.
func stream(w io.Writer, handles []*runnable.Handle) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, h := range handles {
		if h.Output() == nil {
			continue
		}

		sub := h.Output().Subscribe()

		wg.Add(1)

		go func(label string) {
			defer wg.Done()

			prefix := color.Colorize(label, color.FgCyan)

			for line := range sub.Lines() {
				mu.Lock()
				fmt.Fprintf(w, "%s | %s", prefix, line)
				mu.Unlock()
			}
		}(h.Label())
	}

	wg.Wait()
}

// waitAll blocks until every handle resolves and collects failures. A
// terminated handle is not a failure; a non-zero exit code or a runtime error
// is.
func waitAll(ctx context.Context, handles []*runnable.Handle) error {
	var errs *multierror.Error

	for _, h := range handles {
		res, err := h.Wait(context.WithoutCancel(ctx))

		switch {
		case errors.Is(err, runnable.ErrTerminated):
			continue
		case err != nil:
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", h.Label(), err))
		case res.Error != nil:
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", h.Label(), res.Error))
		case res.ExitCode != 0:
			errs = multierror.Append(errs, fmt.Errorf("%s: exit code %d", h.Label(), res.ExitCode))
		}
	}

	return errs.ErrorOrNil()
}

// watch runs the interactive view until the batch settles or the user quits.
func watch(ctx context.Context, agg *aggregator.Aggregator, handles []*runnable.Handle) error {
	labels := make([]string, 0, len(handles))
	for _, h := range handles {
		labels = append(labels, h.Label())
	}

	model := tui.NewModel(labels)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	var wg sync.WaitGroup

	for _, h := range handles {
		if h.Output() != nil {
			sub := h.Output().Subscribe()

			wg.Add(1)

			go func(label string) {
				defer wg.Done()

				for line := range sub.Lines() {
					program.Send(tui.LineMsg{Label: label, Line: line})
				}
			}(h.Label())
		}

		wg.Add(1)

		go func(h *runnable.Handle) {
			defer wg.Done()

			<-h.Done()
			program.Send(tui.SettledMsg{Label: h.Label(), State: rowState(h)})
			program.Send(tui.StatusMsg{Status: agg.Status()})
		}(h)
	}

	go func() {
		wg.Wait()

		// Settled messages race the aggregator's own watchers; report the
		// final status once more after everything has landed.
		time.Sleep(10 * time.Millisecond)
		program.Send(tui.StatusMsg{Status: agg.Status()})
		program.Send(tui.DoneMsg{})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("progress view failed: %w", err)
	}

	if model.Quitted() {
		for _, h := range handles {
			h.Cancel()
		}

		return ErrInterrupted
	}

	return nil
}

func rowState(h *runnable.Handle) tui.RowState {
	switch {
	case h.Terminated():
		return tui.RowTerminated
	case h.Failed():
		return tui.RowFailed
	default:
		return tui.RowSucceeded
	}
}

// printSummary writes one line per handle plus the aggregate status.
func printSummary(w io.Writer, agg *aggregator.Aggregator, handles []*runnable.Handle) {
	for _, h := range handles {
		fmt.Fprintln(w, summaryLine(h))
	}

	status := settledStatus(agg)

	var c color.Code

	switch status {
	case aggregator.StatusAllSucceeded:
		c = color.FgGreen
	case aggregator.StatusAnyFailed:
		c = color.FgRed
	default:
		c = color.FgYellow
	}

	fmt.Fprintf(w, "%s %s\n", color.Colorize("status:", color.Bold), color.Colorize(status.String(), c))
}

// settledStatus polls briefly while the aggregator catches up with the last
// completions. A batch containing only terminated executions never leaves
// pending, so the poll is bounded.
func settledStatus(agg *aggregator.Aggregator) aggregator.Status {
	deadline := time.Now().Add(500 * time.Millisecond)

	for {
		s := agg.Status()
		if s != aggregator.StatusPending || time.Now().After(deadline) {
			return s
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func summaryLine(h *runnable.Handle) string {
	switch {
	case h.Terminated():
		return fmt.Sprintf("%s %s", color.Colorize("-", color.FgHiBlack), h.Summary())
	case h.Failed():
		return fmt.Sprintf("%s %s", color.Colorize("✗", color.FgRed), h.Summary())
	default:
		return fmt.Sprintf("%s %s", color.Colorize("✓", color.FgGreen), h.Summary())
	}
}
