// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/matt-FFFFFF/runway/internal/aggregator"
	"github.com/matt-FFFFFF/runway/internal/definition"
	"github.com/matt-FFFFFF/runway/internal/reaper"
	"github.com/matt-FFFFFF/runway/internal/runnable"
	"github.com/matt-FFFFFF/runway/internal/source"
	"github.com/matt-FFFFFF/runway/internal/tui"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("test relies on POSIX shell utilities")
	}
}

func stubFs(t *testing.T, content string) {
	t.Helper()

	stub := gostub.Stub(&definition.FsFactory, func() afero.Fs {
		fs := afero.NewMemMapFs()
		_ = afero.WriteFile(fs, "/runnables.yaml", []byte(content), 0o644)

		return fs
	})
	t.Cleanup(stub.Reset)
}

func buildTokens(t *testing.T, content string) []*runnable.Token {
	t.Helper()

	stubFs(t, content)

	f, err := source.Track("/runnables.yaml")
	require.NoError(t, err)

	rp := reaper.New()
	t.Cleanup(rp.Close)

	tokens, err := source.NewStatic(f, runnable.WithReaper(rp)).
		RunnablesForPath(context.Background(), "/runnables.yaml")
	require.NoError(t, err)

	return tokens
}

func TestScheduleStreamAndSummarize(t *testing.T) {
	skipOnWindows(t)

	tokens := buildTokens(t, `
runnables:
  - label: hello
    command: /bin/echo
    args: ["hello world"]
  - label: ok
    command: /bin/true
`)

	agg := aggregator.New()
	defer agg.Close()

	handles, errs := scheduleAll(context.Background(), "", tokens, agg)
	require.NoError(t, errs.ErrorOrNil())
	require.Len(t, handles, 2)

	var out bytes.Buffer

	stream(&out, handles)
	assert.Contains(t, out.String(), "hello world")

	require.NoError(t, waitAll(context.Background(), handles))

	var summary bytes.Buffer

	printSummary(&summary, agg, handles)
	assert.Contains(t, summary.String(), "all succeeded")
	assert.Contains(t, summary.String(), "hello: exit code 0")
}

func TestWaitAllCollectsNonZeroExits(t *testing.T) {
	skipOnWindows(t)

	tokens := buildTokens(t, `
runnables:
  - label: boom
    command: /bin/sh
    args: ["-c", "exit 3"]
`)

	agg := aggregator.New()
	defer agg.Close()

	handles, errs := scheduleAll(context.Background(), "", tokens, agg)
	require.NoError(t, errs.ErrorOrNil())

	err := waitAll(context.Background(), handles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom: exit code 3")

	var summary bytes.Buffer

	printSummary(&summary, agg, handles)
	assert.Contains(t, summary.String(), "any failed")
}

func TestScheduleAllReportsSpawnFailures(t *testing.T) {
	tokens := buildTokens(t, `
runnables:
  - label: ghost
    command: /does/not/exist
`)

	agg := aggregator.New()
	defer agg.Close()

	handles, errs := scheduleAll(context.Background(), "", tokens, agg)
	assert.Empty(t, handles)
	require.ErrorIs(t, errs.ErrorOrNil(), ErrSchedule)
}

func TestWaitAllIgnoresTerminated(t *testing.T) {
	skipOnWindows(t)

	tokens := buildTokens(t, `
runnables:
  - label: sleeper
    command: /bin/sh
    args: ["-c", "sleep 300"]
`)

	agg := aggregator.New()
	defer agg.Close()

	handles, errs := scheduleAll(context.Background(), "", tokens, agg)
	require.NoError(t, errs.ErrorOrNil())

	handles[0].Cancel()

	require.NoError(t, waitAll(context.Background(), handles))
	assert.Equal(t, tui.RowTerminated, rowState(handles[0]))
}

func TestRunCommandEndToEnd(t *testing.T) {
	skipOnWindows(t)

	stubFs(t, `
runnables:
  - label: greet
    command: /bin/echo
    args: ["greetings"]
`)

	var out bytes.Buffer

	root := &cli.Command{
		Name:      "runway",
		Commands:  []*cli.Command{RunCmd},
		Writer:    &out,
		ErrWriter: &out,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, root.Run(ctx, []string{"runway", "run", "/runnables.yaml"}))
	assert.Contains(t, out.String(), "greetings")
	assert.Contains(t, out.String(), "all succeeded")
}
