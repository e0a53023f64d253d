// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runnable

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/matt-FFFFFF/runway/internal/ctxlog"
	"github.com/matt-FFFFFF/runway/internal/linefeed"
	"golang.org/x/sync/errgroup"
)

// PendingOutput concurrently captures a process's stdout and stderr into one
// ordered line feed plus a cumulative buffer. Each stream is read by its own
// goroutine; within a stream line order is preserved, but the interleaving of
// the two streams in the feed is arrival order.
type PendingOutput struct {
	hub      *linefeed.Hub
	finished chan struct{}

	mu  sync.Mutex
	buf strings.Builder
}

// NewPendingOutput starts capturing the two streams. Capture ends when both
// streams reach EOF; a read error is logged and treated as that stream's EOF,
// never as a failure of the owning execution.
func NewPendingOutput(ctx context.Context, stdout, stderr io.Reader) *PendingOutput {
	p := &PendingOutput{
		hub:      linefeed.NewHub(),
		finished: make(chan struct{}),
	}

	eg := &errgroup.Group{}
	eg.Go(func() error {
		p.capture(ctx, stdout, "stdout")
		return nil
	})
	eg.Go(func() error {
		p.capture(ctx, stderr, "stderr")
		return nil
	})

	go func() {
		_ = eg.Wait()

		p.hub.Close()
		close(p.finished)
	}()

	return p
}

// Subscribe returns an independent view of the merged line feed. Lines
// published before the subscription are not replayed; use Snapshot or
// FullOutput for the cumulative text.
func (p *PendingOutput) Subscribe() *linefeed.Subscription {
	return p.hub.Subscribe()
}

// Snapshot returns a copy of everything captured so far. The cumulative
// buffer only grows, so later snapshots always extend earlier ones.
func (p *PendingOutput) Snapshot() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.buf.String()
}

// Finished returns a channel closed once both stream readers have ended.
func (p *PendingOutput) Finished() <-chan struct{} {
	return p.finished
}

// FullOutput blocks until both stream readers have finished, then returns a
// snapshot of the complete captured output.
func (p *PendingOutput) FullOutput(ctx context.Context) (string, error) {
	select {
	case <-p.finished:
		return p.Snapshot(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *PendingOutput) capture(ctx context.Context, r io.Reader, stream string) {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadString('\n')

		if len(line) > 0 {
			// Invalid byte sequences are replaced, never fatal.
			line = strings.ToValidUTF8(line, string(utf8.RuneError))

			p.mu.Lock()
			p.buf.WriteString(line)
			p.mu.Unlock()

			p.hub.Publish(line)
		}

		if err != nil {
			if err != io.EOF {
				ctxlog.Warn(ctx, "output capture ended", "stream", stream, "error", err)
			}

			return
		}

		// Don't starve concurrent work when a stream is very chatty.
		runtime.Gosched()
	}
}
