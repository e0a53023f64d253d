// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/runway/internal/ctxlog"
	"github.com/matt-FFFFFF/runway/internal/definition"
	"github.com/matt-FFFFFF/runway/internal/runnable"
)

var _ Source = (*StaticSource)(nil)

type tokenEntry struct {
	def   definition.Definition
	token *runnable.Token
}

// StaticSource enumerates the runnables declared in a tracked definitions
// file. Tokens are cached per label: as long as a definition is unchanged,
// queries return the same token, so its scheduling state survives reloads of
// unrelated entries.
type StaticSource struct {
	id   uuid.UUID
	file *TrackedFile
	opts []runnable.TokenOption

	mu     sync.Mutex
	parsed string
	order  []string
	tokens map[string]tokenEntry
}

// NewStatic creates a source over the given tracked file. opts are applied to
// every token the source creates.
func NewStatic(file *TrackedFile, opts ...runnable.TokenOption) *StaticSource {
	return &StaticSource{
		id:     uuid.New(),
		file:   file,
		opts:   opts,
		tokens: make(map[string]tokenEntry),
	}
}

// ID returns the source's identity, embedded in its tokens' metadata.
func (s *StaticSource) ID() uuid.UUID {
	return s.id
}

// RunnablesForPath implements Source. Static definitions apply to every path,
// so path is unused; it is part of the interface for sources that scope their
// runnables to a file.
func (s *StaticSource) RunnablesForPath(ctx context.Context, _ string) ([]*runnable.Token, error) {
	content := s.file.Content()

	s.mu.Lock()
	defer s.mu.Unlock()

	if content != s.parsed {
		if err := s.rebuildLocked(ctx, content); err != nil {
			return nil, err
		}
	}

	out := make([]*runnable.Token, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, s.tokens[label].token)
	}

	return out, nil
}

func (s *StaticSource) rebuildLocked(ctx context.Context, content string) error {
	f, err := definition.Parse([]byte(content))
	if err != nil {
		return err
	}

	next := make(map[string]tokenEntry, len(f.Runnables))
	order := make([]string, 0, len(f.Runnables))

	for _, def := range f.Runnables {
		if prev, ok := s.tokens[def.Label]; ok && reflect.DeepEqual(prev.def, def) {
			// Unchanged definition: the existing token, and with it any
			// scheduling decision, is retained.
			next[def.Label] = prev
			order = append(order, def.Label)

			continue
		}

		r, err := runnable.New(def)
		if err != nil {
			return err
		}

		meta := runnable.Metadata{
			SourceID:    s.id,
			DisplayName: def.Label,
		}
		next[def.Label] = tokenEntry{
			def:   def,
			token: runnable.NewToken(r, meta, s.opts...),
		}
		order = append(order, def.Label)
	}

	ctxlog.Debug(ctx, "static source rebuilt", "source", s.id, "runnables", len(order))

	s.tokens = next
	s.order = order
	s.parsed = content

	return nil
}
