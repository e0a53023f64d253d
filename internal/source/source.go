// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package source produces runnable tokens for a given path. A source could be
// a parsed definitions file, a language server advertising test targets, or a
// build server listing its targets; this package ships the static,
// file-backed implementation.
package source

import (
	"context"

	"github.com/matt-FFFFFF/runway/internal/runnable"
)

// Source produces runnables that can be scheduled.
type Source interface {
	// RunnablesForPath enumerates the tokens available for path, in
	// definition order.
	RunnablesForPath(ctx context.Context, path string) ([]*runnable.Token, error)
}
