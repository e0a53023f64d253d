// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui renders live progress for a batch of scheduled runnables: a row
// per runnable with its current state, a tail of the merged output feed, and
// the batch's aggregate status.
package tui
