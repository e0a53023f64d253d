// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runnable is the execution core: it turns named executable recipes
// into supervised OS processes. A Token lazily schedules its recipe at most
// once and hands out a shared Handle; the Handle memoizes the execution's
// outcome and supports cooperative cancellation; PendingOutput captures the
// process's combined stdout/stderr as an ordered line feed plus a cumulative
// buffer.
package runnable
