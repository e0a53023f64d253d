// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color emits ANSI control codes for terminal text formatting.
// It honors the NO_COLOR and FORCE_COLOR environment variables and disables
// itself when stdout is not a terminal.
package color
