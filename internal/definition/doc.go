// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package definition owns the on-disk format of runnable definitions: a YAML
// document listing named commands with their arguments, environment and an
// opaque presentation policy. The execution core treats definitions as
// read-only records.
package definition
