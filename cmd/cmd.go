// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"os"

	"github.com/matt-FFFFFF/runway/cmd/list"
	"github.com/matt-FFFFFF/runway/cmd/run"
	"github.com/urfave/cli/v3"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		list.ListCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "runway",
	Description: `Runway schedules and supervises runnables declared in a YAML file.
Every runnable is started at most once per scheduling decision, its output is
captured live from both streams, and the batch's aggregate status is tracked
until the last process settles.`,
	Usage:     "runway run runnables.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}
