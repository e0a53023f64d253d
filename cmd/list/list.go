// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package list implements the list subcommand: it prints the runnables a
// definitions file declares without scheduling any of them.
package list

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/runway/internal/color"
	"github.com/matt-FFFFFF/runway/internal/definition"
	"github.com/urfave/cli/v3"
)

const (
	fileArg  = "file"
	jsonFlag = "json"
)

// ErrRenderJSON is returned when the definitions cannot be rendered as JSON.
var ErrRenderJSON = errors.New("failed to render definitions as JSON")

// ListCmd is the command that prints the runnables declared in a YAML file.
var ListCmd = &cli.Command{
	Name:        "list",
	Description: "List the runnables declared in a YAML file.",
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
		&cli.BoolFlag{
			Name:        jsonFlag,
			Usage:       "Emit the definitions as JSON",
			Value:       false,
			DefaultText: "false",
		},
	},
	Action: actionFunc,
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(fileArg)
	if path == "" {
		return cli.Exit("Please provide a YAML file to list", 1)
	}

	file, err := definition.LoadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load definitions from %s: %s", path, err.Error()), 1)
	}

	if cmd.Bool(jsonFlag) {
		return writeJSON(cmd, file)
	}

	for _, def := range file.Runnables {
		line := def.Command
		if len(def.Args) > 0 {
			line += " " + strings.Join(def.Args, " ")
		}

		fmt.Fprintf(cmd.Writer, "%s %s  %s\n",
			color.Colorize(def.Label, color.Bold),
			color.Colorize("["+def.Kind()+"]", color.FgHiBlack),
			line,
		)
	}

	return nil
}

// writeJSON renders the definitions through colorjson so terminals get
// highlighted output. The formatter only accepts generic values, hence the
// marshal round trip.
func writeJSON(cmd *cli.Command, file *definition.File) error {
	raw, err := json.Marshal(file)
	if err != nil {
		return errors.Join(ErrRenderJSON, err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return errors.Join(ErrRenderJSON, err)
	}

	formatter := colorjson.NewFormatter()
	formatter.Indent = 2
	formatter.DisabledColor = !color.Enabled()

	out, err := formatter.Marshal(generic)
	if err != nil {
		return errors.Join(ErrRenderJSON, err)
	}

	fmt.Fprintln(cmd.Writer, string(out))

	return nil
}
