// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package definition

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

var (
	// ErrUnmarshal is returned when the definitions document cannot be parsed.
	ErrUnmarshal = errors.New("failed to unmarshal runnable definitions")
	// ErrMissingCommand is returned when a definition has no command.
	ErrMissingCommand = errors.New("definition has no command")
	// ErrMissingLabel is returned when a definition has no label.
	ErrMissingLabel = errors.New("definition has no label")
)

// DefaultKind is the registry kind assumed when a definition omits "type".
const DefaultKind = "exec"

// Presentation is an opaque policy enum describing how a runnable's output
// should be revealed by the host. The core never interprets it.
type Presentation string

// Presentation policies.
const (
	PresentationAuto   Presentation = "auto"
	PresentationAlways Presentation = "always"
	PresentationNever  Presentation = "never"
)

// Definition is the immutable on-disk record of a runnable.
// It is owned by this loader and read-only to the core.
type Definition struct {
	Type         string            `yaml:"type,omitempty" json:"type,omitempty"`
	Label        string            `yaml:"label" json:"label"`
	Command      string            `yaml:"command" json:"command"`
	Args         []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env          map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Options      map[string]any    `yaml:"options,omitempty" json:"options,omitempty"`
	Presentation Presentation      `yaml:"presentation,omitempty" json:"presentation,omitempty"`
}

// Kind returns the registry kind for this definition, defaulting to "exec".
func (d Definition) Kind() string {
	if d.Type == "" {
		return DefaultKind
	}

	return d.Type
}

// File is the top-level structure of a definitions document.
type File struct {
	Runnables []Definition `yaml:"runnables" json:"runnables"`
}

// Parse decodes a definitions document and validates each entry.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}

	for i, d := range f.Runnables {
		if d.Command == "" {
			return nil, fmt.Errorf("runnable %d (%q): %w", i, d.Label, ErrMissingCommand)
		}

		if d.Label == "" {
			return nil, fmt.Errorf("runnable %d: %w", i, ErrMissingLabel)
		}
	}

	return &f, nil
}
