// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package definition

import (
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
runnables:
  - label: unit tests
    command: go
    args: ["test", "./..."]
    env:
      CGO_ENABLED: "0"
  - type: exec
    label: lint
    command: golangci-lint
    args: ["run"]
    presentation: never
`

func TestParseValidDocument(t *testing.T) {
	f, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	require.Len(t, f.Runnables, 2)

	first := f.Runnables[0]
	assert.Equal(t, "unit tests", first.Label)
	assert.Equal(t, "go", first.Command)
	assert.Equal(t, []string{"test", "./..."}, first.Args)
	assert.Equal(t, "0", first.Env["CGO_ENABLED"])
	assert.Equal(t, DefaultKind, first.Kind())

	second := f.Runnables[1]
	assert.Equal(t, PresentationNever, second.Presentation)
	assert.Equal(t, "exec", second.Kind())
}

func TestParseMissingCommand(t *testing.T) {
	doc := "runnables:\n  - label: broken\n"

	_, err := Parse([]byte(doc))
	require.ErrorIs(t, err, ErrMissingCommand)
}

func TestParseMissingLabel(t *testing.T) {
	doc := "runnables:\n  - command: ls\n"

	_, err := Parse([]byte(doc))
	require.ErrorIs(t, err, ErrMissingLabel)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("runnables: [unterminated"))
	require.ErrorIs(t, err, ErrUnmarshal)
}

func TestLoadFile(t *testing.T) {
	stub := gostub.Stub(&FsFactory, func() afero.Fs {
		fs := afero.NewMemMapFs()
		_ = afero.WriteFile(fs, "/runnables.yaml", []byte(validDoc), 0o644)

		return fs
	})
	defer stub.Reset()

	f, err := LoadFile("/runnables.yaml")
	require.NoError(t, err)
	assert.Len(t, f.Runnables, 2)
}

func TestLoadFileNotFound(t *testing.T) {
	stub := gostub.Stub(&FsFactory, func() afero.Fs {
		return afero.NewMemMapFs()
	})
	defer stub.Reset()

	_, err := LoadFile("/nope.yaml")
	require.ErrorIs(t, err, ErrReadFile)
}
