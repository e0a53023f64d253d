// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package source

import (
	"errors"

	"github.com/matt-FFFFFF/runway/internal/cell"
	"github.com/matt-FFFFFF/runway/internal/definition"
	"github.com/spf13/afero"
)

// ErrTrackFile is returned when the tracked file cannot be read.
var ErrTrackFile = errors.New("failed to read tracked file")

// TrackedFile is a file whose content is held in an observable cell.
// Reload re-reads the file and notifies subscribers only when the content
// actually changed.
type TrackedFile struct {
	path    string
	content *cell.Cell[string]
}

// Track reads path and starts tracking its content.
func Track(path string) (*TrackedFile, error) {
	data, err := afero.ReadFile(definition.FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrTrackFile, err)
	}

	return &TrackedFile{
		path:    path,
		content: cell.New(string(data)),
	}, nil
}

// Path returns the tracked file's path.
func (t *TrackedFile) Path() string {
	return t.path
}

// Content returns a snapshot of the most recently read content.
func (t *TrackedFile) Content() string {
	return t.content.Read()
}

// Reload re-reads the file. Subscribers are notified only on change.
func (t *TrackedFile) Reload() error {
	data, err := afero.ReadFile(definition.FsFactory(), t.path)
	if err != nil {
		return errors.Join(ErrTrackFile, err)
	}

	_, _ = t.content.Update(func(cur string) (string, error) {
		if cur == string(data) {
			return cur, errUnchanged
		}

		return string(data), nil
	})

	return nil
}

// Subscribe registers fn to be called whenever the content changes.
func (t *TrackedFile) Subscribe(fn func(string)) func() {
	return t.content.Subscribe(fn)
}

var errUnchanged = errors.New("content unchanged")
