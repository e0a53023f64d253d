// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package definition

import (
	"errors"

	"github.com/spf13/afero"
)

// ErrReadFile is returned when the definitions file cannot be read.
var ErrReadFile = errors.New("failed to read definitions file")

// FsFactory returns the filesystem used to read definition files.
// Tests replace this to read from an in-memory filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// LoadFile reads and parses the definitions document at path.
func LoadFile(path string) (*File, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	return Parse(data)
}
