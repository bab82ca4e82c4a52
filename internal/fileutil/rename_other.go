//go:build !linux

package fileutil

import (
	"errors"
	"io/fs"
	"syscall"
)

func renameNoReplace(src, dst string) error {
	return linkThenRemove(src, dst)
}

func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrExist):
		return ErrDestinationExists
	case errors.Is(err, syscall.EXDEV):
		return ErrCrossDevice
	default:
		return err
	}
}
