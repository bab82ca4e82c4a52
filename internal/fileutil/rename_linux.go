//go:build linux

package fileutil

import (
	"errors"

	"golang.org/x/sys/unix"
)

func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	if err == nil {
		return nil
	}
	// Some filesystems reject the flag; hard links give the same guarantee.
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) {
		return linkThenRemove(src, dst)
	}
	return classify(err)
}

func classify(err error) error {
	switch {
	case errors.Is(err, unix.EEXIST), errors.Is(err, unix.ENOTEMPTY):
		return ErrDestinationExists
	case errors.Is(err, unix.EXDEV):
		return ErrCrossDevice
	default:
		return err
	}
}
