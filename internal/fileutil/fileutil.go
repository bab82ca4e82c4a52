// Package fileutil holds filesystem primitives shared by the capabilities:
// rename-only moves that never overwrite and create-if-absent directories.
package fileutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrDestinationExists is returned when a move would replace a file.
	ErrDestinationExists = fmt.Errorf("destination exists: %w", fs.ErrExist)
	// ErrCrossDevice is returned when source and destination live on
	// different filesystems. Moves never fall back to copy and delete.
	ErrCrossDevice = errors.New("cross-device move not supported")
)

// MoveNoReplace renames src to dst, failing with ErrDestinationExists when dst
// is already present. The parent of dst must exist.
func MoveNoReplace(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	if err := renameNoReplace(src, dst); err != nil {
		return &os.LinkError{Op: "move", Old: src, New: dst, Err: err}
	}
	return nil
}

// MoveInto moves src into dir keeping its base name and returns the new path.
func MoveInto(src, dir string) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := MoveNoReplace(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// EnsureDir creates dir and its parents if absent.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Within reports whether path equals dir or lies beneath it.
func Within(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !filepath.IsAbs(rel) && !hasParentPrefix(rel)
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

// linkThenRemove emulates a no-replace rename with a hard link, which fails
// when dst exists.
func linkThenRemove(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) {
			err = linkErr.Err
		}
		return classify(err)
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// ListFiles returns regular files beneath root in lexical order, skipping any
// directory that equals or lies beneath one of skip. Symlinks are not followed.
func ListFiles(ctx context.Context, root string, skip ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			// Unreadable subtrees are skipped; their files stay untouched.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipped(path, skip) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func skipped(path string, skip []string) bool {
	for _, dir := range skip {
		if Within(dir, path) {
			return true
		}
	}
	return false
}
