package fileutil

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestMoveNoReplaceMovesFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveNoReplace(src, dst); err != nil {
		t.Fatalf("MoveNoReplace returned error: %v", err)
	}
	if Exists(src) {
		t.Fatal("expected source to be gone")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "data" {
		t.Fatalf("unexpected destination content %q %v", got, err)
	}
}

func TestMoveNoReplaceNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.jpg")
	dst := filepath.Join(dir, "existing.jpg")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := MoveNoReplace(src, dst)
	if !errors.Is(err, ErrDestinationExists) || !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expected destination exists error, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("destination was overwritten: %q", got)
	}
	if !Exists(src) {
		t.Fatal("source must stay in place when the move is refused")
	}
}

func TestMoveIntoCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst, err := MoveInto(src, filepath.Join(dir, "nonmedia", "nested"))
	if err != nil {
		t.Fatalf("MoveInto returned error: %v", err)
	}
	if dst != filepath.Join(dir, "nonmedia", "nested", "notes.txt") || !Exists(dst) {
		t.Fatalf("unexpected destination %q", dst)
	}
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	for i := 0; i < 2; i++ {
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir call %d: %v", i, err)
		}
	}
	if !IsDir(dir) {
		t.Fatal("expected directory")
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		dir, path string
		want      bool
	}{
		{"/a/b", "/a/b", true},
		{"/a/b", "/a/b/c/d.jpg", true},
		{"/a/b", "/a/bc", false},
		{"/a/b", "/a", false},
		{"", "/a", false},
		{"/a/b", "/a/b/..c", true},
	}
	for _, tc := range cases {
		if got := Within(tc.dir, tc.path); got != tc.want {
			t.Fatalf("Within(%q, %q) = %v, want %v", tc.dir, tc.path, got, tc.want)
		}
	}
}

func TestListFilesSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a.jpg", "nested/b.jpg", "defective/c.jpg", "nested/deeper/d.png"} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListFiles(context.Background(), root, filepath.Join(root, "defective"))
	if err != nil {
		t.Fatalf("ListFiles returned error: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "nested", "b.jpg"),
		filepath.Join(root, "nested", "deeper", "d.png"),
	}
	if len(files) != len(want) {
		t.Fatalf("unexpected files %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("file %d = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestListFilesMissingRoot(t *testing.T) {
	_, err := ListFiles(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
