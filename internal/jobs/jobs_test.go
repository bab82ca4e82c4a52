package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromPathsSequencesAndAppliesDefaults(t *testing.T) {
	base := t.TempDir()
	defaults := Defaults{TargetDir: filepath.Join(base, "organized"), LogDir: filepath.Join(base, "logs")}
	list, err := FromPaths([]string{filepath.Join(base, "a"), " ", filepath.Join(base, "b")}, defaults)
	if err != nil {
		t.Fatalf("FromPaths returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	for i, job := range list {
		if job.Seq != i+1 {
			t.Fatalf("job %d has seq %d", i, job.Seq)
		}
		if job.Option(OptTargetDir, "") != defaults.TargetDir {
			t.Fatalf("expected default target dir, got %q", job.Option(OptTargetDir, ""))
		}
		if job.Option(OptNonMediaDir, "fallback") != "fallback" {
			t.Fatal("expected fallback for unset option")
		}
	}
	if list[1].Params()["source"] != filepath.Join(base, "b") {
		t.Fatalf("unexpected params %v", list[1].Params())
	}
}

func TestFromPathsRequiresSource(t *testing.T) {
	if _, err := FromPaths(nil, Defaults{}); err == nil {
		t.Fatal("expected error for empty path list")
	}
}

func TestLoadManifestResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	body := `jobs:
  - source: camera
    options:
      target_dir: organized
  - source: /abs/phone
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	list, err := LoadManifest(path, Defaults{TargetDir: "/default/target"})
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	if list[0].Source != filepath.Join(dir, "camera") {
		t.Fatalf("unexpected source %q", list[0].Source)
	}
	if list[0].Option(OptTargetDir, "") != filepath.Join(dir, "organized") {
		t.Fatalf("expected manifest override, got %q", list[0].Option(OptTargetDir, ""))
	}
	if list[1].Option(OptTargetDir, "") != "/default/target" {
		t.Fatalf("expected default target, got %q", list[1].Option(OptTargetDir, ""))
	}
	if list[1].Seq != 2 {
		t.Fatalf("expected seq 2, got %d", list[1].Seq)
	}
}

func TestLoadManifestRejectsUnknownOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	body := "jobs:\n  - source: /x\n    options:\n      colour: blue\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	_, err := LoadManifest(path, Defaults{})
	if err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown option error, got %v", err)
	}
}

func TestLoadManifestRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	if err := os.WriteFile(path, []byte("jobs: []\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(path, Defaults{}); err == nil {
		t.Fatal("expected error for empty manifest")
	}
}

func TestMarshalProducesLoadableManifest(t *testing.T) {
	dir := t.TempDir()
	data, err := Marshal([]Job{{Source: "/a", Options: map[string]string{OptLogDir: "/logs"}}})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	path := filepath.Join(dir, "out.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	list, err := LoadManifest(path, Defaults{})
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	if list[0].Source != "/a" || list[0].Option(OptLogDir, "") != "/logs" {
		t.Fatalf("unexpected job %+v", list[0])
	}
}
