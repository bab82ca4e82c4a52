package metadata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/metadata"
	"mediaflow/internal/services"
	"mediaflow/internal/testsupport"
)

func setup(t *testing.T) (*metadata.Analyst, jobs.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	list, err := jobs.FromPaths([]string{cfg.Paths.SourceDir}, jobs.DefaultsFromConfig(cfg))
	if err != nil {
		t.Fatalf("FromPaths: %v", err)
	}
	return metadata.New(cfg, logging.NewNop()), list[0]
}

func TestAnalystDatesAndOrganizes(t *testing.T) {
	a, job := setup(t)
	target := job.Option(jobs.OptTargetDir, "")
	summer := time.Date(2019, time.August, 3, 14, 0, 0, 0, time.Local)
	winter := time.Date(2020, time.January, 21, 8, 15, 0, 0, time.Local)
	testsupport.WriteJPEG(t, filepath.Join(job.Source, "summer.jpg"), summer)
	testsupport.WriteJPEG(t, filepath.Join(job.Source, "nested", "winter.jpg"), winter)
	testsupport.WritePNG(t, filepath.Join(job.Source, "screen.png"))
	testsupport.WriteMP4(t, filepath.Join(job.Source, "clip.mp4"))
	clipTime := time.Date(2018, time.March, 5, 10, 0, 0, 0, time.Local)
	if err := os.Chtimes(filepath.Join(job.Source, "clip.mp4"), clipTime, clipTime); err != nil {
		t.Fatal(err)
	}

	out, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out != "relocated=4 unprocessed=1 skipped=1" {
		t.Fatalf("unexpected result %q", out)
	}

	summerPath := filepath.Join(target, "2019", "August", "summer.jpg")
	info, err := os.Stat(summerPath)
	if err != nil {
		t.Fatalf("expected %s: %v", summerPath, err)
	}
	if !info.ModTime().Equal(summer) {
		t.Fatalf("expected mtime %s, got %s", summer, info.ModTime())
	}
	if !fileutil.Exists(filepath.Join(target, "2020", "January", "winter.jpg")) {
		t.Fatal("expected winter.jpg organized by capture date")
	}
	if !fileutil.Exists(filepath.Join(target, "2018", "March", "clip.mp4")) {
		t.Fatal("expected video organized by its existing mtime")
	}
	now := time.Now()
	if !fileutil.Exists(filepath.Join(metadata.DestinationDir(target, now), "screen.png")) {
		t.Fatal("expected undated image organized by its current mtime")
	}
}

func TestAnalystNeverOverwrites(t *testing.T) {
	a, job := setup(t)
	target := job.Option(jobs.OptTargetDir, "")
	captured := time.Date(2021, time.July, 14, 9, 30, 0, 0, time.Local)
	existing := filepath.Join(target, "2021", "July", "dup.jpg")
	testsupport.WriteText(t, existing, "keep me")
	src := filepath.Join(job.Source, "dup.jpg")
	testsupport.WriteJPEG(t, src, captured)

	counts, err := a.Organize(context.Background(), job)
	if err != nil {
		t.Fatalf("Organize returned error: %v", err)
	}
	if counts.Relocated != 0 || counts.Collisions != 1 {
		t.Fatalf("expected collision without relocation, got %+v", counts)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "keep me" {
		t.Fatalf("existing destination was overwritten: %q", data)
	}
	if !fileutil.Exists(src) {
		t.Fatal("source must stay in place on collision")
	}

	out, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != capability.NoActionNeeded {
		t.Fatalf("expected no action when nothing moved, got %q", out)
	}
}

func TestAnalystLeavesNonMediaInPlace(t *testing.T) {
	a, job := setup(t)
	target := job.Option(jobs.OptTargetDir, "")
	notes := filepath.Join(job.Source, "notes.txt")
	testsupport.WriteText(t, notes, "shopping list")
	testsupport.WriteJPEG(t, filepath.Join(job.Source, "pier.jpg"), time.Date(2022, time.May, 1, 12, 0, 0, 0, time.Local))

	counts, err := a.Organize(context.Background(), job)
	if err != nil {
		t.Fatalf("Organize returned error: %v", err)
	}
	if counts.Relocated != 1 || counts.Unprocessed != 1 {
		t.Fatalf("expected one relocation and one unprocessed file, got %+v", counts)
	}
	if !fileutil.Exists(notes) {
		t.Fatal("non-media file must stay in the source directory")
	}
	if fileutil.Exists(filepath.Join(metadata.DestinationDir(target, time.Now()), "notes.txt")) {
		t.Fatal("non-media file was moved into the organized tree")
	}
	if !fileutil.Exists(filepath.Join(target, "2022", "May", "pier.jpg")) {
		t.Fatal("expected pier.jpg organized by capture date")
	}
}

func TestAnalystMissingSource(t *testing.T) {
	a, job := setup(t)
	job.Source = filepath.Join(job.Source, "nope")
	if _, err := a.Invoke(context.Background(), capability.Task{Job: job}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDestinationDirUsesFullMonthName(t *testing.T) {
	got := metadata.DestinationDir("/t", time.Date(2022, time.September, 1, 0, 0, 0, 0, time.UTC))
	if got != filepath.Join("/t", "2022", "September") {
		t.Fatalf("unexpected destination %q", got)
	}
}
