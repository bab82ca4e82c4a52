package validator_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/retry"
	"mediaflow/internal/services"
	"mediaflow/internal/testsupport"
	"mediaflow/internal/validator"
)

func newJob(t *testing.T) (*validator.Validator, jobs.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	v := validator.New(cfg, logging.NewNop())
	list, err := jobs.FromPaths([]string{cfg.Paths.SourceDir}, jobs.DefaultsFromConfig(cfg))
	if err != nil {
		t.Fatalf("FromPaths: %v", err)
	}
	return v, list[0]
}

func TestValidatorClassifiesAndQuarantines(t *testing.T) {
	v, job := newJob(t)
	src := job.Source
	testsupport.WriteJPEG(t, filepath.Join(src, "a.jpg"), time.Now())
	testsupport.WritePNG(t, filepath.Join(src, "sub", "b.png"))
	testsupport.WriteMP4(t, filepath.Join(src, "clip.mp4"))
	testsupport.WriteText(t, filepath.Join(src, "notes.jpg"), "not an image at all\n")
	testsupport.WriteFile(t, filepath.Join(src, "empty.png"), 0)
	testsupport.WriteTruncatedJPEG(t, filepath.Join(src, "broken.jpg"))

	out, err := v.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out != "processed=6 valid=3 nonmedia=1 defective=2" {
		t.Fatalf("unexpected result %q", out)
	}
	nonmedia := job.Option(jobs.OptNonMediaDir, "")
	defective := job.Option(jobs.OptDefectiveDir, "")
	if !fileutil.Exists(filepath.Join(nonmedia, "notes.jpg")) {
		t.Fatal("expected notes.jpg in nonmedia")
	}
	for _, name := range []string{"empty.png", "broken.jpg"} {
		if !fileutil.Exists(filepath.Join(defective, name)) {
			t.Fatalf("expected %s in defective", name)
		}
	}
	for _, name := range []string{"a.jpg", "sub/b.png", "clip.mp4"} {
		if !fileutil.Exists(filepath.Join(src, name)) {
			t.Fatalf("expected %s to stay in source", name)
		}
	}
}

func TestValidatorIsIdempotent(t *testing.T) {
	v, job := newJob(t)
	src := job.Source
	testsupport.WriteJPEG(t, filepath.Join(src, "a.jpg"), time.Time{})
	testsupport.WritePNG(t, filepath.Join(src, "b.png"))
	testsupport.WriteText(t, filepath.Join(src, "c.txt"), "hello\n")

	first, err := v.Validate(context.Background(), job)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if first.NonMedia != 1 {
		t.Fatalf("expected one nonmedia move, got %+v", first)
	}
	second, err := v.Validate(context.Background(), job)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	third, err := v.Validate(context.Background(), job)
	if err != nil {
		t.Fatalf("third pass: %v", err)
	}
	if second.NonMedia+second.Defective != 0 {
		t.Fatalf("expected no moves on a classified directory, got %+v", second)
	}
	if second != third {
		t.Fatalf("expected identical counts, got %+v and %+v", second, third)
	}
}

func TestValidatorSkipsNestedQuarantine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.NonMediaDir = filepath.Join(cfg.Paths.SourceDir, "nonmedia")
	v := validator.New(cfg, nil)
	list, err := jobs.FromPaths([]string{cfg.Paths.SourceDir}, jobs.DefaultsFromConfig(cfg))
	if err != nil {
		t.Fatalf("FromPaths: %v", err)
	}
	testsupport.WriteText(t, filepath.Join(cfg.Paths.SourceDir, "a.txt"), "a\n")

	if _, err := v.Validate(context.Background(), list[0]); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	out, err := v.Invoke(context.Background(), capability.Task{Job: list[0]})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if out != capability.NoActionNeeded {
		t.Fatalf("expected quarantine contents to be ignored, got %q", out)
	}
}

func TestValidatorEmptySourceNeedsNoAction(t *testing.T) {
	v, job := newJob(t)
	testsupport.WriteText(t, filepath.Join(job.Source, ".keep"), "")
	// The placeholder is empty, so it is processed once and quarantined.
	if _, err := v.Invoke(context.Background(), capability.Task{Job: job}); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	out, err := v.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out != capability.NoActionNeeded {
		t.Fatalf("expected no action, got %q", out)
	}
}

func TestValidatorMissingSourceIsInvalidInput(t *testing.T) {
	v, job := newJob(t)
	job.Source = filepath.Join(job.Source, "missing")
	_, err := v.Invoke(context.Background(), capability.Task{Job: job})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if retry.Classify(err) != retry.ClassInvalidInput {
		t.Fatalf("expected invalid input class, got %s", retry.Classify(err))
	}
}

func TestValidatorLeavesFileWhenQuarantineHasSameName(t *testing.T) {
	v, job := newJob(t)
	nonmedia := job.Option(jobs.OptNonMediaDir, "")
	testsupport.WriteText(t, filepath.Join(nonmedia, "dup.txt"), "old\n")
	testsupport.WriteText(t, filepath.Join(job.Source, "dup.txt"), "new\n")

	counts, err := v.Validate(context.Background(), job)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if counts.MoveFailures != 1 {
		t.Fatalf("expected a refused move, got %+v", counts)
	}
	if !fileutil.Exists(filepath.Join(job.Source, "dup.txt")) {
		t.Fatal("source file must stay in place")
	}
}
