package content_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/content"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
	"mediaflow/internal/testsupport"
)

type stubDetector struct {
	calls   []string
	tags    map[string][]string
	failOn  string
	failErr error
}

func (s *stubDetector) Detect(_ context.Context, path string) ([]string, error) {
	s.calls = append(s.calls, filepath.Base(path))
	if s.failOn != "" && filepath.Base(path) == s.failOn {
		err := s.failErr
		s.failOn = ""
		return nil, err
	}
	if tags, ok := s.tags[filepath.Base(path)]; ok {
		return tags, nil
	}
	return []string{"object"}, nil
}

func fixedClock() func() time.Time {
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.Local)
	return func() time.Time { return base }
}

func setup(t *testing.T, det content.Detector) (*content.Analyst, jobs.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	list, err := jobs.FromPaths([]string{cfg.Paths.SourceDir}, jobs.DefaultsFromConfig(cfg))
	if err != nil {
		t.Fatalf("FromPaths: %v", err)
	}
	return content.New(cfg, det, logging.NewNop(), content.WithClock(fixedClock())), list[0]
}

func readLog(t *testing.T, job jobs.Job) string {
	t.Helper()
	path := filepath.Join(job.Option(jobs.OptLogDir, ""), "2026-03-02.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	return string(data)
}

func entryLines(log string) []string {
	var out []string
	for _, line := range strings.Split(log, "\n") {
		if strings.Contains(line, " | ") {
			out = append(out, line)
		}
	}
	return out
}

func TestAnalystLogsImagesWithDetections(t *testing.T) {
	det := &stubDetector{tags: map[string][]string{"empty.png": nil}}
	a, job := setup(t, det)
	target := job.Option(jobs.OptTargetDir, "")
	testsupport.WriteJPEG(t, filepath.Join(target, "2019", "August", "beach.jpg"), time.Time{})
	testsupport.WritePNG(t, filepath.Join(target, "2019", "August", "empty.png"))
	testsupport.WriteMP4(t, filepath.Join(target, "2019", "August", "clip.mp4"))

	out, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out != "images_processed=2 images_with_detections=1" {
		t.Fatalf("unexpected result %q", out)
	}
	for _, name := range det.calls {
		if name == "clip.mp4" {
			t.Fatal("video must not reach the detector")
		}
	}
	lines := entryLines(readLog(t, job))
	if len(lines) != 1 || lines[0] != "2019/August/beach.jpg | object | 0s" {
		t.Fatalf("unexpected log lines %q", lines)
	}
}

func TestAnalystSkipsAnalysedImages(t *testing.T) {
	det := &stubDetector{}
	a, job := setup(t, det)
	target := job.Option(jobs.OptTargetDir, "")
	testsupport.WriteJPEG(t, filepath.Join(target, "a.jpg"), time.Time{})

	if _, err := a.Invoke(context.Background(), capability.Task{Job: job}); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	out, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if out != capability.NoActionNeeded {
		t.Fatalf("expected no action on second pass, got %q", out)
	}
	if len(det.calls) != 1 {
		t.Fatalf("expected one detector call, got %v", det.calls)
	}
	if n := len(entryLines(readLog(t, job))); n != 1 {
		t.Fatalf("expected one log entry overall, got %d", n)
	}
}

func TestAnalystTransientFailureFlushesAndResumes(t *testing.T) {
	det := &stubDetector{
		failOn:  "b.jpg",
		failErr: services.Wrap(services.ErrTransient, "llm", "detect", "Rate limit is exceeded", nil),
	}
	a, job := setup(t, det)
	target := job.Option(jobs.OptTargetDir, "")
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		testsupport.WriteJPEG(t, filepath.Join(target, name), time.Time{})
	}

	_, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if n := len(entryLines(readLog(t, job))); n != 1 {
		t.Fatalf("expected the analysed image to be flushed, got %d entries", n)
	}

	out, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if err != nil {
		t.Fatalf("retry pass: %v", err)
	}
	if out != "images_processed=2 images_with_detections=2" {
		t.Fatalf("unexpected retry result %q", out)
	}
	if n := len(entryLines(readLog(t, job))); n != 3 {
		t.Fatalf("expected 3 entries after retry, got %d", n)
	}
}

func TestAnalystAbsorbsPermanentDetectorErrors(t *testing.T) {
	det := &stubDetector{failOn: "a.jpg", failErr: errors.New("model refused")}
	a, job := setup(t, det)
	target := job.Option(jobs.OptTargetDir, "")
	testsupport.WriteJPEG(t, filepath.Join(target, "a.jpg"), time.Time{})
	testsupport.WriteJPEG(t, filepath.Join(target, "b.jpg"), time.Time{})

	counts, err := a.Analyze(context.Background(), job)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if counts.Failed != 1 || counts.ImagesProcessed != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestAnalystMissingTarget(t *testing.T) {
	a, job := setup(t, &stubDetector{})
	_, err := a.Invoke(context.Background(), capability.Task{Job: job})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing target, got %v", err)
	}
}

func TestHealthCheckReflectsDetector(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if content.New(cfg, nil, nil).HealthCheck(context.Background()).Ready {
		t.Fatal("expected nop detector to report not ready")
	}
	if !content.New(cfg, &stubDetector{}, nil).HealthCheck(context.Background()).Ready {
		t.Fatal("expected configured detector to report ready")
	}
}

type tagger struct{ tags []string }

func (t tagger) DetectObjects(context.Context, string, string) ([]string, error) { return t.tags, nil }

func TestLLMDetectorNormalizesTags(t *testing.T) {
	d := content.LLMDetector{Tagger: tagger{tags: []string{" Dog", "dog", "", "Person "}}, Detail: "low"}
	tags, err := d.Detect(context.Background(), "x.jpg")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if strings.Join(tags, ",") != "dog,person" {
		t.Fatalf("unexpected tags %v", tags)
	}
}
