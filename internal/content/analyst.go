package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/config"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media"
	"mediaflow/internal/retry"
	"mediaflow/internal/services"
)

const stageName = "ContentAnalyst"

// Counts summarizes one analysis pass.
type Counts struct {
	ImagesProcessed      int
	ImagesWithDetections int
	Failed               int
}

func (c Counts) String() string {
	return fmt.Sprintf("images_processed=%d images_with_detections=%d", c.ImagesProcessed, c.ImagesWithDetections)
}

// Analyst runs object detection over organized images.
type Analyst struct {
	defaults jobs.Defaults
	detector Detector
	index    Index
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes the analyst.
type Option func(*Analyst)

// WithIndex replaces the in-memory index.
func WithIndex(index Index) Option {
	return func(a *Analyst) {
		if index != nil {
			a.index = index
		}
	}
}

// WithClock overrides the clock used for record timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(a *Analyst) {
		if now != nil {
			a.now = now
		}
	}
}

// New constructs the analyst. A nil detector disables detection.
func New(cfg *config.Config, detector Detector, logger *slog.Logger, opts ...Option) *Analyst {
	if detector == nil {
		detector = NopDetector{}
	}
	a := &Analyst{
		defaults: jobs.DefaultsFromConfig(cfg),
		detector: detector,
		index:    NewMemoryIndex(),
		logger:   logging.NewComponentLogger(logger, "content"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyst) Name() chat.CapabilityName { return chat.ContentAnalyst }

// HealthCheck reports whether a real detector is configured.
func (a *Analyst) HealthCheck(context.Context) capability.Health {
	if _, ok := a.detector.(NopDetector); ok {
		return capability.Unhealthy(string(chat.ContentAnalyst), "object detection disabled (content.detector = none)")
	}
	return capability.Healthy(string(chat.ContentAnalyst))
}

func (a *Analyst) Invoke(ctx context.Context, task capability.Task) (string, error) {
	counts, err := a.Analyze(ctx, task.Job)
	if err != nil {
		return "", err
	}
	if counts.ImagesProcessed == 0 {
		return capability.NoActionNeeded, nil
	}
	return counts.String(), nil
}

// Analyze runs detection on images under the job's target directory that the
// index has not seen.
func (a *Analyst) Analyze(ctx context.Context, job jobs.Job) (Counts, error) {
	logger := logging.WithContext(ctx, a.logger)
	var counts Counts

	target := job.Option(jobs.OptTargetDir, a.defaults.TargetDir)
	if err := capability.RequireDir(stageName, target); err != nil {
		return counts, err
	}
	logDir := job.Option(jobs.OptLogDir, a.defaults.LogDir)
	if logDir == "" {
		return counts, services.Wrap(services.ErrConfiguration, stageName, "resolve log dir", "No log directory configured", nil)
	}
	audit := NewAuditLog(logDir)

	files, err := fileutil.ListFiles(ctx, target, logDir)
	if err != nil {
		if ierr := capability.Interrupted(ctx, stageName, "scan target"); ierr != nil {
			return counts, ierr
		}
		return counts, capability.RequireDir(stageName, target)
	}

	rec := Record{Started: a.now(), JobSeq: job.Seq, Source: job.Source}
	if id, ok := services.RunIDFromContext(ctx); ok {
		rec.RunID = id
	}

	flush := func() {
		path, err := audit.Append(rec)
		if err != nil {
			logging.WarnWithContext(logger, "audit log append failed", "content_log_failed",
				logging.String("dir", logDir), logging.Error(err))
			return
		}
		if path != "" {
			logger.Debug("audit record appended", logging.String("path", path), logging.Int("lines", len(rec.Lines)))
		}
	}

	for _, path := range files {
		if err := capability.Interrupted(ctx, stageName, "detect"); err != nil {
			flush()
			return counts, err
		}
		entry, ok := a.candidate(ctx, logger, path)
		if !ok {
			continue
		}

		started := a.now()
		tags, err := a.detector.Detect(ctx, path)
		elapsed := a.now().Sub(started)
		if err != nil {
			if retry.Classify(err) == retry.ClassTransient || ctx.Err() != nil {
				flush()
				return counts, err
			}
			counts.Failed++
			logging.WarnWithContext(logger, "object detection failed", "detection_failed",
				logging.String("file", path), logging.Error(err))
			continue
		}

		counts.ImagesProcessed++
		if len(tags) > 0 {
			counts.ImagesWithDetections++
			rel, relErr := filepath.Rel(target, path)
			if relErr != nil {
				rel = path
			}
			rec.Lines = append(rec.Lines, Line{RelPath: filepath.ToSlash(rel), Tags: tags, Duration: elapsed})
		}
		if err := a.index.Record(ctx, entry, tags); err != nil {
			logger.Warn("content index update failed", logging.String("file", path), logging.Error(err))
		}
		logger.Debug("image analysed",
			logging.String("file", path),
			logging.Int("tags", len(tags)),
			logging.Duration("elapsed", elapsed),
		)
	}
	flush()

	logger.Info("content analysis pass complete",
		logging.String(logging.FieldEventType, "content_complete"),
		logging.String("target", target),
		logging.Int("images_processed", counts.ImagesProcessed),
		logging.Int("images_with_detections", counts.ImagesWithDetections),
		logging.Int("failed", counts.Failed),
	)
	return counts, nil
}

// candidate reports whether path is a still image the index has not seen.
func (a *Analyst) candidate(ctx context.Context, logger *slog.Logger, path string) (Entry, bool) {
	info, err := media.Probe(path)
	if err != nil || info.Kind != media.KindImage {
		return Entry{}, false
	}
	stat, err := os.Stat(path)
	if err != nil {
		return Entry{}, false
	}
	entry := Entry{Path: path, Size: stat.Size(), ModTime: stat.ModTime()}
	seen, err := a.index.Seen(ctx, entry)
	if err != nil {
		logger.Warn("content index lookup failed", logging.String("file", path), logging.Error(err))
		return entry, true
	}
	return entry, !seen
}
