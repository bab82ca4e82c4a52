package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/config"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media"
	"mediaflow/internal/services"
)

const stageName = "MetadataAnalyst"

// Counts summarizes one organization pass.
type Counts struct {
	Relocated   int
	Unprocessed int
	Skipped     int
	// Collisions counts files left in place because the destination held a
	// file with the same name.
	Collisions int
}

func (c Counts) String() string {
	return fmt.Sprintf("relocated=%d unprocessed=%d skipped=%d", c.Relocated, c.Unprocessed, c.Skipped)
}

// Analyst dates and organizes media.
type Analyst struct {
	defaults    jobs.Defaults
	logger      *slog.Logger
	captureTime func(path string) (time.Time, error)
}

// New constructs the analyst using config paths as per-job fallbacks.
func New(cfg *config.Config, logger *slog.Logger) *Analyst {
	return &Analyst{
		defaults:    jobs.DefaultsFromConfig(cfg),
		logger:      logging.NewComponentLogger(logger, "metadata"),
		captureTime: media.CaptureTime,
	}
}

func (a *Analyst) Name() chat.CapabilityName { return chat.MetadataAnalyst }

func (a *Analyst) Invoke(ctx context.Context, task capability.Task) (string, error) {
	counts, err := a.Organize(ctx, task.Job)
	if err != nil {
		return "", err
	}
	if counts.Relocated == 0 {
		return capability.NoActionNeeded, nil
	}
	return counts.String(), nil
}

// Organize dates and relocates every file beneath the job's source.
func (a *Analyst) Organize(ctx context.Context, job jobs.Job) (Counts, error) {
	logger := logging.WithContext(ctx, a.logger)
	var counts Counts

	if err := capability.RequireDir(stageName, job.Source); err != nil {
		return counts, err
	}
	target := job.Option(jobs.OptTargetDir, a.defaults.TargetDir)
	if target == "" {
		return counts, services.Wrap(services.ErrConfiguration, stageName, "resolve target", "No target directory configured", nil)
	}
	if err := fileutil.EnsureDir(target); err != nil {
		return counts, services.Wrap(services.ErrExternalTool, stageName, "prepare target", "Cannot create target directory", err)
	}

	files, err := fileutil.ListFiles(ctx, job.Source,
		target,
		job.Option(jobs.OptNonMediaDir, a.defaults.NonMediaDir),
		job.Option(jobs.OptDefectiveDir, a.defaults.DefectiveDir),
	)
	if err != nil {
		if ierr := capability.Interrupted(ctx, stageName, "scan source"); ierr != nil {
			return counts, ierr
		}
		return counts, capability.RequireDir(stageName, job.Source)
	}

	for _, path := range files {
		if err := capability.Interrupted(ctx, stageName, "organize"); err != nil {
			return counts, err
		}
		if !a.stamp(logger, path, &counts) {
			continue
		}
		a.relocate(logger, path, target, &counts)
	}

	logger.Info("organization pass complete",
		logging.String(logging.FieldEventType, "organize_complete"),
		logging.String("source", job.Source),
		logging.String("target", target),
		logging.Int("relocated", counts.Relocated),
		logging.Int("unprocessed", counts.Unprocessed),
		logging.Int("skipped", counts.Skipped),
		logging.Int("collisions", counts.Collisions),
	)
	return counts, nil
}

// stamp rewrites the file's times from EXIF and reports whether the file
// should be relocated. Videos are skipped but still organized; images without
// a readable capture time keep their mtime. Anything that is not media stays
// where it is.
func (a *Analyst) stamp(logger *slog.Logger, path string, counts *Counts) bool {
	info, err := media.Probe(path)
	if err != nil {
		counts.Unprocessed++
		logger.Debug("cannot probe file", logging.String("file", path), logging.Error(err))
		return false
	}
	switch info.Kind {
	case media.KindVideo:
		counts.Skipped++
		return true
	case media.KindImage:
	default:
		counts.Unprocessed++
		logger.Debug("not a media file; leaving in place",
			logging.String("file", path),
			logging.String("mime", info.MIME),
		)
		return false
	}
	captured, err := a.captureTime(path)
	if err != nil {
		counts.Unprocessed++
		logger.Debug("capture time unavailable",
			logging.String("file", path),
			logging.String("mime", info.MIME),
			logging.Error(err),
		)
		return true
	}
	if err := os.Chtimes(path, captured, captured); err != nil {
		counts.Unprocessed++
		logger.Warn("failed to rewrite modification time", logging.String("file", path), logging.Error(err))
	}
	return true
}

func (a *Analyst) relocate(logger *slog.Logger, path, target string, counts *Counts) {
	stat, err := os.Stat(path)
	if err != nil {
		logger.Warn("file vanished before relocation", logging.String("file", path), logging.Error(err))
		return
	}
	dir := DestinationDir(target, stat.ModTime())
	dst := filepath.Join(dir, filepath.Base(path))
	if fileutil.Exists(dst) {
		counts.Collisions++
		logger.Info("destination occupied; leaving file in place",
			logging.String(logging.FieldEventType, "organize_collision"),
			logging.String("file", path),
			logging.String("destination", dst),
		)
		return
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		logger.Warn("cannot create destination", logging.String("dir", dir), logging.Error(err))
		return
	}
	if err := fileutil.MoveNoReplace(path, dst); err != nil {
		if errors.Is(err, fileutil.ErrDestinationExists) {
			counts.Collisions++
			return
		}
		logging.WarnWithContext(logger, "relocation failed", "organize_move_failed",
			logging.String("file", path),
			logging.String("destination", dst),
			logging.Error(err),
		)
		return
	}
	counts.Relocated++
}

// DestinationDir returns <target>/<year>/<Month> for t.
func DestinationDir(target string, t time.Time) string {
	return filepath.Join(target, strconv.Itoa(t.Year()), t.Month().String())
}
