package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/config"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media"
)

const stageName = "MediaValidator"

// Counts summarizes one validation pass.
type Counts struct {
	Processed int
	Valid     int
	NonMedia  int
	Defective int
	// MoveFailures counts quarantined files left in place because the move
	// was refused.
	MoveFailures int
}

func (c Counts) String() string {
	return fmt.Sprintf("processed=%d valid=%d nonmedia=%d defective=%d", c.Processed, c.Valid, c.NonMedia, c.Defective)
}

// Validator classifies and quarantines files.
type Validator struct {
	defaults jobs.Defaults
	logger   *slog.Logger
}

// New constructs the validator using config paths as per-job fallbacks.
func New(cfg *config.Config, logger *slog.Logger) *Validator {
	return &Validator{
		defaults: jobs.DefaultsFromConfig(cfg),
		logger:   logging.NewComponentLogger(logger, "validator"),
	}
}

func (v *Validator) Name() chat.CapabilityName { return chat.MediaValidator }

// Invoke runs one validation pass over the job's source directory.
func (v *Validator) Invoke(ctx context.Context, task capability.Task) (string, error) {
	counts, err := v.Validate(ctx, task.Job)
	if err != nil {
		return "", err
	}
	if counts.Processed == 0 {
		return capability.NoActionNeeded, nil
	}
	return counts.String(), nil
}

// Validate classifies every file beneath the job's source.
func (v *Validator) Validate(ctx context.Context, job jobs.Job) (Counts, error) {
	logger := logging.WithContext(ctx, v.logger)
	var counts Counts

	source := job.Source
	if err := capability.RequireDir(stageName, source); err != nil {
		return counts, err
	}
	nonMediaDir := job.Option(jobs.OptNonMediaDir, v.defaults.NonMediaDir)
	defectiveDir := job.Option(jobs.OptDefectiveDir, v.defaults.DefectiveDir)
	targetDir := job.Option(jobs.OptTargetDir, v.defaults.TargetDir)
	if nonMediaDir == "" || defectiveDir == "" {
		return counts, errors.New("validator: quarantine directories are not configured")
	}

	files, err := fileutil.ListFiles(ctx, source, nonMediaDir, defectiveDir, targetDir)
	if err != nil {
		if ierr := capability.Interrupted(ctx, stageName, "scan source"); ierr != nil {
			return counts, ierr
		}
		return counts, capability.RequireDir(stageName, source)
	}

	for _, path := range files {
		if err := capability.Interrupted(ctx, stageName, "classify"); err != nil {
			return counts, err
		}
		counts.Processed++
		class, reason := classify(path)
		switch class {
		case classValid:
			counts.Valid++
			continue
		case classNonMedia:
			counts.NonMedia++
			v.quarantine(logger, path, nonMediaDir, "nonmedia", reason, &counts)
		case classDefective:
			counts.Defective++
			v.quarantine(logger, path, defectiveDir, "defective", reason, &counts)
		}
	}

	logger.Info("validation pass complete",
		logging.String(logging.FieldEventType, "validation_complete"),
		logging.String("source", source),
		logging.Int("processed", counts.Processed),
		logging.Int("valid", counts.Valid),
		logging.Int("nonmedia", counts.NonMedia),
		logging.Int("defective", counts.Defective),
		logging.Int("move_failures", counts.MoveFailures),
	)
	return counts, nil
}

func (v *Validator) quarantine(logger *slog.Logger, path, dir, label, reason string, counts *Counts) {
	dst, err := fileutil.MoveInto(path, dir)
	if err != nil {
		counts.MoveFailures++
		logging.WarnWithContext(logger, "quarantine move skipped", "quarantine_failed",
			logging.String("file", path),
			logging.String("classification", label),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "a file with the same name is already quarantined or the directory is on another filesystem"),
		)
		return
	}
	logger.Debug("file quarantined",
		logging.String("file", filepath.Base(path)),
		logging.String("classification", label),
		logging.String("reason", reason),
		logging.String("destination", dst),
	)
}

type class int

const (
	classValid class = iota
	classNonMedia
	classDefective
)

func classify(path string) (class, string) {
	info, err := media.Probe(path)
	if err != nil {
		return classDefective, err.Error()
	}
	if !info.IsMedia() {
		return classNonMedia, info.MIME
	}
	if info.Kind == media.KindImage {
		if err := media.VerifyImage(path); err != nil {
			return classDefective, err.Error()
		}
	}
	return classValid, info.MIME
}
