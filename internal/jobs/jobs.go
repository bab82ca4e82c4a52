// Package jobs builds the ordered list of units of work a run consumes.
package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mediaflow/internal/config"
)

// Option keys recognised by the reference capabilities.
const (
	OptTargetDir    = "target_dir"
	OptDefectiveDir = "defective_dir"
	OptNonMediaDir  = "nonmedia_dir"
	OptLogDir       = "log_dir"
)

var knownOptions = map[string]struct{}{
	OptTargetDir:    {},
	OptDefectiveDir: {},
	OptNonMediaDir:  {},
	OptLogDir:       {},
}

// Status is the lifecycle state of a job within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCeiling   Status = "ceiling"
)

// Terminal reports whether a job in status s needs no further turns.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCeiling:
		return true
	}
	return false
}

// Job is one unit of work: a source directory plus per-stage overrides. The
// orchestrator never mutates it.
type Job struct {
	Seq     int               `yaml:"-"`
	Source  string            `yaml:"source"`
	Options map[string]string `yaml:"options,omitempty"`
}

// Option returns the override for key, or fallback when unset.
func (j Job) Option(key, fallback string) string {
	if v, ok := j.Options[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// Params flattens the job into the context map handed to capabilities.
func (j Job) Params() map[string]string {
	out := make(map[string]string, len(j.Options)+1)
	for k, v := range j.Options {
		out[k] = v
	}
	out["source"] = j.Source
	return out
}

// Defaults carries the config-level directories applied to every job.
type Defaults struct {
	TargetDir    string
	DefectiveDir string
	NonMediaDir  string
	LogDir       string
}

// DefaultsFromConfig extracts job defaults from cfg.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	if cfg == nil {
		return Defaults{}
	}
	return Defaults{
		TargetDir:    cfg.Paths.TargetDir,
		DefectiveDir: cfg.Paths.DefectiveDir,
		NonMediaDir:  cfg.Paths.NonMediaDir,
		LogDir:       cfg.Paths.LogDir,
	}
}

func (d Defaults) apply(job *Job) {
	if job.Options == nil {
		job.Options = map[string]string{}
	}
	for key, value := range map[string]string{
		OptTargetDir:    d.TargetDir,
		OptDefectiveDir: d.DefectiveDir,
		OptNonMediaDir:  d.NonMediaDir,
		OptLogDir:       d.LogDir,
	} {
		if value == "" {
			continue
		}
		if _, ok := job.Options[key]; !ok {
			job.Options[key] = value
		}
	}
}

// FromPaths creates one job per source path, sequenced from 1.
func FromPaths(paths []string, defaults Defaults) ([]Job, error) {
	out := make([]Job, 0, len(paths))
	for _, p := range paths {
		source, err := config.ExpandPath(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("job source %q: %w", p, err)
		}
		if source == "" {
			continue
		}
		job := Job{Source: source}
		defaults.apply(&job)
		out = append(out, job)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one source path is required")
	}
	return sequence(out), nil
}

type manifest struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadManifest reads a YAML manifest:
//
//	jobs:
//	  - source: ~/inbox/camera
//	    options:
//	      target_dir: ~/photos
//
// Relative sources resolve against the manifest's directory.
func LoadManifest(path string, defaults Defaults) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no jobs", path)
	}
	base := filepath.Dir(path)
	for i := range m.Jobs {
		job := &m.Jobs[i]
		if strings.TrimSpace(job.Source) == "" {
			return nil, fmt.Errorf("manifest job %d: source is required", i+1)
		}
		if job.Source, err = resolve(base, job.Source); err != nil {
			return nil, fmt.Errorf("manifest job %d: %w", i+1, err)
		}
		if err := validateOptions(job.Options); err != nil {
			return nil, fmt.Errorf("manifest job %d: %w", i+1, err)
		}
		for key, value := range job.Options {
			if job.Options[key], err = resolve(base, value); err != nil {
				return nil, fmt.Errorf("manifest job %d option %s: %w", i+1, key, err)
			}
		}
		defaults.apply(job)
	}
	return sequence(m.Jobs), nil
}

// Marshal renders jobs as a manifest document.
func Marshal(list []Job) ([]byte, error) {
	return yaml.Marshal(manifest{Jobs: list})
}

func validateOptions(opts map[string]string) error {
	unknown := make([]string, 0)
	for key := range opts {
		if _, ok := knownOptions[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown options: %s", strings.Join(unknown, ", "))
}

func resolve(base, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "~") || filepath.IsAbs(value) {
		return config.ExpandPath(value)
	}
	return config.ExpandPath(filepath.Join(base, value))
}

func sequence(list []Job) []Job {
	for i := range list {
		list[i].Seq = i + 1
	}
	return list
}
