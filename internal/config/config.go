package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout the capabilities operate on.
type Paths struct {
	SourceDir    string `toml:"source_dir"`
	TargetDir    string `toml:"target_dir"`
	DefectiveDir string `toml:"defective_dir"`
	NonMediaDir  string `toml:"nonmedia_dir"`
	LogDir       string `toml:"log_dir"`
	StateDir     string `toml:"state_dir"`
}

// Orchestrator contains turn scheduling and termination settings.
type Orchestrator struct {
	MaxIterations      int  `toml:"max_iterations"`
	AutomaticReset     bool `toml:"automatic_reset"`
	TurnTimeoutSeconds int  `toml:"turn_timeout_seconds"`
}

// Retry contains the backoff policy applied around each turn.
type Retry struct {
	Strategy          string `toml:"strategy"`
	BackoffSeconds    int    `toml:"backoff_seconds"`
	MaxBackoffSeconds int    `toml:"max_backoff_seconds"`
	// MaxAttempts bounds attempts per turn. Zero retries indefinitely.
	MaxAttempts int `toml:"max_attempts"`
}

// LLM contains the remote reasoning service connection settings.
type LLM struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Content contains ContentAnalyst settings.
type Content struct {
	Detector string `toml:"detector"`
	Detail   string `toml:"detail"`
}

// Metrics contains the Prometheus exporter settings.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediaflow.
//
// Configuration sections by subsystem:
//   - Paths: source, organized target, quarantine, log, and state directories
//   - Orchestrator: iteration ceiling, automatic reset, and turn timeout
//   - Retry: backoff applied when the reasoning service throttles
//   - LLM: reasoning service connection used by the content detector
//   - Content: detector selection and image detail level
//   - Metrics: Prometheus listener
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Orchestrator Orchestrator `toml:"orchestrator"`
	Retry        Retry        `toml:"retry"`
	LLM          LLM          `toml:"llm"`
	Content      Content      `toml:"content"`
	Metrics      Metrics      `toml:"metrics"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mediaflow.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The source
// directory is left alone: a missing source is reported per job.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TargetDir, c.Paths.DefectiveDir, c.Paths.NonMediaDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TurnTimeout bounds one capability invocation.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Orchestrator.TurnTimeoutSeconds) * time.Second
}

// RetryBackoff returns the base delay between transient retries.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Retry.BackoffSeconds) * time.Second
}

// RetryMaxBackoff caps exponential backoff.
func (c *Config) RetryMaxBackoff() time.Duration {
	return time.Duration(c.Retry.MaxBackoffSeconds) * time.Second
}

// LLMTimeout bounds a single HTTP exchange with the reasoning service.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// DatabasePath returns the run store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "mediaflow.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
