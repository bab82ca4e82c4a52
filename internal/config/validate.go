package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrchestrator(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateContent(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == c.Paths.TargetDir {
		return errors.New("paths.target_dir must differ from paths.source_dir")
	}
	for key, dir := range map[string]string{
		"paths.defective_dir": c.Paths.DefectiveDir,
		"paths.nonmedia_dir":  c.Paths.NonMediaDir,
	} {
		if dir == c.Paths.SourceDir || dir == c.Paths.TargetDir {
			return fmt.Errorf("%s must differ from the source and target directories", key)
		}
		if isWithin(c.Paths.TargetDir, dir) {
			return fmt.Errorf("%s must not live inside paths.target_dir", key)
		}
	}
	return nil
}

func (c *Config) validateOrchestrator() error {
	if c.Orchestrator.MaxIterations < 1 {
		return errors.New("orchestrator.max_iterations must be at least 1")
	}
	if c.Orchestrator.TurnTimeoutSeconds < 1 {
		return errors.New("orchestrator.turn_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	switch c.Retry.Strategy {
	case RetryFlat, RetryExponential:
	default:
		return fmt.Errorf("retry.strategy: unsupported value %q (want %q or %q)", c.Retry.Strategy, RetryFlat, RetryExponential)
	}
	if c.Retry.BackoffSeconds < 0 {
		return errors.New("retry.backoff_seconds must not be negative")
	}
	if c.Retry.MaxBackoffSeconds < c.Retry.BackoffSeconds {
		return errors.New("retry.max_backoff_seconds must be at least retry.backoff_seconds")
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry.max_attempts must not be negative (0 retries indefinitely)")
	}
	return nil
}

func (c *Config) validateContent() error {
	switch c.Content.Detector {
	case DetectorLLM, DetectorNone:
	default:
		return fmt.Errorf("content.detector: unsupported value %q", c.Content.Detector)
	}
	switch c.Content.Detail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("content.detail: unsupported value %q", c.Content.Detail)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.TimeoutSeconds < 1 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must not be negative")
	}
	if c.Content.Detector != DetectorLLM {
		return nil
	}
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required when content.detector is %q. Set MEDIAFLOW_API_KEY or edit %s (create with 'mediaflow config init')", DetectorLLM, defaultPath)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
