package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrchestrator()
	c.normalizeRetry()
	c.normalizeLLM()
	c.normalizeContent()
	c.normalizeLogging()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.source_dir", &c.Paths.SourceDir, defaultSourceDir},
		{"paths.target_dir", &c.Paths.TargetDir, defaultTargetDir},
		{"paths.defective_dir", &c.Paths.DefectiveDir, defaultDefectiveDir},
		{"paths.nonmedia_dir", &c.Paths.NonMediaDir, defaultNonMediaDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeOrchestrator() {
	if c.Orchestrator.MaxIterations == 0 {
		c.Orchestrator.MaxIterations = defaultMaxIterations
	}
	if c.Orchestrator.TurnTimeoutSeconds == 0 {
		c.Orchestrator.TurnTimeoutSeconds = defaultTurnTimeoutSeconds
	}
}

func (c *Config) normalizeRetry() {
	c.Retry.Strategy = strings.ToLower(strings.TrimSpace(c.Retry.Strategy))
	if c.Retry.Strategy == "" {
		c.Retry.Strategy = defaultRetryStrategy
	}
	if c.Retry.BackoffSeconds == 0 {
		c.Retry.BackoffSeconds = defaultBackoffSeconds
	}
	if c.Retry.MaxBackoffSeconds == 0 {
		c.Retry.MaxBackoffSeconds = defaultMaxBackoffSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range []string{"MEDIAFLOW_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeContent() {
	c.Content.Detector = strings.ToLower(strings.TrimSpace(c.Content.Detector))
	if c.Content.Detector == "" {
		c.Content.Detector = defaultDetector
	}
	c.Content.Detail = strings.ToLower(strings.TrimSpace(c.Content.Detail))
	if c.Content.Detail == "" {
		c.Content.Detail = defaultDetail
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
