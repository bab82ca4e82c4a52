package testsupport

import (
	"path/filepath"
	"testing"

	"mediaflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The content detector is disabled so tests never reach the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.TargetDir = filepath.Join(base, "organized")
	cfgVal.Paths.DefectiveDir = filepath.Join(base, "defective")
	cfgVal.Paths.NonMediaDir = filepath.Join(base, "nonmedia")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Content.Detector = config.DetectorNone
	cfgVal.LLM.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMaxIterations overrides the orchestrator ceiling.
func WithMaxIterations(n int, automaticReset bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Orchestrator.MaxIterations = n
		b.cfg.Orchestrator.AutomaticReset = automaticReset
	}
}

// WithLLM points the reasoning client at baseURL and enables the llm detector.
func WithLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.Content.Detector = config.DetectorLLM
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
