package config

const (
	defaultConfigPath           = "~/.config/mediaflow/config.toml"
	defaultSourceDir            = "~/media/inbox"
	defaultTargetDir            = "~/media/organized"
	defaultDefectiveDir         = "~/media/defective"
	defaultNonMediaDir          = "~/media/nonmedia"
	defaultLogDir               = "~/.local/share/mediaflow/logs"
	defaultStateDir             = "~/.local/share/mediaflow/state"
	defaultMaxIterations        = 10
	defaultTurnTimeoutSeconds   = 300
	defaultRetryStrategy        = RetryFlat
	defaultBackoffSeconds       = 60
	defaultMaxBackoffSeconds    = 600
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMReferer           = "https://github.com/mediaflow/mediaflow"
	defaultLLMTitle             = "mediaflow"
	defaultLLMTimeoutSeconds    = 60
	defaultLLMRequestsPerMinute = 20
	defaultDetector             = DetectorLLM
	defaultDetail               = "low"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Retry strategies.
const (
	RetryFlat        = "flat"
	RetryExponential = "exponential"
)

// Content detectors.
const (
	DetectorLLM  = "llm"
	DetectorNone = "none"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:    defaultSourceDir,
			TargetDir:    defaultTargetDir,
			DefectiveDir: defaultDefectiveDir,
			NonMediaDir:  defaultNonMediaDir,
			LogDir:       defaultLogDir,
			StateDir:     defaultStateDir,
		},
		Orchestrator: Orchestrator{
			MaxIterations:      defaultMaxIterations,
			AutomaticReset:     true,
			TurnTimeoutSeconds: defaultTurnTimeoutSeconds,
		},
		Retry: Retry{
			Strategy:          defaultRetryStrategy,
			BackoffSeconds:    defaultBackoffSeconds,
			MaxBackoffSeconds: defaultMaxBackoffSeconds,
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			Referer:           defaultLLMReferer,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			RequestsPerMinute: defaultLLMRequestsPerMinute,
		},
		Content: Content{
			Detector: defaultDetector,
			Detail:   defaultDetail,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
