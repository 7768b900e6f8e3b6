// Package config holds all callcheck configuration, loaded once per run from
// a YAML file with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all callcheck configuration.
type Config struct {
	// Run-level settings
	Run RunConfig `yaml:"run"`

	// LLM backend for persona generation and item extraction
	LLM LLMConfig `yaml:"llm"`

	// Audio capture, transcription, and synthesis
	Audio AudioConfig `yaml:"audio"`

	// Order-confirmation screen scraping
	Screen ScreenConfig `yaml:"screen"`

	// Verification scoring policy
	Verify VerifyConfig `yaml:"verify"`

	// Run-history store
	Store StoreConfig `yaml:"store"`
}

// RunConfig configures per-run directories and conversation bounds.
type RunConfig struct {
	PersonasDir   string `yaml:"personas_dir"`
	LogDir        string `yaml:"log_dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	// MaxTurns bounds the conversation loop.
	MaxTurns int `yaml:"max_turns"`

	// MaxListenRetries bounds in-place retries on unintelligible audio.
	MaxListenRetries int `yaml:"max_listen_retries"`
}

// LLMConfig configures the language-model backend.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // ollama, gemini
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Timeout returns the per-request LLM timeout.
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// AudioConfig configures listening and speaking.
type AudioConfig struct {
	// External whisper inference endpoint and capture command.
	TranscriberURL string   `yaml:"transcriber_url"`
	CaptureCommand []string `yaml:"capture_command"`

	// TTS synthesis endpoint, voice, and local playback command.
	TTSURL        string   `yaml:"tts_url"`
	Voice         string   `yaml:"voice"`
	PlayerCommand []string `yaml:"player_command"`
	AudioDir      string   `yaml:"audio_dir"`

	ListenTimeoutSec   int `yaml:"listen_timeout_sec"`
	PhraseTimeLimitSec int `yaml:"phrase_time_limit_sec"`
}

// ListenTimeout returns how long to wait for the agent to start speaking.
func (c AudioConfig) ListenTimeout() time.Duration {
	if c.ListenTimeoutSec <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.ListenTimeoutSec) * time.Second
}

// PhraseTimeLimit returns the maximum length of a single captured phrase.
func (c AudioConfig) PhraseTimeLimit() time.Duration {
	if c.PhraseTimeLimitSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PhraseTimeLimitSec) * time.Second
}

// ScreenConfig configures the order-confirmation scraper.
type ScreenConfig struct {
	// DebuggerURL attaches to a running Chrome; Launch starts one
	// (binary followed by flags) when empty.
	DebuggerURL string   `yaml:"debugger_url"`
	Launch      []string `yaml:"launch"`
	Headless    bool     `yaml:"headless"`
	AppURL      string   `yaml:"app_url"`

	// Marker is the text that identifies the confirmation screen.
	Marker string `yaml:"marker"`

	WaitTimeoutSec  int `yaml:"wait_timeout_sec"`
	PollIntervalSec int `yaml:"poll_interval_sec"`
	MaxScrolls      int `yaml:"max_scrolls"`
	TabRetries      int `yaml:"tab_retries"`
}

// WaitTimeout returns how long to wait for the confirmation screen.
func (c ScreenConfig) WaitTimeout() time.Duration {
	if c.WaitTimeoutSec <= 0 {
		return 180 * time.Second
	}
	return time.Duration(c.WaitTimeoutSec) * time.Second
}

// PollInterval returns the delay between confirmation-screen checks.
func (c ScreenConfig) PollInterval() time.Duration {
	if c.PollIntervalSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollIntervalSec) * time.Second
}

// VerifyConfig configures scoring thresholds.
type VerifyConfig struct {
	// MatchRatio is the minimum fraction of item keywords that must appear
	// on screen for a token-set match.
	MatchRatio float64 `yaml:"match_ratio"`

	// PassScore is the minimum 0-100 score for a passing verdict.
	PassScore int `yaml:"pass_score"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			PersonasDir:      "personas",
			LogDir:           "logs",
			ScreenshotDir:    "screenshots",
			MaxTurns:         40,
			MaxListenRetries: 5,
		},
		LLM: LLMConfig{
			Provider:  "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "llama3.2",
			TimeoutMs: 30000,
		},
		Audio: AudioConfig{
			TranscriberURL:     "http://localhost:8080/inference",
			CaptureCommand:     []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1"},
			TTSURL:             "http://localhost:5002/api/tts",
			Voice:              "en-US-GuyNeural",
			PlayerCommand:      []string{"aplay", "-q"},
			AudioDir:           os.TempDir(),
			ListenTimeoutSec:   45,
			PhraseTimeLimitSec: 30,
		},
		Screen: ScreenConfig{
			Headless:        true,
			Marker:          "ORDER COMPLETE",
			WaitTimeoutSec:  180,
			PollIntervalSec: 5,
			MaxScrolls:      8,
			TabRetries:      3,
		},
		Verify: VerifyConfig{
			MatchRatio: 0.6,
			PassScore:  80,
		},
		Store: StoreConfig{
			Path: "callcheck.db",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged. The LLM API key falls back to GEMINI_API_KEY when the
// gemini provider is selected and no key is configured.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "gemini" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface mid-run.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Verify.MatchRatio <= 0 || c.Verify.MatchRatio > 1 {
		return fmt.Errorf("verify.match_ratio must be in (0,1], got %v", c.Verify.MatchRatio)
	}
	if c.Verify.PassScore < 0 || c.Verify.PassScore > 100 {
		return fmt.Errorf("verify.pass_score must be in [0,100], got %d", c.Verify.PassScore)
	}
	if c.Run.MaxTurns <= 0 {
		return fmt.Errorf("run.max_turns must be positive")
	}
	if c.Run.MaxListenRetries < 0 {
		return fmt.Errorf("run.max_listen_retries must not be negative")
	}
	if c.Screen.Marker == "" {
		return fmt.Errorf("screen.marker must not be empty")
	}
	return nil
}
