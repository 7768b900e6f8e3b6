package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "ORDER COMPLETE", cfg.Screen.Marker)
	assert.Equal(t, 0.6, cfg.Verify.MatchRatio)
	assert.Equal(t, 80, cfg.Verify.PassScore)
	assert.Equal(t, 45*time.Second, cfg.Audio.ListenTimeout())
	assert.Equal(t, 180*time.Second, cfg.Screen.WaitTimeout())
	assert.Equal(t, 5*time.Second, cfg.Screen.PollInterval())
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Screen.Marker, cfg.Screen.Marker)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "callcheck.yaml")
		body := `
llm:
  provider: gemini
  model: gemini-2.0-flash
screen:
  marker: ORDER PLACED
  wait_timeout_sec: 30
verify:
  pass_score: 90
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "ORDER PLACED", cfg.Screen.Marker)
		assert.Equal(t, 30*time.Second, cfg.Screen.WaitTimeout())
		assert.Equal(t, 90, cfg.Verify.PassScore)
		// Untouched sections keep defaults.
		assert.Equal(t, 8, cfg.Screen.MaxScrolls)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects unknown provider", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.Provider = "gpt-9"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects out-of-range thresholds", func(t *testing.T) {
		cfg := Default()
		cfg.Verify.MatchRatio = 1.5
		assert.Error(t, cfg.Validate())

		cfg = Default()
		cfg.Verify.PassScore = 101
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty marker", func(t *testing.T) {
		cfg := Default()
		cfg.Screen.Marker = ""
		assert.Error(t, cfg.Validate())
	})
}
