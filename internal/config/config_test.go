package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv(PathEnvVar, "")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "push", cfg.Link.Mode)
		assert.Equal(t, 500*time.Millisecond, cfg.Link.PollInterval)
		assert.Equal(t, 0.6, cfg.Tracking.MinConfidence)
		assert.Equal(t, []string{"shaka", "cursor", "draw"}, cfg.Gesture.Enabled)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeFile(t, `
link:
  mode: poll
  poll_interval: 250ms
tracking:
  mirror: true
  default_side: left
gesture:
  enabled: [cursor]
  near_threshold: 0.02
plugins:
  bindings:
    - gesture: cursor
      event: fired
      trigger: 1
      plugin: keyboard
      action: press
      params:
        key: up
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "poll", cfg.Link.Mode)
		assert.Equal(t, 250*time.Millisecond, cfg.Link.PollInterval)
		assert.True(t, cfg.Tracking.Mirror)
		assert.Equal(t, "left", cfg.Tracking.DefaultSide)
		assert.Equal(t, []string{"cursor"}, cfg.Gesture.Enabled)
		assert.Equal(t, 0.02, cfg.Gesture.NearThreshold)
		assert.Equal(t, "127.0.0.1:7860", cfg.Link.Listen, "unset keys keep defaults")

		require.Len(t, cfg.Plugins.Bindings, 1)
		b := cfg.Plugins.Bindings[0]
		require.NotNil(t, b.Trigger)
		assert.Equal(t, 1, *b.Trigger)
		assert.Equal(t, "up", b.Params["key"])
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeFile(t, "link:\n  listen: 0.0.0.0:9000\n")
		t.Setenv("MUDRA_LINK__LISTEN", "127.0.0.1:9100")
		t.Setenv("MUDRA_GESTURE__ENABLED", "shaka, draw")
		t.Setenv("MUDRA_STORE__ENABLED", "true")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9100", cfg.Link.Listen)
		assert.Equal(t, []string{"shaka", "draw"}, cfg.Gesture.Enabled)
		assert.True(t, cfg.Store.Enabled)
	})

	t.Run("config path from environment", func(t *testing.T) {
		chdir(t, t.TempDir())
		path := writeFile(t, "log:\n  level: debug\n")
		t.Setenv(PathEnvVar, path)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad mode", func(c *Config) { c.Link.Mode = "stream" }},
		{"bad side", func(c *Config) { c.Tracking.DefaultSide = "up" }},
		{"confidence above one", func(c *Config) { c.Tracking.MinConfidence = 1.5 }},
		{"unknown gesture", func(c *Config) { c.Gesture.Enabled = []string{"wave"} }},
		{"no gestures", func(c *Config) { c.Gesture.Enabled = nil }},
		{"zero poll interval", func(c *Config) { c.Link.PollInterval = 0 }},
		{"store without path", func(c *Config) { c.Store.Enabled = true; c.Store.Path = "" }},
		{"binding without plugin", func(c *Config) {
			c.Plugins.Bindings = []BindingConfig{{Gesture: "shaka", Event: "began", Action: "press"}}
		}},
		{"binding with bad event", func(c *Config) {
			c.Plugins.Bindings = []BindingConfig{{Gesture: "shaka", Event: "wiggle", Plugin: "k", Action: "a"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "link.poll_interval", envKey("MUDRA_LINK__POLL_INTERVAL"))
	assert.Equal(t, "log.level", envKey("MUDRA_LOG__LEVEL"))
	assert.Equal(t, "", envKey("MUDRA_CONFIG"))
}
