package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestPlugin_Keyboard_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pluginDir := findPluginDir("keyboard")
	if pluginDir == "" {
		t.Skip("keyboard plugin not built")
	}

	mgr := NewManager(filepath.Dir(pluginDir), zerolog.Nop())
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	executor := NewExecutor(5 * time.Second)

	t.Run("cursor trigger maps to arrow key", func(t *testing.T) {
		resp, err := executor.Execute(context.Background(), plug, &Request{
			Action:  "press",
			Gesture: "cursor",
			Event:   "fired",
			Trigger: 2,
			Params:  json.RawMessage(`{"dry_run": true}`),
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}
		if string(resp.Data) != `{"key":"down"}` {
			t.Errorf("unexpected data %s", resp.Data)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		resp, err := executor.Execute(context.Background(), plug, &Request{
			Action:  "press",
			Gesture: "shaka",
			Params:  json.RawMessage(`{"key": ""}`),
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if resp.Success {
			t.Error("expected failure for empty key")
		}
	})
}

// findPluginDir locates a built plugin in the repository's plugins directory.
func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "plugin.json")); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return dir
		}
	}
	return ""
}
