// Package config loads mudra's layered configuration: built-in defaults, an
// optional YAML file, then MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file path.
const PathEnvVar = "MUDRA_CONFIG"

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: MUDRA_LINK__LISTEN sets link.listen.
const EnvPrefix = "MUDRA_"

// DefaultPaths are searched in order when no path is given.
var DefaultPaths = []string{
	"mudra.yaml",
	"mudra.yml",
}

// Config is the complete configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Link     LinkConfig     `koanf:"link"`
	Tracking TrackingConfig `koanf:"tracking"`
	Gesture  GestureConfig  `koanf:"gesture"`
	Store    StoreConfig    `koanf:"store"`
	Plugins  PluginsConfig  `koanf:"plugins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format     string `koanf:"format" validate:"oneof=json console"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
	Compress   bool   `koanf:"compress"`
}

// LinkConfig configures the sender/receiver link.
type LinkConfig struct {
	// Listen is the receiver's HTTP address.
	Listen string `koanf:"listen" validate:"required"`

	// Peer is the receiver's link URL, used by the sender.
	Peer string `koanf:"peer" validate:"required,url"`

	// Mode is "push" (classify every frame on arrival) or "poll" (classify
	// the latest frame every PollInterval).
	Mode string `koanf:"mode" validate:"oneof=push poll"`

	PollInterval   time.Duration `koanf:"poll_interval" validate:"gt=0"`
	SendInterval   time.Duration `koanf:"send_interval" validate:"gt=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay" validate:"gt=0"`
}

// TrackingConfig configures the tracking source and the world-space mapping.
type TrackingConfig struct {
	DefaultSide   string  `koanf:"default_side" validate:"oneof=right left"`
	Mirror        bool    `koanf:"mirror"`
	OffsetX       float64 `koanf:"offset_x"`
	OffsetY       float64 `koanf:"offset_y"`
	OffsetZ       float64 `koanf:"offset_z"`
	ZDepth        float64 `koanf:"z_depth"`
	MinConfidence float64 `koanf:"min_confidence" validate:"gte=0,lte=1"`
	MaxHands      int     `koanf:"max_hands" validate:"gte=1,lte=2"`

	// Script is a comma separated list of preset poses played by the sender.
	Script string `koanf:"script"`
	Hold   int    `koanf:"hold" validate:"gte=1"`

	// Replay names a recorded session the sender plays back instead of Script.
	Replay string `koanf:"replay"`
}

// GestureConfig selects and tunes the classifiers.
type GestureConfig struct {
	Enabled        []string `koanf:"enabled" validate:"min=1,dive,oneof=shaka cursor draw"`
	NearThreshold  float64  `koanf:"near_threshold" validate:"gt=0"`
	DirectionRatio float64  `koanf:"direction_ratio" validate:"gt=0"`
}

// StoreConfig configures session recording.
type StoreConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
}

// PluginsConfig configures gesture hooks.
type PluginsConfig struct {
	Dir      string          `koanf:"dir"`
	Timeout  time.Duration   `koanf:"timeout" validate:"gt=0"`
	Bindings []BindingConfig `koanf:"bindings" validate:"dive"`
}

// BindingConfig runs a plugin action when a gesture event matches. A nil
// Trigger matches any trigger.
type BindingConfig struct {
	Gesture string         `koanf:"gesture" validate:"required,oneof=shaka cursor draw"`
	Event   string         `koanf:"event" validate:"required,oneof=began moved2d moved3d moved4d ended canceled fired"`
	Trigger *int           `koanf:"trigger"`
	Plugin  string         `koanf:"plugin" validate:"required"`
	Action  string         `koanf:"action" validate:"required"`
	Params  map[string]any `koanf:"params"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Link: LinkConfig{
			Listen:         "127.0.0.1:7860",
			Peer:           "ws://127.0.0.1:7860/api/link",
			Mode:           "push",
			PollInterval:   500 * time.Millisecond,
			SendInterval:   33 * time.Millisecond,
			WriteTimeout:   5 * time.Second,
			ReconnectDelay: time.Second,
		},
		Tracking: TrackingConfig{
			DefaultSide:   "right",
			OffsetX:       0.5,
			MinConfidence: 0.6,
			MaxHands:      2,
			Script:        "shaka,shaka,shaka,fist,up,up,right,fist,pencil,pencil,open",
			Hold:          5,
		},
		Gesture: GestureConfig{
			Enabled:        []string{"shaka", "cursor", "draw"},
			NearThreshold:  0.1,
			DirectionRatio: 5.0,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "mudra.db",
		},
		Plugins: PluginsConfig{
			Dir:     "plugins",
			Timeout: 5 * time.Second,
		},
	}
}

// sliceKeys are parsed from comma separated strings when set by environment.
var sliceKeys = []string{"gesture.enabled"}

// Load reads the configuration. An empty path searches PathEnvVar and
// DefaultPaths; a missing default file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	if path == "" {
		path = findFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps MUDRA_LINK__POLL_INTERVAL to link.poll_interval.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
