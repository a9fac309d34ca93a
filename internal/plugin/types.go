// Package plugin runs hook executables in response to gesture events.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// The executable reads one Request as JSON on stdin and writes one Response as
// JSON on stdout.
package plugin

import "github.com/goccy/go-json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name" validate:"required"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable" validate:"required"`
	Actions      []string        `json:"actions" validate:"min=1,dive,required"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action   string          `json:"action"`
	Gesture  string          `json:"gesture"`
	Event    string          `json:"event"`
	Trigger  int             `json:"trigger"`
	EventID  uint64          `json:"event_id"`
	Location json.RawMessage `json:"location,omitempty"`
	Params   json.RawMessage `json:"params"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action.
func (p *Plugin) Supports(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}
