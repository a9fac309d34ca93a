// Package main provides the keyboard hook. It presses a key for each gesture
// event it receives: an explicit "key" parameter wins, otherwise cursor
// triggers map to the arrow keys and return.
//
// Keys are sent with AppleScript on macOS and xdotool on Linux.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Event   string          `json:"event"`
	Trigger int             `json:"trigger"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// PressParams defines parameters for the press action.
type PressParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
	DryRun    bool     `json:"dry_run"`
}

// cursorKeys maps cursor triggers to key names.
var cursorKeys = map[int]string{
	1: "up",
	2: "down",
	3: "right",
	4: "left",
	5: "return",
}

// appleKeyCodes maps named keys to macOS virtual key codes.
var appleKeyCodes = map[string]int{
	"up":     126,
	"down":   125,
	"right":  124,
	"left":   123,
	"return": 36,
	"escape": 53,
	"space":  49,
}

// xdoKeys maps named keys to X keysyms.
var xdoKeys = map[string]string{
	"up":     "Up",
	"down":   "Down",
	"right":  "Right",
	"left":   "Left",
	"return": "Return",
	"escape": "Escape",
	"space":  "space",
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "press" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	key, err := handlePress(req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(key)
}

// handlePress resolves and sends the key, returning its name.
func handlePress(req Request) (string, error) {
	var p PressParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return "", fmt.Errorf("failed to parse params: %w", err)
		}
	}

	key, err := resolveKey(req, p)
	if err != nil {
		return "", err
	}
	if p.DryRun {
		return key, nil
	}

	switch runtime.GOOS {
	case "darwin":
		return key, run("osascript", "-e", buildKeystrokeScript(key, p.Modifiers))
	case "linux":
		return key, run("xdotool", "key", xdoChord(key, p.Modifiers))
	default:
		return "", fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

func resolveKey(req Request, p PressParams) (string, error) {
	if p.Key != "" {
		return strings.ToLower(p.Key), nil
	}
	if req.Gesture == "cursor" {
		if key, ok := cursorKeys[req.Trigger]; ok {
			return key, nil
		}
		return "", fmt.Errorf("no key for cursor trigger %d", req.Trigger)
	}
	return "", errors.New("key is required")
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	stroke := fmt.Sprintf(`keystroke "%s"`, key)
	if code, ok := appleKeyCodes[key]; ok {
		stroke = fmt.Sprintf("key code %d", code)
	}

	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, stroke)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, stroke, strings.Join(appleModifiers, ", "))
}

// xdoChord builds an xdotool key chord such as "ctrl+shift+Up".
func xdoChord(key string, modifiers []string) string {
	if sym, ok := xdoKeys[key]; ok {
		key = sym
	}
	parts := make([]string, 0, len(modifiers)+1)
	for _, mod := range modifiers {
		switch strings.ToLower(mod) {
		case "command", "cmd":
			parts = append(parts, "super")
		case "option", "alt":
			parts = append(parts, "alt")
		case "control", "ctrl":
			parts = append(parts, "ctrl")
		case "shift":
			parts = append(parts, "shift")
		}
	}
	return strings.Join(append(parts, key), "+")
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	_ = json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response naming the pressed key.
func writeSuccessResponse(key string) {
	data, _ := json.Marshal(map[string]string{"key": key})
	_ = json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// run executes a command and returns any error with its output.
func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
