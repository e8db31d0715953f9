// Package prefs persists nezhatop UI preferences in
// ~/.config/nezhatop/prefs.toml. Preferences are cosmetic, so every read
// failure degrades to defaults instead of stopping the UI.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// Sort is the server table order: name, cpu, mem or index.
	Sort string `toml:"sort"`
	// View is the view shown at startup: servers, services or logs.
	View string `toml:"view"`
}

const (
	defaultPrefsPath = "~/.config/nezhatop/prefs.toml"
	defaultTheme     = "Nightfox"
	defaultSort      = "index"
	defaultView      = "servers"
)

var (
	validSorts = map[string]bool{"name": true, "cpu": true, "mem": true, "index": true}
	validViews = map[string]bool{"servers": true, "services": true, "logs": true}
)

// Defaults returns the built-in preferences.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, Sort: defaultSort, View: defaultView}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path, falling back to defaults for a missing or
// unreadable file and for any invalid field.
func Load(path string) Prefs {
	p := Defaults()
	resolved, err := resolvePath(path)
	if err != nil {
		return p
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults()
	}
	return p.normalized()
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.Sort = strings.ToLower(strings.TrimSpace(p.Sort))
	if !validSorts[p.Sort] {
		p.Sort = defaultSort
	}
	p.View = strings.ToLower(strings.TrimSpace(p.View))
	if !validViews[p.View] {
		p.View = defaultView
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
