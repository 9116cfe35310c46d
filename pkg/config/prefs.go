package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Theme values
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Prefs is client-local state persisted across sessions, independent of
// graph or session state.
type Prefs struct {
	Theme string `yaml:"theme"`
}

// DefaultPrefsPath is used when the config names no prefs file
func DefaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".explomap-prefs.yaml"
	}
	return filepath.Join(home, ".explomap", "prefs.yaml")
}

// LoadPrefs reads preferences; a missing file yields defaults
func LoadPrefs(path string) (*Prefs, error) {
	prefs := &Prefs{Theme: ThemeLight}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	if prefs.Theme != ThemeLight && prefs.Theme != ThemeDark {
		prefs.Theme = ThemeLight
	}
	return prefs, nil
}

// SavePrefs writes preferences, creating the parent directory if needed
func SavePrefs(path string, prefs *Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
