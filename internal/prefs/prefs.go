// Package prefs persists the few choices a user makes inside the TUI: the
// colour theme and whether deleting an area asks first. They live apart from
// config.toml in ~/.config/explore/prefs.toml so the UI can rewrite them
// without touching hand-edited configuration.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs are the user-adjustable UI settings.
type Prefs struct {
	Theme         string `toml:"theme"`
	ConfirmDelete bool   `toml:"confirm_delete"`
}

const (
	defaultLocation = "~/.config/explore/prefs.toml"
	fallbackTheme   = "Nightfox"
)

// Default is what a fresh install starts with: the Nightfox theme and a
// confirmation before every delete.
func Default() Prefs {
	return Prefs{Theme: fallbackTheme, ConfirmDelete: true}
}

// Load returns the stored preferences, or Default when path is empty and
// nothing is stored yet. A file that cannot be read or parsed yields Default
// and no error. Keys missing from the file keep their default values.
func Load(path string) (Prefs, error) {
	location, err := locate(path)
	if err != nil {
		return Default(), nil
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return Default(), nil
	}
	return decode(data), nil
}

func decode(data []byte) Prefs {
	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default()
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = fallbackTheme
	}
	return p
}

// Save stores p at path, creating parent directories. The file is written
// beside its final location and renamed over it, so a crash mid-write leaves
// the previous preferences intact.
func Save(path string, p Prefs) error {
	location, err := locate(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create prefs file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// locate turns path, or the default location when path is blank, into an
// absolute path with a leading ~ expanded.
func locate(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultLocation
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if home == "" {
			return "", errors.New("home dir is empty")
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
