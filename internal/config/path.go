// Package config resolves haul's files and the export settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDir = "haul"

// ExpandPath resolves a leading ~ to the home directory, then $VAR and
// ${VAR} references. An unresolvable home leaves the ~ in place.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// Dir is haul's config directory: $XDG_CONFIG_HOME/haul, or ~/.config/haul.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// File joins name onto Dir.
func File(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
