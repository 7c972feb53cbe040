package tui

import (
	"log/slog"

	"github.com/Veraticus/haulbook/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme  themes.Theme
	Logger *slog.Logger
	Width  int
	Height int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:  themes.Default,
		Logger: slog.Default(),
		Width:  120,
		Height: 30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithLogger sets the logger for load failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
