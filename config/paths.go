package config

import (
	"os"
	"path/filepath"
)

// GetDefaultConfigLocation returns the default configuration file path. The
// BOTDECK_CONFIG environment variable takes precedence over the user
// configuration directory.
func GetDefaultConfigLocation() string {
	if p := os.Getenv("BOTDECK_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yml"
	}
	return filepath.Join(dir, "botdeck", "config.yml")
}
