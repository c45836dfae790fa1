// Package config resolves the environment-provided root directory and the
// defaults shared by the backup and restore commands.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// HomeEnv names the environment variable holding the root directory
const HomeEnv = "CARGO_HOME"

// Defaults for the backup command
const (
	DefaultSavePath = "./cargo_bak.zip"
	DefaultLevel    = 0
	DefaultMethod   = "zstd"
)

// ErrMissingHome is returned when HomeEnv is unset or empty
var ErrMissingHome = errors.New(HomeEnv + " is not set")

// Config holds the resolved environment
type Config struct {
	Home string // Absolute root directory for backup and restore
}

// Load reads the configuration through getenv, normally os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	home := getenv(HomeEnv)
	if home == "" {
		return Config{}, ErrMissingHome
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return Config{}, fmt.Errorf("resolve %s %q: %w", HomeEnv, home, err)
	}
	return Config{Home: abs}, nil
}
