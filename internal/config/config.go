// Package config provides logview's layered configuration: defaults, then
// an optional JSON config file, then LOGVIEW_* environment variables,
// then command-line flags (highest precedence). Adapted from dtail's
// internal/config, which applies the same four-source precedence for a
// client/server pair; this module has a single process so one Config
// struct suffices.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mimecast/logview/internal/constants"
)

// Config is logview's fully resolved configuration.
type Config struct {
	// FilePath is the log file to open. Empty means read from stdin into
	// an in-memory backend.
	FilePath string `json:"-"`

	// LogLevel is the logger verbosity ("error","warn","info","debug","trace").
	LogLevel string `json:"logLevel"`

	// LogDir is where file-mode log output is written, if enabled.
	LogDir string `json:"logDir"`

	// ProfilePort, when non-zero, starts a net/http/pprof listener on
	// this port (§6).
	ProfilePort int `json:"profilePort"`

	// DateFormat is a hint passed to the external date-format guesser;
	// empty means auto-detect.
	DateFormat string `json:"dateFormat"`

	// DefaultNeighbourhood is the filter's k when the user doesn't
	// specify one explicitly.
	DefaultNeighbourhood int `json:"defaultNeighbourhood"`

	// BackgroundTaskWeight bounds concurrent background tasks (§4.I).
	BackgroundTaskWeight int64 `json:"backgroundTaskWeight"`

	// NoColor disables themed/color output in the (external) UI layer.
	// Carried here only because it is a CLI flag the core's theme
	// collaborator reads at start-up.
	NoColor bool `json:"-"`
}

// Defaults returns the configuration before any file, env, or flag
// overrides are applied.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		LogLevel:             "info",
		LogDir:               fmt.Sprintf("%s/.logview/log", home),
		ProfilePort:          0,
		DateFormat:           "",
		DefaultNeighbourhood: 0,
		BackgroundTaskWeight: constants.DefaultBackgroundTaskWeight,
		NoColor:              false,
	}
}

// LoadFile merges a JSON config file's fields into cfg. A missing file is
// not an error (the file is optional); malformed JSON is.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
