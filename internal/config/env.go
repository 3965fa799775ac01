package config

import (
	"os"
	"strconv"
)

// ApplyEnv merges LOGVIEW_* environment variables into cfg, overriding
// defaults and any config file values. Mirrors dtail's DTAIL_ prefix
// convention (internal/config/env.go) at the next layer up the
// precedence chain.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("LOGVIEW_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("LOGVIEW_LOG_DIR"); ok {
		cfg.LogDir = v
	}
	if v, ok := os.LookupEnv("LOGVIEW_DATE_FORMAT"); ok {
		cfg.DateFormat = v
	}
	if v, ok := os.LookupEnv("LOGVIEW_PROFILE_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProfilePort = n
		}
	}
	if v, ok := os.LookupEnv("LOGVIEW_NEIGHBOURHOOD"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultNeighbourhood = n
		}
	}
}
