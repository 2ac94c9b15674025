package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseLevel parses a level name as written in the config file. Case is
// ignored and "warning" is accepted for WARN.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q, want DEBUG, INFO, WARN or ERROR", s)
}

// LevelOrDefault returns the level named by s, or def when s is unset.
// An unknown name also yields def; config validation rejects those.
func LevelOrDefault(s *string, def slog.Level) slog.Level {
	if s == nil {
		return def
	}
	lvl, err := ParseLevel(*s)
	if err != nil {
		return def
	}
	return lvl
}
