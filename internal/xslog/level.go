package xslog

import (
	"encoding"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type Level string

var (
	_ fmt.Stringer             = (*Level)(nil)
	_ encoding.TextUnmarshaler = (*Level)(nil)
)

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

const (
	EnvKey  = "LOG_LEVEL"
	Default = LevelInfo
)

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

func Parse(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := slogLevels[l]; !ok {
		return "", fmt.Errorf("invalid log level: %q (valid: %s, %s, %s, %s)", s, LevelDebug, LevelInfo, LevelWarn, LevelError)
	}
	return l, nil
}

// FromEnv reads LOG_LEVEL, falling back to Default when unset or invalid.
func FromEnv() Level {
	level, err := Parse(os.Getenv(EnvKey))
	if err != nil {
		return Default
	}
	return level
}

func (l Level) ToSlog() slog.Level {
	if sl, ok := slogLevels[l]; ok {
		return sl
	}
	return slog.LevelInfo
}

func (l Level) String() string { return string(l) }

// UnmarshalText lets env-parsed config carry a Level directly. Empty input
// yields Default.
func (l *Level) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*l = Default
		return nil
	}
	level, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}
