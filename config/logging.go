package config

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel filters the standard logger by tags found in messages.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLogLevel maps DEBUG/INFO/WARN/ERROR (case-insensitive) to a level.
// Unknown names fall back to INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func detectMessageLevel(msg string) LogLevel {
	upper := strings.ToUpper(msg)
	switch {
	case strings.Contains(upper, "ERROR"), strings.Contains(upper, "FAILED"):
		return LevelError
	case strings.Contains(upper, "WARN"):
		return LevelWarning
	case strings.Contains(upper, "DEBUG"):
		return LevelDebug
	default:
		return LevelInfo
	}
}

type levelFilterWriter struct {
	minLevel LogLevel
	next     io.Writer
}

func (w *levelFilterWriter) Write(p []byte) (int, error) {
	if detectMessageLevel(string(p)) < w.minLevel {
		return len(p), nil
	}
	return w.next.Write(p)
}

// NewLevelWriter wraps next so messages below level are discarded.
func NewLevelWriter(level string, next io.Writer) io.Writer {
	return &levelFilterWriter{minLevel: ParseLogLevel(level), next: next}
}

// SetupLogging points the standard logger at stderr filtered by level.
func SetupLogging(level string) {
	log.SetOutput(NewLevelWriter(level, os.Stderr))
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
}
