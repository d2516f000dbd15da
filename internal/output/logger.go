/*
PURPOSE:
  Provides a structured logger for OCR Runner.
  Wraps slog for consistent output on stderr and in a rotating log file.

REQUIREMENTS:
  User-specified:
  - Per-image failures must be visible with the filename.
  - Keep a log file next to the results (processing.log).

  Implementation-discovered:
  - Needs to support Debug/Info/Warn/Error levels.
  - Log file must not grow without bound across many runs.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - Setup returns an error for an unknown level. The log file itself is
    opened lazily by lumberjack on first write.

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).
  - Rotation via gopkg.in/natefinch/lumberjack.v2.

USAGE:
  output.Logger.Info("message", "key", "value")

SELF-HEALING INSTRUCTIONS:
  - Ensure Go 1.21+ is used.

RELATED FILES:
  - All.

MAINTENANCE:
  - Add a JSON handler if machine-readable logs are ever needed.
*/

package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *slog.Logger

func init() {
	// Default generic logger until Setup runs.
	Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *slog.Logger) {
	Logger = l
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// Setup points Logger at stderr and, when file is non-empty, at a rotating
// log file as well. The returned closer releases the file.
func Setup(level, file string, maxSizeMB int) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: 3,
		}
		w = io.MultiWriter(os.Stderr, lj)
		closer = lj
	}

	SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
