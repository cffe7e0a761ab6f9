// Package logger is a thin printf-style facade over logrus.
//
// Components prefix their messages with a tag, e.g. logger.Info("[MCP] ...").
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers do not import logrus directly.
type Fields = logrus.Fields

// Options configures the process-wide logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output string // stdout, stderr or a file path
}

var (
	mu      sync.Mutex
	std     = newDefault()
	logFile *os.File
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init applies opts to the shared logger. It may be called more than once,
// e.g. after a configuration reload.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level := logrus.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		level = parsed
	}
	std.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("logger: unknown format %q", opts.Format)
	}

	out, err := openOutput(opts.Output)
	if err != nil {
		return err
	}
	std.SetOutput(out)
	return nil
}

func openOutput(output string) (io.Writer, error) {
	switch strings.TrimSpace(output) {
	case "", "stderr":
		closeFile()
		return os.Stderr, nil
	case "stdout":
		closeFile()
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open %q: %w", output, err)
	}
	closeFile()
	logFile = f
	return f, nil
}

func closeFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Flush closes the log file, if any.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	closeFile()
}

// SetOutput redirects log output. Tests use it to silence or capture logs.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

func Debug(format string, args ...any) { std.Debugf(format, args...) }
func Info(format string, args ...any)  { std.Infof(format, args...) }
func Warn(format string, args ...any)  { std.Warnf(format, args...) }
func Error(format string, args ...any) { std.Errorf(format, args...) }

// WithFields returns an entry carrying structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

// WithField returns an entry carrying a single structured field.
func WithField(key string, value any) *logrus.Entry {
	return std.WithField(key, value)
}
