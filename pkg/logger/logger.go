// Package logger provides the shared logrus instance used across pastefind.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var defaultLogger *logrus.Logger

func init() {
	defaultLogger = logrus.New()
	defaultLogger.SetOutput(os.Stdout)
	defaultLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	// Tests run silent unless a level is forced explicitly.
	if os.Getenv("GO_ENV") == "test" && os.Getenv("LOG_LEVEL") == "" {
		level = "silent"
	}
	_ = Configure(level)
}

// Configure sets the log level from a string. The special level "silent"
// discards all output.
func Configure(level string) error {
	if strings.EqualFold(level, "silent") {
		defaultLogger.SetOutput(io.Discard)
		return nil
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	defaultLogger.SetLevel(parsed)
	return nil
}

// GetLogger returns the shared logger instance.
func GetLogger() *logrus.Logger {
	return defaultLogger
}

// WithName returns a child entry tagged with a component name.
func WithName(name string) *logrus.Entry {
	return defaultLogger.WithField("name", name)
}

// WithFields returns a child entry with arbitrary fields attached.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}

// IsLevelEnabled reports whether the given level would be emitted.
func IsLevelEnabled(level logrus.Level) bool {
	return defaultLogger.IsLevelEnabled(level)
}
