// Package logger builds the logrus logger shared by the simulator binaries.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects the level, format and destination of a logger.
type Options struct {
	// Level falls back to LOG_LEVEL, then to debug in development and info otherwise.
	Level string
	// Format is "json" or "text". It falls back to LOG_FORMAT, then to text in
	// development and json otherwise.
	Format      string
	Development bool
	// Output defaults to stdout.
	Output io.Writer
}

// New returns a configured logger. An unknown level logs a warning and uses info.
func New(opts Options) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}

	switch resolveFormat(opts) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	level := resolveLevel(opts)
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid log level, using info")
		return log
	}
	log.SetLevel(parsed)
	return log
}

func resolveLevel(opts Options) string {
	level := opts.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		if opts.Development {
			return "debug"
		}
		return "info"
	}
	return strings.ToLower(level)
}

func resolveFormat(opts Options) string {
	format := opts.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	if format == "" {
		if opts.Development {
			return "text"
		}
		return "json"
	}
	return strings.ToLower(format)
}

// Component tags every entry with the part of the simulator that emitted it.
func Component(log logrus.FieldLogger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
