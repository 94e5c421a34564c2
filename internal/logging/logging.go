// Package logging constructs the process-wide *log.Logger every other
// package accepts (internal/node.New, internal/rpcapi.NewServer), writing
// to stdout and, when a log file path is configured, also to a rotating
// on-disk file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log output goes.
type Config struct {
	// FilePath is the rotating log file to additionally write to. Empty
	// disables file logging.
	FilePath string
	// MaxSizeMB is the size, in megabytes, at which the log file rotates.
	MaxSizeMB int
	// MaxBackups is how many rotated files to retain.
	MaxBackups int
	// MaxAgeDays is how long to retain rotated files.
	MaxAgeDays int
}

// DefaultConfig returns sane rotation defaults, matching a typical
// long-running development node's log retention.
func DefaultConfig() Config {
	return Config{MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
}

// New builds a *log.Logger writing to stdout, and additionally to a
// lumberjack-rotated file when cfg.FilePath is set.
func New(cfg Config) *log.Logger {
	var out io.Writer = os.Stdout
	if cfg.FilePath != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = io.MultiWriter(os.Stdout, rotating)
	}
	return log.New(out, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}
