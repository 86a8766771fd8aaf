package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger  = log.New(os.Stderr, "[flightlog] ", log.LstdFlags|log.Lmicroseconds)
	verbose atomic.Bool
)

// LogOptions controls where log output goes. An empty Directory keeps
// logging on stderr only.
type LogOptions struct {
	Directory  string
	FileName   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
	Verbose    bool
}

// SetupLogging tees log output into a size-rotated file when a directory is
// configured.
func SetupLogging(opts LogOptions) error {
	verbose.Store(opts.Verbose)
	if opts.Directory == "" {
		logger.SetOutput(os.Stderr)
		return nil
	}
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	name := opts.FileName
	if name == "" {
		name = "flightlog.log"
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Directory, name),
		MaxSize:    opts.MaxSizeMB,
		MaxAge:     opts.MaxAgeDays,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return nil
}

// SetLogOutput redirects log output, mainly for tests.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetVerbose toggles Debugf output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

func Logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Debugf logs only when verbose output is enabled.
func Debugf(format string, args ...interface{}) {
	if !verbose.Load() {
		return
	}
	logger.Printf("debug: "+format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}
