package build

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

const (
	// DefaultMaxLogFiles is the default number of rotated hook logs kept
	// on disk.
	DefaultMaxLogFiles = 5

	// DefaultMaxLogFileSize is the default size in MB a hook log may grow
	// to before it is rotated.
	DefaultMaxLogFileSize = 10

	// DefaultLogFilename is the log file name used when the config does
	// not name one.
	DefaultLogFilename = "devhooks.log"
)

// LogRotatorConfig holds the configuration for the log file rotator.
type LogRotatorConfig struct {
	// LogDir is the directory where log files are written.
	LogDir string

	// MaxLogFiles is the maximum number of rotated log files to keep.
	MaxLogFiles int

	// MaxLogFileSize is the maximum size of a log file in megabytes.
	MaxLogFileSize int

	// Filename overrides DefaultLogFilename.
	Filename string
}

// DefaultLogRotatorConfig returns a LogRotatorConfig with the default
// rotation limits and no directory. A rotator without a directory is never
// started.
func DefaultLogRotatorConfig() *LogRotatorConfig {
	return &LogRotatorConfig{
		MaxLogFiles:    DefaultMaxLogFiles,
		MaxLogFileSize: DefaultMaxLogFileSize,
		Filename:       DefaultLogFilename,
	}
}

// RotatingLogWriter feeds a jrick/logrotate rotator through a pipe. Hook
// processes are short lived, so Close must be called before exit to flush
// the tail of the log.
type RotatingLogWriter struct {
	pipe    *io.PipeWriter
	rotator *rotator.Rotator
	done    chan struct{}
}

// NewRotatingLogWriter creates a writer that discards everything until
// InitLogRotator succeeds.
func NewRotatingLogWriter() *RotatingLogWriter {
	return &RotatingLogWriter{}
}

// InitLogRotator creates the log directory and starts the rotator
// goroutine.
func (r *RotatingLogWriter) InitLogRotator(cfg *LogRotatorConfig) error {
	filename := cfg.Filename
	if filename == "" {
		filename = DefaultLogFilename
	}

	logFile := filepath.Join(cfg.LogDir, filename)
	if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// The rotator takes its threshold in kilobytes.
	var err error
	r.rotator, err = rotator.New(
		logFile, int64(cfg.MaxLogFileSize*1024), false,
		cfg.MaxLogFiles,
	)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	r.rotator.SetCompressor(gzip.NewWriter(nil), ".gz")

	pr, pw := io.Pipe()
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)

		if err := r.rotator.Run(pr); err != nil {
			_, _ = fmt.Fprintf(
				os.Stderr, "failed to run file rotator: %v\n",
				err,
			)
		}
	}()

	r.pipe = pw

	return nil
}

// Write sends b to the rotator, or drops it if the rotator never started.
func (r *RotatingLogWriter) Write(b []byte) (int, error) {
	if r.pipe != nil {
		return r.pipe.Write(b)
	}

	return len(b), nil
}

// Close closes the pipe and waits for the rotator to drain it.
func (r *RotatingLogWriter) Close() error {
	if r.pipe == nil {
		return nil
	}

	err := r.pipe.Close()
	<-r.done

	return err
}
