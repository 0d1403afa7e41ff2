package diag

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	// defaultLockTimeout bounds how long a hook waits for another hook
	// process to finish appending.
	defaultLockTimeout = 2 * time.Second

	// lockRetryDelay is the poll interval while waiting for the lock.
	lockRetryDelay = 10 * time.Millisecond
)

// ErrLockTimeout is returned when the JSONL file stayed locked past the
// lock timeout.
var ErrLockTimeout = errors.New("timed out waiting for diagnostics lock")

// JSONLSink appends each record as one JSON line. Hook processes for the
// same project run concurrently, so every append happens under an exclusive
// flock on a sibling ".lock" file.
type JSONLSink struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
}

// NewJSONLSink creates the parent directory of path and returns a sink
// appending to it.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create diagnostics dir: %w", err)
	}

	return &JSONLSink{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: defaultLockTimeout,
	}, nil
}

// Path returns the file the sink appends to.
func (s *JSONLSink) Path() string {
	return s.path
}

// Record implements Sink.
func (s *JSONLSink) Record(ctx context.Context, ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.EventKind(), err)
	}
	line = append(line, '\n')

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		return ErrLockTimeout

	case err != nil:
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)

	case !locked:
		return ErrLockTimeout
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	f, err := os.OpenFile(
		s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600,
	)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}

	return f.Close()
}

// ReadJSONL returns every record in a JSONL diagnostics file as a generic
// map, oldest first. Blank lines are skipped.
func ReadJSONL(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", path,
				len(records)+1, err)
		}
		records = append(records, rec)
	}

	return records, scanner.Err()
}
