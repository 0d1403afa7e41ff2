package build

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// LogConfig describes where hook logs go. Stdout carries the hook response
// to the host, so the console stream defaults to stderr.
type LogConfig struct {
	// Level is the initial level for every subsystem, e.g. "info".
	Level string

	// Console is the console stream. Nil means os.Stderr.
	Console io.Writer

	// Rotator configures the rotating log file. A nil rotator or one
	// without a LogDir disables file logging.
	Rotator *LogRotatorConfig
}

// DefaultLogConfig returns a console-only config at the info level.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:   "info",
		Rotator: DefaultLogRotatorConfig(),
	}
}

// LogManager owns the root handler set and hands out one logger per
// subsystem tag.
type LogManager struct {
	handler *HandlerSet
	rotator *RotatingLogWriter

	mu      sync.Mutex
	level   btclog.Level
	loggers map[string]btclogv2.Logger
}

// NewLogManager builds the console and file handlers described by cfg.
func NewLogManager(cfg *LogConfig) (*LogManager, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []btclogv2.Handler{btclogv2.NewDefaultHandler(console)}

	rot := NewRotatingLogWriter()
	if cfg.Rotator != nil && cfg.Rotator.LogDir != "" {
		if err := rot.InitLogRotator(cfg.Rotator); err != nil {
			return nil, err
		}
		handlers = append(handlers, btclogv2.NewDefaultHandler(rot))
	}

	m := &LogManager{
		handler: NewHandlerSet(handlers...),
		rotator: rot,
		level:   btclog.LevelInfo,
		loggers: make(map[string]btclogv2.Logger),
	}

	if cfg.Level != "" {
		if err := m.SetLevel(cfg.Level); err != nil {
			_ = rot.Close()
			return nil, err
		}
	}

	return m, nil
}

// SubLogger returns the logger for the given subsystem tag, creating it on
// first use.
func (m *LogManager) SubLogger(tag string) btclogv2.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, ok := m.loggers[tag]; ok {
		return logger
	}

	logger := btclogv2.NewSLogger(m.handler.SubSystem(tag))
	logger.SetLevel(m.level)
	m.loggers[tag] = logger

	return logger
}

// SetLevel parses level and applies it to every subsystem logger.
func (m *LogManager) SetLevel(level string) error {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.level = lvl
	m.handler.SetLevel(lvl)
	for _, logger := range m.loggers {
		logger.SetLevel(lvl)
	}

	return nil
}

// Subsystems returns the sorted tags of all loggers handed out so far.
func (m *LogManager) Subsystems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	tags := make([]string, 0, len(m.loggers))
	for tag := range m.loggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

// Close flushes the rotating log file, if any.
func (m *LogManager) Close() error {
	return m.rotator.Close()
}
