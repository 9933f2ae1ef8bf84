package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tgienger/tdl/internal/config"
)

// Logger wraps zap.SugaredLogger. The level can be changed while running.
type Logger struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

// New creates a new logger instance. The TUI owns the terminal, so output goes
// to a file unless cfg.Output is "stderr".
func New(cfg config.LogConfig) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.Sampling = nil

	if cfg.Output == "stderr" {
		zapConfig.Encoding = "console"
		zapConfig.OutputPaths = []string{"stderr"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	} else {
		file := cfg.File
		if file == "" {
			if file, err = DefaultFile(); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		zapConfig.OutputPaths = []string{file}
		zapConfig.ErrorOutputPaths = []string{file}
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
		level:         zapConfig.Level,
	}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// SetLevel changes the level of this logger and every logger derived from it
func (l *Logger) SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current level name
func (l *Logger) Level() string {
	return l.level.Level().String()
}

// Named returns a child logger tagged with a component name
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name), level: l.level}
}

// Shutdown flushes buffered entries
func (l *Logger) Shutdown() error {
	// stderr and some files reject fsync; that is not worth failing shutdown for
	_ = l.Sync()
	return nil
}

// DefaultFile returns $XDG_STATE_HOME/tdl/tdl.log, falling back to ~/.local/state
func DefaultFile() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "tdl", "tdl.log"), nil
}
