package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // json or console
}

type Logger struct {
	zl zerolog.Logger
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

func New(cfg Config) *Logger {
	return NewWithOutput(cfg, os.Stdout)
}

func NewWithOutput(cfg Config, w io.Writer) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	zl := zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(ParseLevel(cfg.Level))

	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel falls back to info for empty or unknown levels.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetDefault replaces the process-wide logger used by the component helpers.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if defaultLogger == nil {
		return Nop()
	}
	return defaultLogger
}

// Zerolog exposes the underlying logger for middleware that needs it.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }

func (l *Logger) Error(err error) *zerolog.Event {
	return l.zl.Error().Err(err)
}
