package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseFormat defaults to console, which is what a user running the
// downloader in a terminal expects.
func ParseFormat(format string) Format {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON
	default:
		return FormatConsole
	}
}

type Config struct {
	Level  string
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	mu     sync.RWMutex
	global = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// New builds a logger from cfg without touching the global one.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Setup replaces the global logger.
func Setup(cfg Config) zerolog.Logger {
	l := New(cfg)
	mu.Lock()
	global = l
	mu.Unlock()
	return l
}

func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}
