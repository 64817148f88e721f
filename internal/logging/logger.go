package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dbehnke/fsdclient/internal/config"
)

const (
	EnvLogLevel   = "FSD_LOG_LEVEL"
	EnvLogConsole = "FSD_LOG_CONSOLE"
)

// Options selects where and how verbosely to log
type Options struct {
	App     string
	Level   string
	Console bool
	File    string
	Out     io.Writer // console destination, stdout when nil
}

// OptionsFromConfig reads the [log] section
func OptionsFromConfig(app string, cfg *config.Config) Options {
	return Options{
		App:     app,
		Level:   cfg.GetLogLevel(),
		Console: cfg.GetLogConsole(),
		File:    cfg.GetLogFile(),
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the process logger and installs it as the zerolog global. The
// returned closer releases the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	applyEnvOverrides(&opts)

	level, err := parseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		writers = append(writers, f)
		closer = f
	}
	if len(writers) == 0 {
		writers = append(writers, out)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Str("app", opts.App).Logger()
	log.Logger = logger
	return logger, closer, nil
}

func applyEnvOverrides(opts *Options) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		opts.Level = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogConsole))); err == nil {
		opts.Console = v
	}
}

func parseLevel(raw string) (zerolog.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}
