// Package logger configures the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the global logger. Packages that are not handed a logger use this one.
var Logger = log.Logger

// Config controls level and output format.
type Config struct {
	Level      string    `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string    `json:"format" mapstructure:"format"` // json or pretty
	TimeFormat string    `json:"time_format" mapstructure:"time_format"`
	Output     io.Writer `json:"-" mapstructure:"-"`
}

// Init builds the global logger from config and installs it as zerolog's default.
func Init(config Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Format == "pretty" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: config.TimeFormat,
		}
	}

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = Logger
	return Logger
}

// Nop returns a logger that discards everything. Used by tests and library defaults.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Ctx returns the logger stored in ctx, falling back to the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &Logger
	}
	return l
}

// WithContext stores the global logger in ctx.
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
