package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultLogger *zerolog.Logger
)

// Init initializes the global logger
func Init(level string, pretty bool) {
	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	l := zerolog.New(output).Level(parseLevel(level)).With().Timestamp().Logger()
	defaultLogger = &l
	log.Logger = l
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// Get returns the default logger
func Get() *zerolog.Logger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// WithContext returns the logger attached to ctx, falling back to the default one
func WithContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Get()
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Info().Fields(args).Msg(msg)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debug().Fields(args).Msg(msg)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warn().Fields(args).Msg(msg)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Error().Fields(args).Msg(msg)
}

// Fatal logs at fatal level and exits
func Fatal(msg string, args ...any) {
	Get().Fatal().Fields(args).Msg(msg)
}

// With returns a logger with the given attributes
func With(args ...any) *zerolog.Logger {
	l := Get().With().Fields(args).Logger()
	return &l
}
