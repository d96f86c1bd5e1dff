// Package logger provides component-tagged leveled logging for the pipeline
// and API, backed by zerolog.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger tags every message with the emitting component.
type Logger struct {
	z zerolog.Logger
}

// New builds a console logger at the given minimum level.
func New(level zerolog.Level) *Logger {
	z := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05.000",
	}).Level(level).With().Timestamp().Logger()
	return &Logger{z: z}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message
func (l *Logger) Debug(component, message string, args ...interface{}) {
	l.z.Debug().Str("component", component).Msgf(message, args...)
}

// Info logs an info message
func (l *Logger) Info(component, message string, args ...interface{}) {
	l.z.Info().Str("component", component).Msgf(message, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, message string, args ...interface{}) {
	l.z.Warn().Str("component", component).Msgf(message, args...)
}

// Error logs an error message
func (l *Logger) Error(component, message string, args ...interface{}) {
	l.z.Error().Str("component", component).Msgf(message, args...)
}

// Fatal logs an error message and exits
func (l *Logger) Fatal(component, message string, args ...interface{}) {
	l.z.Fatal().Str("component", component).Msgf(message, args...)
}
