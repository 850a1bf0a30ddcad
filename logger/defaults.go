package logger

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogger backs the Logger interface with zerolog instead of
// log.Println, giving leveled filtering and a consistent timestamped
// output format.
type DefaultLogger struct {
	Logger
	zl zerolog.Logger
}

var Default = NewDefault()

// NewDefault builds the process-wide default logger. Debug output is
// gated on DEBUG=true; SAFE_LOGS=true redacts embedded URLs from every
// message (upstream URLs routinely carry tokens/credentials in query
// strings).
func NewDefault() *DefaultLogger {
	level := zerolog.InfoLevel
	if os.Getenv("DEBUG") == "true" {
		level = zerolog.DebugLevel
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	return &DefaultLogger{zl: zl}
}

var urlRegex = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*:\/\/[a-zA-Z0-9+%/.\-:_?&=#@+]+`)

func cleanString(text string) string {
	return urlRegex.ReplaceAllString(text, "[redacted url]")
}

func safeLogf(format string, v ...any) string {
	s := fmt.Sprintf(format, v...)
	if os.Getenv("SAFE_LOGS") == "true" {
		return cleanString(s)
	}
	return s
}

func (l *DefaultLogger) Log(format string) {
	l.zl.Info().Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Logf(format string, v ...any) {
	l.zl.Info().Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Debug(format string) {
	l.zl.Debug().Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Debugf(format string, v ...any) {
	l.zl.Debug().Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Error(format string) {
	l.zl.Error().Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Errorf(format string, v ...any) {
	l.zl.Error().Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Warn(format string) {
	l.zl.Warn().Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Warnf(format string, v ...any) {
	l.zl.Warn().Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Fatal(format string) {
	l.zl.Fatal().Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Fatalf(format string, v ...any) {
	l.zl.Fatal().Msg(safeLogf(format, v...))
}
