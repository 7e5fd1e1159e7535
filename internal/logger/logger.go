// Package logger builds the zap logger behind the logf callbacks used across
// the packages.
package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func New(level, format string) *zap.Logger {
	return NewWriter(level, format, os.Stderr)
}

// NewWriter is New with an explicit sink.
func NewWriter(level, format string, w io.Writer) *zap.Logger {
	core := zapcore.NewCore(encoder(format), zapcore.AddSync(w), parseLevel(level))
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	if strings.ToLower(format) == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// Printf adapts l to the logf callbacks. A leading "[TAG] " becomes the
// logger name so "[SHOPIFY] cost ..." is logged by "shopify".
func Printf(l *zap.Logger) func(string, ...any) {
	root := l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	return func(format string, args ...any) {
		tag, rest := splitTag(format)
		s := root
		if tag != "" {
			s = root.Named(strings.ToLower(tag))
		}
		s.Infof(rest, args...)
	}
}

func splitTag(format string) (string, string) {
	if !strings.HasPrefix(format, "[") {
		return "", format
	}
	end := strings.IndexByte(format, ']')
	if end < 2 {
		return "", format
	}
	return format[1:end], strings.TrimPrefix(format[end+1:], " ")
}
