package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logOutput returns os.Stdout, or os.Stdout tee'd into a lumberjack
// rotating file writer when AUTARA_LOG_FILE names a path. AUTARA_LOG_FILE_MAX_MB,
// AUTARA_LOG_FILE_MAX_BACKUPS, and AUTARA_LOG_FILE_MAX_AGE_DAYS override
// lumberjack's rotation thresholds; unset or unparseable values fall back
// to its defaults.
func logOutput() io.Writer {
	path := strings.TrimSpace(os.Getenv("AUTARA_LOG_FILE"))
	if path == "" {
		return os.Stdout
	}
	rotator := &lumberjack.Logger{
		Filename:  path,
		MaxSize:   100,
		MaxBackups: 5,
		MaxAge:    28,
		Compress:  true,
	}
	if v, err := strconv.Atoi(os.Getenv("AUTARA_LOG_FILE_MAX_MB")); err == nil && v > 0 {
		rotator.MaxSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("AUTARA_LOG_FILE_MAX_BACKUPS")); err == nil && v >= 0 {
		rotator.MaxBackups = v
	}
	if v, err := strconv.Atoi(os.Getenv("AUTARA_LOG_FILE_MAX_AGE_DAYS")); err == nil && v >= 0 {
		rotator.MaxAge = v
	}
	return io.MultiWriter(os.Stdout, rotator)
}

// Setup configures the standard library logger to emit structured JSON and returns
// the underlying slog.Logger for richer logging within the service. All log lines
// include the service name and environment when provided.
func Setup(service, env string) *slog.Logger {
	output := logOutput()
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				level := strings.ToUpper(attr.Value.String())
				return slog.String("severity", level)
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{
		slog.String("service", strings.TrimSpace(service)),
	}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	// Bridge the standard library logger so existing packages continue to work.
	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
