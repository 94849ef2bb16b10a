package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// textKeys name attributes that may carry submitted document text. Their
// values are replaced by a length so user writing never reaches the logs.
var textKeys = map[string]bool{
	"text":        true,
	"original":    true,
	"transformed": true,
	"sentence":    true,
}

func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stdout, service, level)
}

// NewJSONLoggerTo writes to w. Commands whose stdout carries data, like the
// CLI and the MCP stdio server, log to stderr.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	lvl := parseLevel(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: redactText,
	})
	return slog.New(handler).With("service", service)
}

func redactText(_ []string, attr slog.Attr) slog.Attr {
	if !textKeys[attr.Key] || attr.Value.Kind() != slog.KindString {
		return attr
	}
	return slog.Int(attr.Key+"_len", len(attr.Value.String()))
}

// parseLevel accepts slog level names and offsets such as "INFO+2". Unknown
// values fall back to info.
func parseLevel(level string) slog.Level {
	raw := strings.TrimSpace(level)
	if strings.EqualFold(raw, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
