package utils

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContextFallsBack(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	if logger == nil {
		t.Fatal("LoggerFromContext returned nil for a bare context")
	}
	// Must be usable, not just non-nil.
	logger.Debug("fallback logger smoke check")
}

func TestLoggerFromContextReturnsAttached(t *testing.T) {
	attached := NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.WithValue(context.Background(), loggerContextKey{}, attached)

	if got := LoggerFromContext(ctx); got != attached {
		t.Errorf("LoggerFromContext = %v, want the attached logger", got)
	}
}
