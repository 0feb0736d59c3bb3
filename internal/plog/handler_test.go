package plog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler()
	h.SetStream(&buf)
	h.SetLevel(slog.LevelWarn)

	logger := slog.New(h)
	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler()
	h.SetStream(&buf)
	logger := slog.New(h.WithGroup("kupferbootstrap"))
	logger.Info("hello")

	if !strings.Contains(buf.String(), "[kupferbootstrap] hello") {
		t.Fatalf("group not rendered: %q", buf.String())
	}
}

func TestHandlerVerboseAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler()
	h.SetStream(&buf)
	h.SetFormatter(func() Formatter {
		f := NewPrettyFormatter(false)
		f.SetVerbose(true)
		return f
	}())

	logger := slog.New(h)
	logger.Info("built", "arch", "aarch64")

	if !strings.Contains(buf.String(), "arch=aarch64") {
		t.Fatalf("verbose attr missing: %q", buf.String())
	}
}

func TestHandlerEnabled(t *testing.T) {
	h := NewHandler()
	h.SetLevel(slog.LevelError)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at error level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should be enabled at error level")
	}
}
