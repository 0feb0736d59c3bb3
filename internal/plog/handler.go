// Package plog implements the pretty, level-settable slog handler used
// by the kupferbootstrap CLI: a settable level plus a swappable
// formatter, built directly on log/slog.
package plog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Handler is a slog.Handler whose level and formatter can be changed
// after construction, so the CLI can finish flag parsing before
// committing to a verbosity and output stream. Derived handlers from
// WithAttrs/WithGroup share the same level, formatter and stream.
type Handler struct {
	state *handlerState
	group string
	attrs []slog.Attr
}

// handlerState is the mutable configuration shared by a Handler and
// every handler derived from it.
type handlerState struct {
	mu        sync.Mutex
	level     slog.LevelVar
	formatter Formatter
	stream    io.Writer
}

// NewHandler returns a Handler writing to os.Stderr with the plain
// formatter and an Info level, ready to be replaced once flags are
// parsed.
func NewHandler() *Handler {
	h := &Handler{state: &handlerState{
		formatter: NewPrettyFormatter(false),
		stream:    os.Stderr,
	}}
	h.state.level.Set(slog.LevelInfo)
	return h
}

// SetLevel changes the minimum level the handler emits.
func (h *Handler) SetLevel(level slog.Level) {
	h.state.level.Set(level)
}

// SetFormatter swaps the formatter used to render records.
func (h *Handler) SetFormatter(f Formatter) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.formatter = f
}

// SetStream swaps the output stream records are written to.
func (h *Handler) SetStream(w io.Writer) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.stream = w
}

// Flush is a no-op placeholder kept for parity with buffered
// implementations; the handler currently writes synchronously.
func (h *Handler) Flush() {}

// Enabled reports whether the handler is enabled for the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.state.level.Level()
}

// Handle renders and writes a single record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	h.state.mu.Lock()
	formatter, stream := h.state.formatter, h.state.stream
	h.state.mu.Unlock()

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	line := formatter.Format(r.Time, r.Level, h.group, r.Message, attrs)
	_, err := io.WriteString(stream, line)
	return err
}

// WithAttrs returns a derived handler carrying the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup returns a derived handler scoped under the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group == "" {
		next.group = name
	} else {
		next.group = next.group + "." + name
	}
	return &next
}

// Formatter renders a single log record as a line of text.
type Formatter interface {
	Format(t time.Time, level slog.Level, group, msg string, attrs []slog.Attr) string
}

// PrettyFormatter renders human-readable lines, optionally colorized for
// an interactive terminal and optionally including attribute detail.
type PrettyFormatter struct {
	color   bool
	verbose bool
}

// NewPrettyFormatter returns a formatter. color enables ANSI level
// coloring, intended for use when the destination is a TTY.
func NewPrettyFormatter(color bool) *PrettyFormatter {
	return &PrettyFormatter{color: color}
}

// SetVerbose toggles whether attributes are rendered inline.
func (f *PrettyFormatter) SetVerbose(v bool) {
	f.verbose = v
}

func (f *PrettyFormatter) Format(t time.Time, level slog.Level, group, msg string, attrs []slog.Attr) string {
	var b strings.Builder
	b.WriteString(t.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(f.levelTag(level))
	b.WriteByte(' ')
	if group != "" {
		b.WriteByte('[')
		b.WriteString(group)
		b.WriteString("] ")
	}
	b.WriteString(msg)
	if f.verbose {
		for _, a := range attrs {
			fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func (f *PrettyFormatter) levelTag(level slog.Level) string {
	tag := levelTag(level)
	if !f.color {
		return tag
	}
	return colorForLevel(level) + tag + "\x1b[0m"
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERRO"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBU"
	}
}

func colorForLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\x1b[31m"
	case level >= slog.LevelWarn:
		return "\x1b[33m"
	case level >= slog.LevelInfo:
		return "\x1b[36m"
	default:
		return "\x1b[90m"
	}
}
