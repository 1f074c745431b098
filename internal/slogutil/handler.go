// Package slogutil provides the slog handlers and logger constructors used across depscope.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TextHandler writes one line per record:
//
//	TIMESTAMP [level] Message | key=value key=value
//
// Group attributes and handler groups are flattened into dotted keys. Values containing
// spaces, quotes or '=' are quoted so that file paths stay readable and parseable.
type TextHandler struct {
	out   *output
	level slog.Leveler

	// prefix holds the attributes from WithAttrs, already rendered.
	prefix string
	group  string
}

// output is shared by every handler derived from the same NewTextHandler call.
type output struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextHandler creates a line-oriented handler. A nil opts logs at info.
func NewTextHandler(w io.Writer, opts *slog.HandlerOptions) *TextHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &TextHandler{out: &output{w: w}, level: level}
}

func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if !r.Time.IsZero() {
		sb.WriteString(r.Time.UTC().Format(time.RFC3339))
		sb.WriteByte(' ')
	}
	sb.WriteByte('[')
	sb.WriteString(levelString(r.Level))
	sb.WriteString("] ")
	sb.WriteString(r.Message)

	attrs := h.prefix
	if r.NumAttrs() > 0 {
		var rec strings.Builder
		r.Attrs(func(a slog.Attr) bool {
			appendAttr(&rec, h.group, a)
			return true
		})
		attrs += rec.String()
	}
	if attrs != "" {
		sb.WriteString(" |")
		sb.WriteString(attrs)
	}
	sb.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := io.WriteString(h.out.w, sb.String())
	return err
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&sb, h.group, a)
	}
	c := *h
	c.prefix = sb.String()
	return &c
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = joinKey(h.group, name)
	return &c
}

// appendAttr renders " key=value", expanding groups into dotted keys. Empty attributes are dropped.
func appendAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := group
		if a.Key != "" {
			inner = joinKey(group, a.Key)
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, inner, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(joinKey(group, a.Key))
	sb.WriteByte('=')
	sb.WriteString(quoteIfNeeded(formatValue(a.Value)))
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// levelString returns a lowercase string for the log level.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}
