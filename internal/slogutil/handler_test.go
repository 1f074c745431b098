package slogutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTextHandler_Format(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{
			name: "message only",
			log:  func(l *slog.Logger) { l.Info("Scanned repository") },
			want: "[info] Scanned repository\n",
		},
		{
			name: "attributes",
			log:  func(l *slog.Logger) { l.Info("Scanned repository", "package", "demo", "files", 42) },
			want: "[info] Scanned repository | package=demo files=42\n",
		},
		{
			name: "quoted values",
			log:  func(l *slog.Logger) { l.Warn("Skipping file", "path", "src/my file.ts", "reason", "") },
			want: `[warn] Skipping file | path="src/my file.ts" reason=""` + "\n",
		},
		{
			name: "error values",
			log:  func(l *slog.Logger) { l.Error("Parse failed", "error", errors.New("unexpected token")) },
			want: `[error] Parse failed | error="unexpected token"` + "\n",
		},
		{
			name: "group attribute",
			log:  func(l *slog.Logger) { l.Info("Ranked", slog.Group("rank", "iterations", 12, "converged", true)) },
			want: "[info] Ranked | rank.iterations=12 rank.converged=true\n",
		},
		{
			name: "handler attrs and group",
			log: func(l *slog.Logger) {
				l.With("run", "r1").WithGroup("scan").Info("Done", "files", 3)
			},
			want: "[info] Done | run=r1 scan.files=3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, slog.LevelDebug))

			// TIMESTAMP [level] Message | key=value
			line := buf.String()
			ts, rest, ok := strings.Cut(line, " ")
			if !ok {
				t.Fatalf("no timestamp in %q", line)
			}
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				t.Errorf("timestamp %q: %v", ts, err)
			}
			if rest != tt.want {
				t.Errorf("got %q, want %q", rest, tt.want)
			}
		})
	}
}

func TestTextHandler_LevelThreshold(t *testing.T) {
	tests := []struct {
		threshold slog.Level
		want      []string
		dropped   []string
	}{
		{slog.LevelDebug, []string{"[debug] d", "[info] i", "[warn] w", "[error] e"}, nil},
		{slog.LevelInfo, []string{"[info] i", "[warn] w", "[error] e"}, []string{"[debug]"}},
		{slog.LevelWarn, []string{"[warn] w", "[error] e"}, []string{"[debug]", "[info]"}},
		{LevelFromVerbosity(0, true), nil, []string{"[debug]", "[info]", "[warn]", "[error]"}},
	}

	for _, tt := range tests {
		t.Run(tt.threshold.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.threshold)
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w+"\n") {
					t.Errorf("missing %q in %q", w, out)
				}
			}
			for _, d := range tt.dropped {
				if strings.Contains(out, d) {
					t.Errorf("%q should be filtered from %q", d, out)
				}
			}
		})
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"Debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{4, false, slog.LevelDebug},
		{2, true, slog.Level(100)},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	h := NewDiscardLogger().Handler()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("discard logger enabled at %v", level)
		}
	}
}

func TestTeeHandler(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewTeeLogger(
		NewHandler(&console, slog.LevelWarn, FormatText),
		NewHandler(&file, slog.LevelDebug, FormatJSON),
	)
	logger.Debug("resolved specifier", "spec", "./a")
	logger.Warn("parse failed", "file", "src/x.ts")

	if strings.Contains(console.String(), "resolved specifier") {
		t.Errorf("console should not receive debug records: %q", console.String())
	}
	if !strings.Contains(console.String(), "[warn] parse failed | file=src/x.ts") {
		t.Errorf("console missing warning: %q", console.String())
	}
	if got := strings.Count(file.String(), "\n"); got != 2 {
		t.Errorf("file received %d records, want 2: %q", got, file.String())
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo, FormatJSON))
	logger.Info("scan finished", "files", 3)

	output := buf.String()
	if !strings.Contains(output, `"msg":"scan finished"`) {
		t.Errorf("expected JSON msg field, got: %s", output)
	}
	if !strings.Contains(output, `"files":3`) {
		t.Errorf("expected JSON files field, got: %s", output)
	}
}

func TestOpenFileHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "depscope.log")
	h, f, err := OpenFileHandler(path, slog.LevelInfo, FormatText)
	if err != nil {
		t.Fatalf("OpenFileHandler: %v", err)
	}
	slog.New(h).Info("written", "k", "v")
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written | k=v") {
		t.Errorf("unexpected log contents: %s", data)
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandler_SkipsNilAndJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := NewTextHandler(&buf, nil)
	failing := failingHandler{NewTextHandler(io.Discard, nil)}

	err := NewTeeHandler(nil, failing, ok).Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Handle() error = %v, want disk full", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("working handler did not receive the record: %q", buf.String())
	}
}
