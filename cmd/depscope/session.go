package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"depscope/internal/analyzer"
	"depscope/internal/baseline"
	"depscope/internal/config"
	deperrors "depscope/internal/errors"
	"depscope/internal/report"
	"depscope/internal/slogutil"
)

// session carries what every command needs: the package root, its configuration and a logger.
type session struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	format report.OutputFormat

	logFile *os.File
}

func newSession(cmd *cobra.Command) (*session, error) {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, deperrors.New(deperrors.ConfigInvalid, "invalid configuration", err)
	}

	name := cfg.Report.Format
	if formatFlag != "" {
		name = formatFlag
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel()
	if verboseFlag > 0 || quietFlag {
		level = slogutil.LevelFromVerbosity(verboseFlag, quietFlag)
	}

	s := &session{root: root, cfg: cfg, format: format}
	handlers := []slog.Handler{slogutil.NewHandler(cmd.ErrOrStderr(), level, cfg.LogFormat())}
	if cfg.Logging.File != "" {
		path := cfg.Logging.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		h, f, err := slogutil.OpenFileHandler(path, cfg.LogLevel(), cfg.LogFormat())
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, h)
		s.logFile = f
	}
	s.logger = slogutil.NewTeeLogger(handlers...)
	return s, nil
}

func (s *session) Close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// signalContext cancels on interrupt so a long scan stops between files.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// analyze runs every analysis over the package and builds the full report.
func (s *session) analyze(ctx context.Context) (*report.Report, error) {
	opts, err := s.cfg.AnalyzerOptions(s.root)
	if err != nil {
		return nil, err
	}
	res, err := analyzer.New(s.logger, opts).Run(ctx, s.root)
	if err != nil {
		return nil, err
	}
	rep := report.Build(res)
	s.logger.Info("Analysis complete",
		"files", rep.Summary.Files,
		"findings", rep.Findings(),
		"durationMs", rep.Summary.DurationMs,
	)
	return rep, nil
}

// applyBaseline removes accepted findings when a baseline exists and is enabled.
func (s *session) applyBaseline(rep *report.Report, skip bool) (*report.Report, error) {
	if skip || !s.cfg.Baseline.Enabled || !baseline.Exists(s.root) {
		return rep, nil
	}
	b, err := baseline.Load(s.root)
	if err != nil {
		return nil, err
	}
	res := b.Filter(rep)
	s.logger.Info("Applied baseline",
		"suppressed", res.Suppressed,
		"resolved", res.Resolved,
	)
	return res.Report, nil
}

// print renders v in the session format to the command's stdout.
func (s *session) print(cmd *cobra.Command, v any) error {
	out, err := report.RenderValue(v, s.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
