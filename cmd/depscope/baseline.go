package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"depscope/internal/baseline"
	deperrors "depscope/internal/errors"
	"depscope/internal/report"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Accept the current findings so that only new ones are reported",
	Long: `Manage .depscope/baseline.toml. Findings listed there are filtered out of every report,
so CI only fails on cycles, unused exports, layer violations and unlisted dependencies
introduced after the baseline was saved.`,
}

var baselineSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Analyze the package and accept every current finding",
	Args:  cobra.NoArgs,
	RunE:  runBaselineSave,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the accepted findings",
	Args:  cobra.NoArgs,
	RunE:  runBaselineShow,
}

func init() {
	baselineCmd.AddCommand(baselineSaveCmd)
	baselineCmd.AddCommand(baselineShowCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineSave(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	rep, err := s.analyze(ctx)
	if err != nil {
		return err
	}
	b := baseline.FromReport(rep)
	path, err := b.Save(s.root)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d accepted findings to %s\n", b.Size(), path)
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := baseline.Load(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return deperrors.New(deperrors.ConfigInvalid, "no baseline saved; run 'depscope baseline save'", err)
	}
	if err != nil {
		return err
	}

	if s.format != report.FormatHuman {
		return s.print(cmd, b)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatBaselineHuman(b))
	return nil
}

func formatBaselineHuman(b *baseline.Baseline) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Baseline for %s (saved %s)\n", valueOr(b.Package, "(unnamed package)"), b.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "%d accepted findings\n", b.Size())

	if len(b.Cycles) > 0 {
		sb.WriteString("\nCycles:\n")
		for _, c := range b.Cycles {
			if len(c.Files) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "  ↻ %s\n", strings.Join(append(append([]string{}, c.Files...), c.Files[0]), " → "))
		}
	}
	if len(b.UnusedExports) > 0 {
		sb.WriteString("\nUnused exports:\n")
		for _, u := range b.UnusedExports {
			fmt.Fprintf(&sb, "  %s  %s\n", u.File, u.Export)
		}
	}
	if len(b.Violations) > 0 {
		sb.WriteString("\nLayer violations:\n")
		for _, v := range b.Violations {
			fmt.Fprintf(&sb, "  %s → %s\n", v.From, v.To)
		}
	}
	if len(b.Unlisted) > 0 {
		fmt.Fprintf(&sb, "\nUnlisted dependencies: %s\n", strings.Join(b.Unlisted, ", "))
	}
	return sb.String()
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
