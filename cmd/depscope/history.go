package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	deperrors "depscope/internal/errors"
	"depscope/internal/history"
	"depscope/internal/report"
)

var (
	historyLimit int
	historyKeep  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded analysis runs",
	Long: `Every 'depscope analyze' run is stored in .depscope/history.db with its full report.

Examples:
  depscope history list
  depscope history show latest --format markdown
  depscope history diff
  depscope history prune --keep 10`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id|latest]",
	Short: "Print the report of a recorded run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryShow,
}

var historyDiffCmd = &cobra.Command{
	Use:   "diff [from-id] [to-id]",
	Short: "Compare the headline counts of two runs (default: the two newest)",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runHistoryDiff,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", -1, "Runs to keep (default: history.keep from config)")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDiffCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (*session, *history.Store, error) {
	s, err := newSession(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(s.root, s.logger)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	s, store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	defer store.Close()

	runs, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if s.format != report.FormatHuman {
		return s.print(cmd, runs)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tFILES\tFINDINGS\tCYCLES\tUNUSED\tVIOLATIONS\tUNLISTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Files, r.Findings, r.Cycles, r.UnusedExports, r.Violations, r.Unlisted)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	s, store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	defer store.Close()

	var rep *report.Report
	if len(args) == 0 || args[0] == "latest" {
		_, rep, err = store.Latest(cmd.Context())
	} else {
		_, rep, err = store.Get(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}
	return s.print(cmd, rep)
}

func runHistoryDiff(cmd *cobra.Command, args []string) error {
	s, store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	defer store.Close()

	ctx := cmd.Context()
	var from, to *history.Run
	switch len(args) {
	case 2:
		if from, _, err = store.Get(ctx, args[0]); err != nil {
			return err
		}
		if to, _, err = store.Get(ctx, args[1]); err != nil {
			return err
		}
	case 1:
		if from, _, err = store.Get(ctx, args[0]); err != nil {
			return err
		}
		if to, _, err = store.Latest(ctx); err != nil {
			return err
		}
	default:
		runs, err := store.List(ctx, 2)
		if err != nil {
			return err
		}
		if len(runs) < 2 {
			return deperrors.Newf(deperrors.RunNotFound, "need two recorded runs to compare, found %d", len(runs))
		}
		from, to = &runs[1], &runs[0]
	}

	d := history.Compare(*from, *to)
	if s.format != report.FormatHuman {
		return s.print(cmd, d)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatDeltaHuman(d))
	return nil
}

func formatDeltaHuman(d history.Delta) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s → %s\n", d.From, d.To)
	rows := []struct {
		label string
		value int
	}{
		{"Files", d.Files},
		{"Findings", d.Findings},
		{"Cycles", d.Cycles},
		{"Unused exports", d.UnusedExports},
		{"Violations", d.Violations},
		{"Unlisted", d.Unlisted},
	}
	for _, r := range rows {
		fmt.Fprintf(&sb, "  %-15s %+d\n", r.label, r.value)
	}
	if d.Regressed() {
		sb.WriteString("Regressed: findings increased.\n")
	}
	return sb.String()
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	s, store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	defer store.Close()

	keep := historyKeep
	if keep < 0 {
		keep = s.cfg.History.Keep
	}
	removed, err := store.Prune(cmd.Context(), keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs, kept at most %d\n", removed, keep)
	return nil
}
