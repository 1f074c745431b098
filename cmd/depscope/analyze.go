package main

import (
	"github.com/spf13/cobra"

	"depscope/internal/history"
	"depscope/internal/report"
)

var (
	analyzeSections       []string
	analyzeNoBaseline     bool
	analyzeNoHistory      bool
	analyzeFailOnFindings bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run every analysis and print the full report",
	Long: `Analyze the package at --root: dependencies, graph structure, unused exports,
architecture and export flows.

Findings accepted in .depscope/baseline.toml are filtered out. Each run is recorded in
.depscope/history.db unless history is disabled.

Examples:
  depscope analyze
  depscope analyze --format markdown > REPORT.md
  depscope analyze --section unused,architecture
  depscope analyze --fail-on-findings --format json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeSections, "section", nil, "Sections to print (dependencies, structure, unused, architecture, flows, keyFiles)")
	analyzeCmd.Flags().BoolVar(&analyzeNoBaseline, "no-baseline", false, "Report every finding, ignoring the baseline")
	analyzeCmd.Flags().BoolVar(&analyzeNoHistory, "no-history", false, "Do not record this run")
	analyzeCmd.Flags().BoolVar(&analyzeFailOnFindings, "fail-on-findings", false, "Exit with status 2 when findings remain")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sections, err := parseSections(analyzeSections)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	full, err := s.analyze(ctx)
	if err != nil {
		return err
	}

	if s.cfg.History.Enabled && !analyzeNoHistory {
		if err := recordRun(cmd, s, full); err != nil {
			s.logger.Warn("Failed to record run", "error", err)
		}
	}

	rep, err := s.applyBaseline(full, analyzeNoBaseline)
	if err != nil {
		return err
	}
	if len(sections) > 0 {
		rep = rep.Only(sections...)
	}
	if err := s.print(cmd, rep); err != nil {
		return err
	}

	if analyzeFailOnFindings && rep.Findings() > 0 {
		return &findingsError{count: rep.Findings()}
	}
	return nil
}

func parseSections(names []string) ([]report.Section, error) {
	sections := make([]report.Section, 0, len(names))
	for _, name := range names {
		sec, err := report.ParseSection(name)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// recordRun stores the unfiltered report and prunes old runs.
func recordRun(cmd *cobra.Command, s *session, rep *report.Report) error {
	store, err := history.Open(s.root, s.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Record(cmd.Context(), rep)
	if err != nil {
		return err
	}
	if s.cfg.History.Keep > 0 {
		removed, err := store.Prune(cmd.Context(), s.cfg.History.Keep)
		if err != nil {
			return err
		}
		if removed > 0 {
			s.logger.Debug("Pruned history", "removed", removed, "keep", s.cfg.History.Keep)
		}
	}
	s.logger.Info("Recorded run", "id", run.ID)
	return nil
}
