package main

import (
	"github.com/spf13/cobra"

	"depscope/internal/exportflow"
	"depscope/internal/report"
)

var (
	sectionNoBaseline bool

	flowsPublicOnly bool
	flowsNames      []string
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Compare declared dependencies with the packages the sources import",
	Long: `List unused, unlisted and misplaced dependencies together with per-package usage.

Examples:
  depscope deps
  depscope deps --format json`,
	Args: cobra.NoArgs,
	RunE: sectionRunner(report.SectionDependencies, nil),
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Show circular imports, barrel files and the most imported files",
	Args:  cobra.NoArgs,
	RunE:  sectionRunner(report.SectionStructure, nil),
}

var unusedCmd = &cobra.Command{
	Use:   "unused",
	Short: "Find unused exports and orphan files",
	Long: `Find exports no other file imports and files nothing reaches.

Entry points, tests and config files are never reported. Patterns in deadCode.exclude
skip matching files.

Examples:
  depscope unused
  depscope unused --no-baseline --format markdown`,
	Args: cobra.NoArgs,
	RunE: sectionRunner(report.SectionUnused, nil),
}

var archCmd = &cobra.Command{
	Use:   "arch",
	Short: "Detect the architectural pattern and check layer rules",
	Long: `Detect the directory pattern (feature-based, layered, flat or mixed), assign files to
layers and report imports that cross layer boundaries.

Layers come from LAYERS.toml when present; run 'depscope init' to write the defaults.`,
	Args: cobra.NoArgs,
	RunE: sectionRunner(report.SectionArchitecture, nil),
}

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Trace exported symbols through re-exports to the package entry points",
	Long: `Show where every export is defined, which files re-export it and which entry points
make it public.

Examples:
  depscope flows --public-only
  depscope flows --name createClient --name Config`,
	Args: cobra.NoArgs,
	RunE: sectionRunner(report.SectionFlows, filterFlows),
}

func init() {
	for _, c := range []*cobra.Command{depsCmd, cyclesCmd, unusedCmd, archCmd, flowsCmd} {
		c.Flags().BoolVar(&sectionNoBaseline, "no-baseline", false, "Report every finding, ignoring the baseline")
		rootCmd.AddCommand(c)
	}
	flowsCmd.Flags().BoolVar(&flowsPublicOnly, "public-only", false, "Only show exports reachable from an entry point")
	flowsCmd.Flags().StringSliceVar(&flowsNames, "name", nil, "Only show exports with these names")
}

// sectionRunner analyzes the package and prints one report section, optionally post-processed.
func sectionRunner(section report.Section, post func(*report.Report)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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
		rep, err = s.applyBaseline(rep, sectionNoBaseline)
		if err != nil {
			return err
		}
		rep = rep.Only(section)
		if post != nil {
			post(rep)
		}
		return s.print(cmd, rep)
	}
}

func filterFlows(rep *report.Report) {
	if rep.Flows == nil || (!flowsPublicOnly && len(flowsNames) == 0) {
		return
	}
	names := make(map[string]bool, len(flowsNames))
	for _, n := range flowsNames {
		names[n] = true
	}
	kept := []exportflow.ExportFlow{}
	for _, f := range rep.Flows.Exports {
		if flowsPublicOnly && !f.IsPublic() {
			continue
		}
		if len(names) > 0 && !names[f.ExportedName] {
			continue
		}
		kept = append(kept, f)
	}
	rep.Flows = &report.Flows{Exports: kept}
}
