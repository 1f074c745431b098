package main

import (
	"github.com/spf13/cobra"

	"depscope/internal/version"
)

var (
	rootFlag    string
	formatFlag  string
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "depscope",
	Short: "depscope - dependency and architecture analysis for JavaScript and TypeScript packages",
	Long: `depscope reads a package's manifest and sources, builds the module graph and reports
declared-versus-used dependencies, circular imports, unused exports, architectural layer
violations and the public export surface.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("depscope version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", ".", "Package directory containing package.json")
	pf.StringVar(&formatFlag, "format", "", "Output format (json, human, markdown, yaml); defaults to report.format from config")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVar(&quietFlag, "quiet", false, "Suppress log output on stderr")
}
