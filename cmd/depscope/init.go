package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depscope/internal/architecture"
	"depscope/internal/config"
	"depscope/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration and layer declaration",
	Long: `Create .depscope/config.json with the default settings and LAYERS.toml with the
default architectural layers. Existing files are kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}
	out := cmd.OutOrStdout()

	configPath := paths.ConfigPath(root)
	if initForce || !exists(configPath) {
		if _, err := config.DefaultConfig().Save(root); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	} else {
		fmt.Fprintf(out, "Kept existing %s\n", configPath)
	}

	layersPath := filepath.Join(root, architecture.LayersDeclarationFile)
	if initForce || !exists(layersPath) {
		if err := architecture.WriteLayersFile(layersPath, architecture.DefaultLayersFile()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", layersPath)
	} else {
		fmt.Fprintf(out, "Kept existing %s\n", layersPath)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
