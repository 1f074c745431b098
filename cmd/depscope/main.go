package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	deperrors "depscope/internal/errors"
)

const (
	exitError    = 1
	exitFindings = 2
)

// findingsError ends a run whose report still contains findings after baseline filtering.
type findingsError struct {
	count int
}

func (e *findingsError) Error() string {
	return fmt.Sprintf("%d findings", e.count)
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the root command and maps its error to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var fe *findingsError
	if errors.As(err, &fe) {
		fmt.Fprintf(stderr, "depscope: %d findings\n", fe.count)
		return exitFindings
	}
	printError(stderr, err)
	return exitError
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var de *deperrors.Error
	if !errors.As(err, &de) {
		return
	}
	for _, fix := range de.SuggestedFixes {
		switch fix.Type {
		case deperrors.RunCommand:
			fmt.Fprintf(w, "  hint: %s\n    %s\n", fix.Description, fix.Command)
		case deperrors.EditFile:
			fmt.Fprintf(w, "  hint: %s (%s)\n", fix.Description, fix.Path)
		}
	}
}
