// Package main provides the importguard CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importguard/internal/observability"
	"github.com/Sumatoshi-tech/importguard/pkg/version"
)

// errChecksFailed signals a completed run that found problems. All
// diagnostics are already printed when it is returned, so main exits 1
// without further output.
var errChecksFailed = errors.New("checks failed")

var (
	settingsFile string //nolint:gochecknoglobals // CLI flag variable
	verbose      bool   //nolint:gochecknoglobals // CLI flag variable
	quiet        bool   //nolint:gochecknoglobals // CLI flag variable
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "importguard",
		Short: "Static import guard for Python source trees",
		Long: `importguard enforces the repository's import strategy: third-party or
heavy dependencies must be imported inside function or pipeline bodies,
never at module import time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			observability.SetupLogging(verbose, quiet)
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default is ./.importguard.yaml or $HOME/.importguard.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(packagesCmd())
	rootCmd.AddCommand(pipelinesCmd())
	rootCmd.AddCommand(testsCmd())
	rootCmd.AddCommand(assetsCmd())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "importguard %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}

	return cmd
}
