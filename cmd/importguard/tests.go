package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importguard/internal/config"
	"github.com/Sumatoshi-tech/importguard/internal/testrun"
)

func testsCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "tests [target ...]",
		Short: "Run the pytest suites of the targeted assets",
		Long: `Discover tests/ directories under the given targets and run them in a
single pytest invocation with a per-test timeout.

Examples:
  importguard tests
  importguard tests components/trainer pipelines/ingest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, root, args)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "repository root")

	return cmd
}

func runTests(cmd *cobra.Command, root string, targets []string) error {
	cfg, err := config.LoadConfig(settingsFile)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		targets = cfg.Packages.Roots
	}

	dirs, err := testrun.DiscoverTestDirs(targets, root, cfg.Packages.Roots)
	if err != nil {
		return err
	}

	if len(dirs) == 0 {
		fmt.Fprintln(os.Stdout, "No tests/ directories found under the given targets.")

		return nil
	}

	runner := &testrun.PytestRunner{
		Interpreter: cfg.Python.Interpreter,
		Verbose:     verbose,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}

	timeout := time.Duration(cfg.Tests.TimeoutSeconds) * time.Second

	code, err := runner.Run(cmd.Context(), dirs, timeout)
	if err != nil {
		return err
	}

	if code != 0 {
		color.New(color.FgRed).Fprintf(os.Stdout, "pytest exited with code %d.\n", code)

		return errChecksFailed
	}

	color.New(color.FgGreen).Fprintf(os.Stdout, "All test suites passed (%d directories).\n", len(dirs))

	return nil
}
