package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importguard/internal/config"
	"github.com/Sumatoshi-tech/importguard/internal/pipelinecheck"
	"github.com/Sumatoshi-tech/importguard/pkg/pysyntax"
)

func pipelinesCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "pipelines [target ...]",
		Short: "Compile every example pipeline to verify it still builds",
		Long: `Locate example pipeline files under the given targets, import each one
through the configured Python interpreter and compile every @pipeline
function it defines. A pipeline that fails to compile fails the check.

Examples:
  importguard pipelines
  importguard pipelines components/trainer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelines(cmd, root, args)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "repository root")

	return cmd
}

func runPipelines(cmd *cobra.Command, root string, targets []string) error {
	cfg, err := config.LoadConfig(settingsFile)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		targets = cfg.Packages.Roots
	}

	examples, err := pipelinecheck.DiscoverExamples(targets, root, cfg.Packages.Roots)
	if err != nil {
		return err
	}

	if len(examples) == 0 {
		fmt.Fprintln(os.Stdout, "No example pipeline files found.")

		return nil
	}

	compiler := pipelinecheck.NewKFPCompiler(cfg.Python.Interpreter, cfg.Python.SearchPaths)

	summary, err := pipelinecheck.Validate(cmd.Context(), examples, pysyntax.NewParser(), compiler)
	if err != nil {
		return err
	}

	for _, file := range summary.NoPipelines {
		color.New(color.FgYellow).Fprintf(os.Stderr, "WARNING: %s defines no pipeline functions\n", file)
	}

	for _, failure := range summary.Failures {
		fmt.Fprintf(os.Stderr, "%s::%s: %s\n", failure.File, failure.Function, failure.Message)
	}

	if summary.Failed() {
		color.New(color.FgRed).Fprintf(os.Stdout, "%d of %d pipelines failed to compile.\n",
			len(summary.Failures), len(summary.Failures)+len(summary.Compiled))

		return errChecksFailed
	}

	color.New(color.FgGreen).Fprintf(os.Stdout, "All %d pipelines compiled successfully.\n", len(summary.Compiled))

	return nil
}
