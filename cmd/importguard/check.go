package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importguard/internal/allowlist"
	"github.com/Sumatoshi-tech/importguard/internal/assets"
	"github.com/Sumatoshi-tech/importguard/internal/config"
	"github.com/Sumatoshi-tech/importguard/internal/discovery"
	"github.com/Sumatoshi-tech/importguard/internal/guard"
	"github.com/Sumatoshi-tech/importguard/internal/stdlib"
)

func checkCmd() *cobra.Command {
	var allowlistPath, format string

	var workers int

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check that top-level imports are limited to the standard library",
		Long: `Check every Python file under the given paths for module-level imports
of modules that are neither standard library nor allow-listed.

Imports inside function and class bodies are always permitted: pushing
heavy dependencies into lazily-executed scopes is the point of the guard.

Examples:
  importguard check components pipelines scripts
  importguard check --config scripts/import_exceptions.json .
  importguard check -f table components`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, allowlistPath, format, workers)
		},
	}

	cmd.Flags().StringVar(&allowlistPath, "config", "", "path to the JSON allow-list (default from settings)")
	cmd.Flags().StringVarP(&format, "format", "f", guard.FormatText, "report format (text, table)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")

	return cmd
}

func runCheck(cmd *cobra.Command, paths []string, allowlistPath, format string, workers int) error {
	cfg, err := config.LoadConfig(settingsFile)
	if err != nil {
		return err
	}

	if allowlistPath == "" {
		allowlistPath = cfg.Guard.Allowlist
	}

	// A broken allow-list could silently mask violations, so it aborts
	// before anything is scanned.
	allowCfg, err := allowlist.Load(allowlistPath)
	if err != nil {
		return err
	}

	files, err := discovery.Discover(paths, discovery.Options{
		Extension:     cfg.Guard.Extension,
		DetectShebang: cfg.Guard.DetectShebang,
	})
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No Python files found to inspect.")

		return nil
	}

	if workers == 0 {
		workers = cfg.Guard.Workers
	}

	ctx := cmd.Context()

	index := stdlib.Build(ctx, cfg.Python.Interpreter)

	runner := guard.New(guard.Options{
		Stdlib:    index,
		Allowlist: allowCfg,
		Workers:   workers,
		Assets: assets.Policy{
			Marker:    cfg.Assets.Marker,
			Manifests: cfg.Assets.Manifests,
		},
	})

	result := runner.Run(ctx, files)

	reportErr := guard.WriteReport(os.Stderr, result, format)
	if reportErr != nil {
		return reportErr
	}

	if !quiet {
		guard.WriteSummary(os.Stderr, result)
	}

	if result.Failed() {
		return errChecksFailed
	}

	return nil
}
