package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importguard/internal/config"
	"github.com/Sumatoshi-tech/importguard/internal/pypackages"
)

func packagesCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Validate that the declared package list matches the tree",
		Long: `Discover every Python package under the repository's component and
pipeline subtrees and diff the set against tool.setuptools.packages in
pyproject.toml.

Examples:
  importguard packages
  importguard packages --root /path/to/repo`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPackages(root)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "repository root")

	return cmd
}

func runPackages(root string) error {
	cfg, err := config.LoadConfig(settingsFile)
	if err != nil {
		return err
	}

	diff, err := pypackages.Validate(root, filepath.Join(root, cfg.Packages.Manifest), pypackages.Options{
		Prefix: cfg.Packages.Prefix,
		Roots:  cfg.Packages.Roots,
	})
	if err != nil {
		return err
	}

	if diff.InSync() {
		color.New(color.FgGreen).Fprintf(os.Stdout, "All package entries in %s are up to date.\n", cfg.Packages.Manifest)

		return nil
	}

	color.New(color.FgRed).Fprintf(os.Stdout, "Package entries in %s are out of sync:\n", cfg.Packages.Manifest)

	if len(diff.Missing) > 0 {
		fmt.Fprintf(os.Stdout, "Missing packages (found %d):\n", len(diff.Missing))

		for _, name := range diff.Missing {
			fmt.Fprintf(os.Stdout, "  - %s\n", name)
		}
	}

	if len(diff.Extra) > 0 {
		fmt.Fprintf(os.Stdout, "Extra packages (found %d):\n", len(diff.Extra))

		for _, name := range diff.Extra {
			fmt.Fprintf(os.Stdout, "  - %s\n", name)
		}
	}

	fmt.Fprintf(os.Stdout, "To fix, update the 'packages' list under [tool.setuptools] to match the tree.\n")

	return errChecksFailed
}
