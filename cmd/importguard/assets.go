package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importguard/internal/assets"
	"github.com/Sumatoshi-tech/importguard/internal/config"
)

func assetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets [root ...]",
		Short: "List the assets discovered under the given roots",
		Long: `Walk the given roots for asset marker files and print each asset's
metadata. Without arguments the configured component and pipeline roots
are used.

Examples:
  importguard assets
  importguard assets components`,
		RunE: func(_ *cobra.Command, args []string) error {
			return runAssets(args)
		},
	}

	return cmd
}

func runAssets(roots []string) error {
	cfg, err := config.LoadConfig(settingsFile)
	if err != nil {
		return err
	}

	if len(roots) == 0 {
		roots = cfg.Packages.Roots
	}

	policy := assets.Policy{
		Marker:    cfg.Assets.Marker,
		Manifests: cfg.Assets.Manifests,
	}

	found, err := assets.List(roots, policy)
	if err != nil {
		return err
	}

	if len(found) == 0 {
		fmt.Fprintln(os.Stdout, "No assets found under the given roots.")

		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Root", "Name", "Version", "Owner"})

	for _, asset := range found {
		tw.AppendRow(table.Row{asset.Root, asset.Metadata.Name, asset.Metadata.Version, asset.Metadata.Owner})
	}

	tw.AppendFooter(table.Row{"Total", len(found), "", ""})
	tw.Render()

	return nil
}
