package guard

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

var errUnsupportedFormat = errors.New("unsupported report format")

// Report formats.
const (
	FormatText  = "text"
	FormatTable = "table"
)

// WriteReport writes the diagnostic report for a run. Warnings come
// first, sorted and deduplicated; then one line per finding in discovery
// order, parse failures interleaved with their file's position.
func WriteReport(w io.Writer, result *Result, format string) error {
	for _, warning := range result.Warnings {
		color.New(color.FgYellow).Fprintf(w, "WARNING: %s\n", warning)
	}

	switch format {
	case FormatTable:
		writeTableReport(w, result)
	case FormatText, "":
		writeTextReport(w, result)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFormat, format)
	}

	return nil
}

func writeTextReport(w io.Writer, result *Result) {
	for i := range result.Files {
		fileResult := &result.Files[i]

		if fileResult.ParseFailure != nil {
			fmt.Fprintf(w, "%s: failed to parse (%s)\n", fileResult.File, fileResult.ParseFailure.Message)
		}

		for _, violation := range fileResult.Violations {
			fmt.Fprintf(w, "%s:%d: imports non-stdlib module '%s' at top level\n",
				violation.File, violation.Line, violation.Module)
		}
	}
}

// writeTableReport renders a per-module summary table above the plain
// findings, for humans triaging a large batch.
func writeTableReport(w io.Writer, result *Result) {
	violations := result.Violations()
	if len(violations) > 0 {
		type moduleStats struct {
			count     int
			firstSite string
		}

		byModule := make(map[string]*moduleStats)

		for _, violation := range violations {
			stats, ok := byModule[violation.Module]
			if !ok {
				stats = &moduleStats{firstSite: fmt.Sprintf("%s:%d", violation.File, violation.Line)}
				byModule[violation.Module] = stats
			}

			stats.count++
		}

		modules := make([]string, 0, len(byModule))
		for module := range byModule {
			modules = append(modules, module)
		}

		sort.Strings(modules)

		tbl := table.NewWriter()
		tbl.SetOutputMirror(w)
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Module", "Occurrences", "First site"})

		for _, module := range modules {
			stats := byModule[module]
			tbl.AppendRow(table.Row{module, stats.count, stats.firstSite})
		}

		tbl.AppendFooter(table.Row{"Total", len(violations), ""})
		tbl.Render()
	}

	writeTextReport(w, result)
}

// WriteSummary prints the verdict line.
func WriteSummary(w io.Writer, result *Result) {
	scanned := humanize.Comma(int64(result.FilesScanned))

	if !result.Failed() {
		color.New(color.FgGreen).Fprintf(w, "All top-level imports OK (%s files scanned)\n", scanned)

		return
	}

	violations := len(result.Violations())
	parseFailures := len(result.ParseFailures())

	color.New(color.FgRed).Fprintf(w, "Import guard failed: %d violation(s), %d parse failure(s) across %s files\n",
		violations, parseFailures, scanned)
}
