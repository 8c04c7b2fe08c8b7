// Package guard orchestrates the import guard: it parses each discovered
// file, extracts module-level imports, classifies them against the stdlib
// index and allow-list, and accumulates violations and advisory warnings.
package guard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/importguard/internal/allowlist"
	"github.com/Sumatoshi-tech/importguard/internal/assets"
	"github.com/Sumatoshi-tech/importguard/internal/discovery"
	"github.com/Sumatoshi-tech/importguard/internal/stdlib"
	"github.com/Sumatoshi-tech/importguard/pkg/pysyntax"
)

// Violation is one module-level import of a non-stdlib, non-allow-listed
// module. Violations are immutable, accumulated in discovery order, and
// never deduplicated.
type Violation struct {
	File   string
	Line   int
	Module string
}

// ParseFailure records a file that could not be parsed. It is a
// violation-class event: the run continues, but the verdict fails.
type ParseFailure struct {
	File    string
	Message string
}

// FileResult holds the findings for one scanned file.
type FileResult struct {
	File         string
	ParseFailure *ParseFailure
	Violations   []Violation
}

// Result is the outcome of one guard run. Files preserves discovery
// order; Warnings are deduplicated and sorted.
type Result struct {
	Files        []FileResult
	Warnings     []string
	FilesScanned int
}

// Failed reports whether the run found any violation or parse failure.
func (r *Result) Failed() bool {
	for i := range r.Files {
		if r.Files[i].ParseFailure != nil || len(r.Files[i].Violations) > 0 {
			return true
		}
	}

	return false
}

// Violations returns all violations flattened in discovery order.
func (r *Result) Violations() []Violation {
	var out []Violation

	for i := range r.Files {
		out = append(out, r.Files[i].Violations...)
	}

	return out
}

// ParseFailures returns all parse failures in discovery order.
func (r *Result) ParseFailures() []ParseFailure {
	var out []ParseFailure

	for i := range r.Files {
		if r.Files[i].ParseFailure != nil {
			out = append(out, *r.Files[i].ParseFailure)
		}
	}

	return out
}

// Options configure a guard run. Stdlib and Allowlist are immutable after
// construction and shared read-only across all workers.
type Options struct {
	Stdlib    *stdlib.Index
	Allowlist *allowlist.Config
	Assets    assets.Policy

	// Workers bounds the worker pool; 0 means runtime.NumCPU().
	Workers int
}

// Guard classifies imports across a batch of files. Each file is
// independent, so the scan parallelizes freely.
type Guard struct {
	parser *pysyntax.Parser
	opts   Options
}

// New creates a Guard. A nil allow-list behaves as permit-nothing.
func New(opts Options) *Guard {
	if opts.Allowlist == nil {
		opts.Allowlist = allowlist.Empty()
	}

	return &Guard{parser: pysyntax.NewParser(), opts: opts}
}

// Run scans all files and returns the aggregated result. No file's
// classification depends on any other file's outcome; parse failures and
// violations never short-circuit the rest of the batch.
func (g *Guard) Run(ctx context.Context, files []discovery.File) *Result {
	perFile := make([]fileOutcome, len(files))

	workers := g.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > len(files) {
		workers = len(files)
	}

	if workers <= 1 {
		for i := range files {
			perFile[i] = g.checkFile(ctx, files[i].Path)
		}
	} else {
		g.runParallel(ctx, files, perFile, workers)
	}

	return mergeOutcomes(files, perFile)
}

// fileOutcome is the per-worker result slot for one file. Warnings stay
// per-file here and are merged through a set afterwards.
type fileOutcome struct {
	parseFailure *ParseFailure
	violations   []Violation
	warnings     []string
}

// runParallel fans the scan out across a fixed-size worker pool. Workers
// write only to their own index in perFile, so the merge step is the only
// synchronization point beyond the work channel.
func (g *Guard) runParallel(ctx context.Context, files []discovery.File, perFile []fileOutcome, workers int) {
	work := make(chan int, len(files))

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range work {
				perFile[idx] = g.checkFile(ctx, files[idx].Path)
			}
		}()
	}

	for i := range files {
		work <- i
	}

	close(work)
	wg.Wait()
}

// checkFile reads, parses, and classifies one file.
func (g *Guard) checkFile(ctx context.Context, path string) fileOutcome {
	var outcome fileOutcome

	content, err := os.ReadFile(path)
	if err != nil {
		outcome.parseFailure = &ParseFailure{File: path, Message: err.Error()}

		return outcome
	}

	tree, err := g.parser.Parse(ctx, path, content)
	if err != nil {
		var parseErr *pysyntax.ParseError
		if errors.As(err, &parseErr) {
			outcome.parseFailure = &ParseFailure{File: path, Message: parseErr.Error()}
		} else {
			outcome.parseFailure = &ParseFailure{File: path, Message: err.Error()}
		}

		return outcome
	}

	for decl := range pysyntax.ExtractTopLevel(tree) {
		if g.opts.Stdlib != nil && g.opts.Stdlib.Contains(decl.Module) {
			continue
		}

		if g.opts.Allowlist.IsAllowed(decl.Module, path) {
			if warning := g.manifestAdvisory(path); warning != "" {
				outcome.warnings = append(outcome.warnings, warning)
			}

			continue
		}

		outcome.violations = append(outcome.violations, Violation{
			File:   path,
			Line:   decl.Line,
			Module: decl.Module,
		})
	}

	return outcome
}

// manifestAdvisory checks whether the file's asset root (if any) carries a
// dependency manifest. Allow-listed third-party imports are fine, but the
// asset should still declare its dev/test dependencies somewhere.
func (g *Guard) manifestAdvisory(path string) string {
	root, ok := assets.FindRoot(filepath.Dir(path), g.opts.Assets)
	if !ok {
		return ""
	}

	return assets.CheckManifests(root, g.opts.Assets)
}

// mergeOutcomes collapses per-file outcomes into the final Result.
// Warnings go through a set: one message per asset root no matter how many
// files or imports triggered it.
func mergeOutcomes(files []discovery.File, perFile []fileOutcome) *Result {
	result := &Result{FilesScanned: len(files)}

	warningSet := make(map[string]struct{})

	for i := range perFile {
		result.Files = append(result.Files, FileResult{
			File:         files[i].Path,
			ParseFailure: perFile[i].parseFailure,
			Violations:   perFile[i].violations,
		})

		for _, warning := range perFile[i].warnings {
			warningSet[warning] = struct{}{}
		}
	}

	for warning := range warningSet {
		result.Warnings = append(result.Warnings, warning)
	}

	sort.Strings(result.Warnings)

	return result
}
