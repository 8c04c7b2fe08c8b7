// Package pipelinecheck validates example pipeline modules: every exported
// pipeline function must compile into a pipeline package.
package pipelinecheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/importguard/pkg/pysyntax"
)

// exampleFileName is the conventional name of pipeline example modules.
const exampleFileName = "example_pipelines.py"

// Compiler compiles one pipeline function exported by a module file into
// a pipeline package at outputPath. Implementations surface compile
// problems as ordinary errors.
type Compiler interface {
	Compile(ctx context.Context, modulePath, function, outputPath string) error
}

// Failure is one pipeline that did not compile.
type Failure struct {
	File     string
	Function string
	Message  string
}

// Summary aggregates a validation run.
type Summary struct {
	Compiled    []string // "file::function" entries, in discovery order
	Failures    []Failure
	NoPipelines []string // example files exporting no pipeline functions
}

// Failed reports whether any pipeline failed to compile.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// DiscoverExamples finds example pipeline modules under the targets,
// restricted to the given subtrees of the repo root. Results are sorted
// and deduplicated.
func DiscoverExamples(targets []string, repoRoot string, allowedRoots []string) ([]string, error) {
	seen := make(map[string]struct{})

	var found []string

	for _, target := range targets {
		searchRoot := target

		info, err := os.Stat(target)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			searchRoot = filepath.Dir(target)
		}

		err = filepath.Walk(searchRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() || filepath.Base(path) != exampleFileName {
				return nil
			}

			if !underAllowedRoot(path, repoRoot, allowedRoots) {
				return nil
			}

			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				found = append(found, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover examples under %s: %w", searchRoot, err)
		}
	}

	sort.Strings(found)

	return found, nil
}

// Validate statically finds the pipeline functions of every example file
// and compiles each one into a scratch directory. Compile failures
// accumulate; they never abort the remaining pipelines.
func Validate(ctx context.Context, files []string, parser *pysyntax.Parser, compiler Compiler) (*Summary, error) {
	summary := &Summary{}

	scratch, err := os.MkdirTemp("", "importguard-pipelines-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	for _, file := range files {
		content, readErr := os.ReadFile(file)
		if readErr != nil {
			summary.Failures = append(summary.Failures, Failure{File: file, Message: readErr.Error()})

			continue
		}

		tree, parseErr := parser.Parse(ctx, file, content)
		if parseErr != nil {
			summary.Failures = append(summary.Failures, Failure{File: file, Message: parseErr.Error()})

			continue
		}

		functions := pysyntax.FindPipelineFunctions(tree)
		if len(functions) == 0 {
			summary.NoPipelines = append(summary.NoPipelines, file)

			continue
		}

		for _, function := range functions {
			stub := fmt.Sprintf("%s__%s.json", strings.TrimSuffix(filepath.Base(file), ".py"), function)
			outputPath := filepath.Join(scratch, stub)

			compileErr := compiler.Compile(ctx, file, function, outputPath)
			if compileErr != nil {
				summary.Failures = append(summary.Failures, Failure{
					File:     file,
					Function: function,
					Message:  compileErr.Error(),
				})

				continue
			}

			summary.Compiled = append(summary.Compiled, file+"::"+function)
		}
	}

	return summary, nil
}

func underAllowedRoot(path, repoRoot string, allowedRoots []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	first, _, _ := strings.Cut(rel, string(filepath.Separator))

	for _, root := range allowedRoots {
		if first == root {
			return true
		}
	}

	return false
}
