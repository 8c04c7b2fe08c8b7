// Package testrun discovers per-asset test directories and executes them
// with pytest under a per-test timeout.
package testrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// testsDirName is the conventional test directory name inside an asset.
const testsDirName = "tests"

// Runner executes a batch of test directories and reports the child
// process exit code.
type Runner interface {
	Run(ctx context.Context, testDirs []string, timeout time.Duration) (int, error)
}

// PytestRunner runs pytest with the pytest-timeout plugin flags.
type PytestRunner struct {
	// Interpreter is the Python executable used to launch pytest.
	Interpreter string

	// Verbose passes -vv to pytest.
	Verbose bool

	Stdout, Stderr *os.File
}

// Run invokes pytest on the given directories. The returned int is the
// pytest exit code; a non-zero code is not an error here, only a result.
func (r *PytestRunner) Run(ctx context.Context, testDirs []string, timeout time.Duration) (int, error) {
	args := []string{
		"-m", "pytest",
		fmt.Sprintf("--timeout=%d", int(timeout.Seconds())),
		"--timeout-method=signal",
	}

	if r.Verbose {
		args = append(args, "-vv")
	}

	args = append(args, testDirs...)

	cmd := exec.CommandContext(ctx, r.Interpreter, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return 0, fmt.Errorf("run pytest: %w", err)
	}

	return 0, nil
}

// DiscoverTestDirs finds tests/ directories under the targets, restricted
// to the given subtrees of the repo root (components/, pipelines/).
// Order follows discovery; duplicates are dropped.
func DiscoverTestDirs(targets []string, repoRoot string, allowedRoots []string) ([]string, error) {
	var discovered []string

	seen := make(map[string]struct{})

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

			if !info.IsDir() || filepath.Base(path) != testsDirName {
				return nil
			}

			if !underAllowedRoot(path, repoRoot, allowedRoots) {
				return nil
			}

			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				discovered = append(discovered, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover tests under %s: %w", searchRoot, err)
		}
	}

	return discovered, nil
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
