// Package pypackages validates that the packages declared in the project
// manifest match the Python packages actually present on disk.
package pypackages

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// initFile marks a directory as a Python package.
const initFile = "__init__.py"

// manifest mirrors the pyproject.toml subset this validator reads.
type manifest struct {
	Tool struct {
		Setuptools struct {
			Packages []string `toml:"packages"`
		} `toml:"setuptools"`
	} `toml:"tool"`
}

// Options configure package discovery.
type Options struct {
	// Prefix is the base package name the on-disk tree maps to.
	Prefix string

	// Roots are the subtrees (relative to the repo root) that contain
	// packages.
	Roots []string
}

// DiscoverPackages walks the configured roots and returns the dotted names
// of every Python package found (directories carrying __init__.py),
// including nested ones.
func DiscoverPackages(repoRoot string, opts Options) (map[string]struct{}, error) {
	packages := make(map[string]struct{})

	if hasInit(repoRoot) {
		packages[opts.Prefix] = struct{}{}
	}

	for _, root := range opts.Roots {
		rootDir := filepath.Join(repoRoot, root)
		if !hasInit(rootDir) {
			continue
		}

		packages[opts.Prefix+"."+root] = struct{}{}

		err := discoverNested(repoRoot, rootDir, opts.Prefix, packages)
		if err != nil {
			return nil, err
		}
	}

	return packages, nil
}

func discoverNested(repoRoot, dir, prefix string, packages map[string]struct{}) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		child := filepath.Join(dir, entry.Name())
		if !hasInit(child) {
			continue
		}

		rel, relErr := filepath.Rel(repoRoot, child)
		if relErr != nil {
			return fmt.Errorf("relativize %s: %w", child, relErr)
		}

		dotted := prefix + "." + strings.ReplaceAll(rel, string(filepath.Separator), ".")
		packages[dotted] = struct{}{}

		nestErr := discoverNested(repoRoot, child, prefix, packages)
		if nestErr != nil {
			return nestErr
		}
	}

	return nil
}

func hasInit(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, initFile))

	return err == nil
}

// ReadDeclaredPackages reads tool.setuptools.packages from the manifest.
// A missing or malformed manifest is fatal: the validator cannot diff
// against nothing.
func ReadDeclaredPackages(manifestPath string) (map[string]struct{}, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc manifest

	err = toml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestPath, err)
	}

	declared := make(map[string]struct{}, len(doc.Tool.Setuptools.Packages))
	for _, name := range doc.Tool.Setuptools.Packages {
		declared[name] = struct{}{}
	}

	return declared, nil
}

// Diff is the difference between discovered and declared package sets.
// Both slices are sorted.
type Diff struct {
	Missing []string // discovered but not declared
	Extra   []string // declared but not discovered
}

// InSync reports whether the manifest matches the tree.
func (d *Diff) InSync() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// Validate diffs the discovered packages under repoRoot against the
// declared set in manifestPath.
func Validate(repoRoot, manifestPath string, opts Options) (*Diff, error) {
	discovered, err := DiscoverPackages(repoRoot, opts)
	if err != nil {
		return nil, err
	}

	declared, err := ReadDeclaredPackages(manifestPath)
	if err != nil {
		return nil, err
	}

	diff := &Diff{}

	for name := range discovered {
		if _, ok := declared[name]; !ok {
			diff.Missing = append(diff.Missing, name)
		}
	}

	for name := range declared {
		if _, ok := discovered[name]; !ok {
			diff.Extra = append(diff.Extra, name)
		}
	}

	sort.Strings(diff.Missing)
	sort.Strings(diff.Extra)

	return diff, nil
}
