// Package stdlib builds the set of module names shipped with the host
// Python installation's standard library.
package stdlib

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/importguard/pkg/pysyntax"
)

// probeScript asks the interpreter for its stdlib directory and the
// builtin module names compiled into the binary. Builtins have no on-disk
// file, so they cannot be found by walking the directory.
const probeScript = `import sys, sysconfig
print(sysconfig.get_paths()["stdlib"])
print("\n".join(sys.builtin_module_names))
`

// Index is an immutable set of canonical standard-library module names.
// It is built once per run and shared read-only across workers.
type Index struct {
	names map[string]struct{}
}

// Build probes the given interpreter for its stdlib location and builtin
// modules, then walks the stdlib directory tree itself. It never touches
// the network or any package metadata.
//
// A missing interpreter or unlocatable stdlib path degrades to an empty
// index: every non-allow-listed import then becomes a violation, which is
// the conservative failure mode. The degradation is logged, not silent.
func Build(ctx context.Context, interpreter string) *Index {
	index := &Index{names: make(map[string]struct{})}

	stdlibPath, builtins, err := probe(ctx, interpreter)
	if err != nil {
		slog.Warn("stdlib index unavailable, all non-allow-listed imports will be flagged",
			"interpreter", interpreter, "error", err)

		return index
	}

	for _, name := range builtins {
		index.add(name)
	}

	index.walkStdlibDir(stdlibPath)

	return index
}

// FromNames builds an index from a fixed set of module names, bypassing
// the interpreter probe. Used by tests and offline callers.
func FromNames(names ...string) *Index {
	index := &Index{names: make(map[string]struct{}, len(names))}

	for _, name := range names {
		index.add(name)
	}

	return index
}

// Contains reports whether the canonical form of name is a stdlib module.
func (idx *Index) Contains(name string) bool {
	_, ok := idx.names[pysyntax.CanonicalModule(name)]

	return ok
}

// Len returns the number of indexed module names.
func (idx *Index) Len() int {
	return len(idx.names)
}

func (idx *Index) add(name string) {
	canonical := pysyntax.CanonicalModule(name)
	if canonical != "" {
		idx.names[canonical] = struct{}{}
	}
}

func probe(ctx context.Context, interpreter string) (stdlibPath string, builtins []string, err error) {
	resolved, err := exec.LookPath(interpreter)
	if err != nil {
		return "", nil, err
	}

	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, resolved, "-c", probeScript)
	cmd.Stdout = &out

	err = cmd.Run()
	if err != nil {
		return "", nil, err
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "", nil, os.ErrNotExist
	}

	return strings.TrimSpace(lines[0]), lines[1:], nil
}

// walkStdlibDir indexes top-level modules of the stdlib directory:
// plain .py files, packages (directories with __init__.py), and compiled
// extension modules under lib-dynload.
func (idx *Index) walkStdlibDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("cannot read stdlib directory", "dir", dir, "error", err)

		return
	}

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if _, statErr := os.Stat(filepath.Join(dir, name, "__init__.py")); statErr == nil {
				idx.add(name)
			}

			continue
		}

		if strings.HasSuffix(name, ".py") {
			idx.add(strings.TrimSuffix(name, ".py"))
		}
	}

	idx.walkDynload(filepath.Join(dir, "lib-dynload"))
}

func (idx *Index) walkDynload(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Not all installations ship a lib-dynload directory.
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".so") && !strings.HasSuffix(name, ".pyd") {
			continue
		}

		// Extension modules are named like "math.cpython-312-x86_64.so";
		// the module name is the part before the first dot.
		idx.add(name)
	}
}
