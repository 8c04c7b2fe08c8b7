// Package discovery walks root paths and yields candidate Python source
// files for the import guard.
package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// shebangProbeSize bounds how much of an extensionless file is read for
// language detection.
const shebangProbeSize = 512

// File is one discovered source file. Path keeps the caller-supplied form
// (possibly relative) so reports read naturally; absolute resolution
// happens only where matching requires it.
type File struct {
	Path string
}

// Options control the walk.
type Options struct {
	// Extension is the source file suffix, ".py" by default.
	Extension string

	// DetectShebang additionally includes extensionless files whose
	// content enry classifies as Python (e.g. executable scripts).
	DetectShebang bool
}

// Discover collects source files from the given paths. A path that is
// already a matching file passes through; a directory is walked
// recursively, skipping vendor directories and any path with a hidden
// component — including the named root itself. A missing path yields no
// files; scanning nothing is a no-op success, not an error.
// Discovery order is the walk order; callers must not rely on it for
// correctness, only for reproducible reporting within one run.
func Discover(paths []string, opts Options) ([]File, error) {
	if opts.Extension == "" {
		opts.Extension = ".py"
	}

	var files []File

	for _, rawPath := range paths {
		info, err := os.Stat(rawPath)
		if err != nil {
			slog.Warn("skipping unreadable scan path", "path", rawPath, "error", err)

			continue
		}

		if !info.IsDir() {
			if matches(rawPath, opts) {
				files = append(files, File{Path: rawPath})
			}

			continue
		}

		walked, walkErr := walkDir(rawPath, opts)
		if walkErr != nil {
			return nil, walkErr
		}

		files = append(files, walked...)
	}

	return files, nil
}

func walkDir(root string, opts Options) ([]File, error) {
	var files []File

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if hasHiddenComponent(path) {
				return filepath.SkipDir
			}

			if path != root && enry.IsVendor(filepath.Base(path)+"/") {
				return filepath.SkipDir
			}

			return nil
		}

		if isHidden(filepath.Base(path)) {
			return nil
		}

		if matches(path, opts) {
			files = append(files, File{Path: path})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return files, nil
}

func matches(path string, opts Options) bool {
	if strings.HasSuffix(path, opts.Extension) {
		return true
	}

	if !opts.DetectShebang || filepath.Ext(path) != "" {
		return false
	}

	return probeIsPython(path)
}

// probeIsPython sniffs the head of an extensionless file and asks enry
// whether it is Python (it recognizes "#!/usr/bin/env python" shebangs).
func probeIsPython(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	buf := make([]byte, shebangProbeSize)

	n, err := file.Read(buf)
	if n == 0 || (err != nil && n <= 0) {
		return false
	}

	return enry.GetLanguage(filepath.Base(path), buf[:n]) == "Python"
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// hasHiddenComponent reports whether any element of path is hidden. The
// path is inspected as given, so a hidden root named on the command line
// excludes its whole subtree the same way a hidden subdirectory does.
func hasHiddenComponent(path string) bool {
	for part := range strings.SplitSeq(filepath.ToSlash(path), "/") {
		if isHidden(part) {
			return true
		}
	}

	return false
}
