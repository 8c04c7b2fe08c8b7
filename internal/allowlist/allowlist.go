// Package allowlist loads and queries the import guard's two-tier
// allow-list: globally permitted module names, and per-file or
// per-directory module sets.
package allowlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/importguard/pkg/pysyntax"
)

// ErrInvalidConfig marks a malformed allow-list document. It is fatal:
// a broken allow-list could silently mask violations, so nothing is
// scanned when it cannot be loaded.
var ErrInvalidConfig = errors.New("invalid allow-list configuration")

// documentSchema is the shape contract for the configuration document.
// Unknown top-level keys are tolerated; the modules/files keys must have
// exactly these types when present.
const documentSchema = `{
	"type": "object",
	"properties": {
		"modules": {
			"type": "array",
			"items": {"type": "string"}
		},
		"files": {
			"type": "object",
			"additionalProperties": {
				"type": "array",
				"items": {"type": "string"}
			}
		}
	}
}`

// document mirrors the JSON configuration file.
type document struct {
	Modules []string            `json:"modules"`
	Files   map[string][]string `json:"files"`
}

// pathEntry is one per-path override: an absolute normalized path and the
// canonical module names permitted beneath it.
type pathEntry struct {
	path    string
	isDir   bool
	modules map[string]struct{}
}

// Config is an immutable allow-list, safe for concurrent readers.
type Config struct {
	modules map[string]struct{}
	entries []pathEntry
}

// Empty returns a permit-nothing configuration.
func Empty() *Config {
	return &Config{modules: make(map[string]struct{})}
}

// Load reads an allow-list document from path. A missing file is a
// deliberate default, not an error: it yields an empty configuration.
// A present but malformed document is a fatal configuration error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}

		return nil, fmt.Errorf("read allow-list %s: %w", path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, describeSchemaErrors(result))
	}

	var doc document

	decodeErr := json.Unmarshal(data, &doc)
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, decodeErr)
	}

	return fromDocument(&doc)
}

// fromDocument canonicalizes module names and normalizes paths to absolute
// form once, at load time, so later matching is purely structural.
func fromDocument(doc *document) (*Config, error) {
	cfg := Empty()

	for _, name := range doc.Modules {
		cfg.modules[pysyntax.CanonicalModule(name)] = struct{}{}
	}

	for rawPath, moduleNames := range doc.Files {
		absPath, err := filepath.Abs(rawPath)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve path %q: %v", ErrInvalidConfig, rawPath, err)
		}

		entry := pathEntry{
			path:    filepath.Clean(absPath),
			modules: make(map[string]struct{}, len(moduleNames)),
		}

		if info, statErr := os.Stat(entry.path); statErr == nil {
			entry.isDir = info.IsDir()
		}

		for _, name := range moduleNames {
			entry.modules[pysyntax.CanonicalModule(name)] = struct{}{}
		}

		cfg.entries = append(cfg.entries, entry)
	}

	// Deeper paths sort first so the most specific directory entry is
	// consulted before its ancestors; ties break lexicographically so
	// traversal order never depends on map iteration.
	sort.Slice(cfg.entries, func(i, j int) bool {
		if len(cfg.entries[i].path) != len(cfg.entries[j].path) {
			return len(cfg.entries[i].path) > len(cfg.entries[j].path)
		}

		return cfg.entries[i].path < cfg.entries[j].path
	})

	return cfg, nil
}

// IsAllowed reports whether module may be imported at top level of the
// file at filePath. The global module set is consulted first; otherwise
// the most specific structurally matching path entry governs: an exact
// file entry beats any directory entry, and among directory entries the
// nearest ancestor of the file wins. The matching entry's membership is
// the verdict, not merely the existence of a match.
func (cfg *Config) IsAllowed(module, filePath string) bool {
	canonical := pysyntax.CanonicalModule(module)

	if _, ok := cfg.modules[canonical]; ok {
		return true
	}

	resolved, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	resolved = filepath.Clean(resolved)

	for _, entry := range cfg.entries {
		if entry.path == resolved {
			_, ok := entry.modules[canonical]

			return ok
		}
	}

	// Entries are ordered deepest-first, so the first ancestor hit is
	// the nearest one.
	for _, entry := range cfg.entries {
		if entry.isDir && isAncestor(entry.path, resolved) {
			_, ok := entry.modules[canonical]

			return ok
		}
	}

	return false
}

// GlobalModules returns the globally allowed module names, sorted.
func (cfg *Config) GlobalModules() []string {
	names := make([]string, 0, len(cfg.modules))

	for name := range cfg.modules {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// isAncestor reports whether dir is an ancestor directory of path.
func isAncestor(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func describeSchemaErrors(result *gojsonschema.Result) string {
	parts := make([]string, 0, len(result.Errors()))

	for _, verr := range result.Errors() {
		parts = append(parts, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return strings.Join(parts, "; ")
}
