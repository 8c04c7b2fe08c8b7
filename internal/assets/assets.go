// Package assets locates asset roots (component or pipeline directories
// identified by a metadata marker file) and checks their dependency
// manifests.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMarker is the file whose presence makes a directory an asset root.
const DefaultMarker = "metadata.yaml"

// DefaultManifests are the dependency manifest files an asset root is
// expected to carry at least one of.
var DefaultManifests = []string{"dev-requirements.txt", "test-requirements.txt"}

// Policy configures asset detection.
type Policy struct {
	// Marker is the asset marker file name, DefaultMarker when empty.
	Marker string

	// Manifests are the accepted manifest file names, DefaultManifests
	// when empty.
	Manifests []string
}

func (p Policy) marker() string {
	if p.Marker == "" {
		return DefaultMarker
	}

	return p.Marker
}

func (p Policy) manifests() []string {
	if len(p.Manifests) == 0 {
		return DefaultManifests
	}

	return p.Manifests
}

// Metadata is the parsed content of an asset's marker file. Fields beyond
// these are ignored.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Owner       string `yaml:"owner"`
}

// Asset is one discovered asset root with its metadata.
type Asset struct {
	Root     string
	Metadata Metadata
}

// FindRoot returns the nearest ancestor of dir (including dir itself) that
// contains the marker file, walking up to the filesystem root.
func FindRoot(dir string, policy Policy) (string, bool) {
	marker := policy.marker()

	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
			return current, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}

		current = parent
	}
}

// CheckManifests returns an advisory message when root carries none of the
// expected dependency manifest files, and "" when at least one exists.
// The message is keyed by root so callers can deduplicate per asset.
func CheckManifests(root string, policy Policy) string {
	manifests := policy.manifests()

	for _, name := range manifests {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return ""
		}
	}

	return fmt.Sprintf("%s is missing a dev/test requirements file (%s)",
		root, strings.Join(manifests, ", "))
}

// LoadMetadata parses the marker file of an asset root.
func LoadMetadata(root string, policy Policy) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(root, policy.marker()))
	if err != nil {
		return nil, fmt.Errorf("read asset metadata: %w", err)
	}

	var meta Metadata

	err = yaml.Unmarshal(data, &meta)
	if err != nil {
		return nil, fmt.Errorf("parse asset metadata in %s: %w", root, err)
	}

	return &meta, nil
}

// List walks the given roots for asset marker files and returns the
// discovered assets sorted by root path.
func List(roots []string, policy Policy) ([]Asset, error) {
	marker := policy.marker()

	var found []Asset

	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if strings.HasPrefix(filepath.Base(path), ".") && path != root {
					return filepath.SkipDir
				}

				return nil
			}

			if filepath.Base(path) != marker {
				return nil
			}

			assetRoot := filepath.Dir(path)

			meta, loadErr := LoadMetadata(assetRoot, policy)
			if loadErr != nil {
				// A malformed marker still identifies an asset; report
				// it with empty metadata rather than aborting the walk.
				meta = &Metadata{}
			}

			found = append(found, Asset{Root: assetRoot, Metadata: *meta})

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list assets under %s: %w", root, err)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Root < found[j].Root })

	return found, nil
}
