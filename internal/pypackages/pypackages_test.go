package pypackages_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importguard/internal/pypackages"
)

func makePackage(t *testing.T, root string, parts ...string) {
	t.Helper()

	dir := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "__init__.py"), nil, 0o644))
}

func writeManifest(t *testing.T, root string, packages ...string) string {
	t.Helper()

	content := "[tool.setuptools]\npackages = [\n"
	for _, name := range packages {
		content += "    \"" + name + "\",\n"
	}

	content += "]\n"

	path := filepath.Join(root, "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func defaultOptions() pypackages.Options {
	return pypackages.Options{Prefix: "kfp_components", Roots: []string{"components", "pipelines"}}
}

func TestDiscoverPackagesNestedDottedNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makePackage(t, root)
	makePackage(t, root, "components")
	makePackage(t, root, "components", "trainer")
	makePackage(t, root, "components", "trainer", "utils")
	makePackage(t, root, "pipelines")

	// No __init__.py: not a package, and not descended into.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "components", "docs"), 0o755))

	found, err := pypackages.DiscoverPackages(root, defaultOptions())
	require.NoError(t, err)

	want := []string{
		"kfp_components",
		"kfp_components.components",
		"kfp_components.components.trainer",
		"kfp_components.components.trainer.utils",
		"kfp_components.pipelines",
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}

	assert.ElementsMatch(t, want, names)
}

func TestDiscoverPackagesMissingRootsTolerated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makePackage(t, root, "components")

	found, err := pypackages.DiscoverPackages(root, defaultOptions())
	require.NoError(t, err)

	assert.Len(t, found, 1)
}

func TestReadDeclaredPackages(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeManifest(t, root, "kfp_components", "kfp_components.components")

	declared, err := pypackages.ReadDeclaredPackages(path)
	require.NoError(t, err)

	assert.Len(t, declared, 2)
	assert.Contains(t, declared, "kfp_components.components")
}

func TestReadDeclaredPackagesMissingManifest(t *testing.T) {
	t.Parallel()

	_, err := pypackages.ReadDeclaredPackages(filepath.Join(t.TempDir(), "pyproject.toml"))
	require.Error(t, err)
}

func TestValidateInSync(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makePackage(t, root)
	makePackage(t, root, "components")
	path := writeManifest(t, root, "kfp_components", "kfp_components.components")

	diff, err := pypackages.Validate(root, path, defaultOptions())
	require.NoError(t, err)

	assert.True(t, diff.InSync())
}

func TestValidateReportsMissingAndExtra(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makePackage(t, root)
	makePackage(t, root, "components")
	makePackage(t, root, "components", "trainer")
	path := writeManifest(t, root, "kfp_components", "kfp_components.components", "kfp_components.pipelines")

	diff, err := pypackages.Validate(root, path, defaultOptions())
	require.NoError(t, err)

	assert.False(t, diff.InSync())
	assert.Equal(t, []string{"kfp_components.components.trainer"}, diff.Missing)
	assert.Equal(t, []string{"kfp_components.pipelines"}, diff.Extra)
}
