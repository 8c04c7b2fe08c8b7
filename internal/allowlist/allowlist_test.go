package allowlist_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importguard/internal/allowlist"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "import_exceptions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadMissingFileYieldsEmptyConfig(t *testing.T) {
	t.Parallel()

	cfg, err := allowlist.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Empty(t, cfg.GlobalModules())
	assert.False(t, cfg.IsAllowed("numpy", "anything.py"))
}

func TestLoadMalformedJSONIsFatal(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `{"modules": [`)

	_, err := allowlist.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, allowlist.ErrInvalidConfig)
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `{"modules": "numpy"}`)

	_, err := allowlist.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, allowlist.ErrInvalidConfig)
}

func TestLoadToleratesUnknownTopLevelKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `{"modules": ["kfp"], "comment": "managed by infra"}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsAllowed("kfp", "any.py"))
}

func TestGlobalModulesAreCanonicalized(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `{"modules": ["google.cloud.storage"]}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	// The dotted name collapses to its first component, and any other
	// import of that component matches it.
	assert.Equal(t, []string{"google"}, cfg.GlobalModules())
	assert.True(t, cfg.IsAllowed("google.auth", "any.py"))
}

func TestPerFileEntryGovernsItsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "tool.py")
	require.NoError(t, os.WriteFile(target, []byte("import numpy\n"), 0o644))

	path := writeConfig(t, dir, `{"files": {"`+target+`": ["numpy"]}}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsAllowed("numpy", target))
	assert.False(t, cfg.IsAllowed("pandas", target))
	assert.False(t, cfg.IsAllowed("numpy", filepath.Join(dir, "other.py")))
}

func TestDirectoryEntryCoversDescendants(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	require.NoError(t, os.MkdirAll(filepath.Join(scripts, "nested"), 0o755))

	path := writeConfig(t, dir, `{"files": {"`+scripts+`": ["requests"]}}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsAllowed("requests", filepath.Join(scripts, "fetch.py")))
	assert.True(t, cfg.IsAllowed("requests", filepath.Join(scripts, "nested", "deep.py")))
	assert.False(t, cfg.IsAllowed("requests", filepath.Join(dir, "outside.py")))
}

func TestExactFileEntryOverridesDirectoryEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))

	target := filepath.Join(scripts, "fetch.py")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	// The exact-file entry governs and its verdict is final: requests is
	// listed only on the enclosing directory, so the file entry denies it
	// even though an ancestor would allow it.
	path := writeConfig(t, dir,
		`{"files": {"`+target+`": ["yaml"], "`+scripts+`": ["requests"]}}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsAllowed("yaml", target))
	assert.False(t, cfg.IsAllowed("requests", target))

	// Siblings without a file entry of their own still fall back to the
	// directory entry.
	sibling := filepath.Join(scripts, "other.py")
	assert.True(t, cfg.IsAllowed("requests", sibling))
	assert.False(t, cfg.IsAllowed("yaml", sibling))
}

func TestNearestDirectoryEntryGoverns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	nested := filepath.Join(scripts, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path := writeConfig(t, dir,
		`{"files": {"`+scripts+`": ["requests"], "`+nested+`": ["yaml"]}}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	target := filepath.Join(nested, "deep.py")
	assert.True(t, cfg.IsAllowed("yaml", target))
	assert.False(t, cfg.IsAllowed("requests", target))
}

func TestEmptyModuleListDeniesEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "locked.py")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	path := writeConfig(t, dir, `{"files": {"`+target+`": []}}`)

	cfg, err := allowlist.Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.IsAllowed("numpy", target))
}

func TestLoadUnreadableFileIsNotTreatedAsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// A directory where a file is expected fails with something other
	// than ErrNotExist.
	_, err := allowlist.Load(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
