package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importguard/internal/config"
)

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	emptyPath := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	cfg, err := config.LoadConfig(emptyPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 0, cfg.Guard.Workers)
	assert.Equal(t, config.DefaultAllowlistPath, cfg.Guard.Allowlist)
	assert.Equal(t, config.DefaultExtension, cfg.Guard.Extension)
	assert.False(t, cfg.Guard.DetectShebang)
	assert.Equal(t, config.DefaultInterpreter, cfg.Python.Interpreter)
	assert.Empty(t, cfg.Python.SearchPaths)
	assert.Equal(t, config.DefaultAssetMarker, cfg.Assets.Marker)
	assert.Equal(t, config.DefaultAssetManifests, cfg.Assets.Manifests)
	assert.Equal(t, config.DefaultPackagePrefix, cfg.Packages.Prefix)
	assert.Equal(t, config.DefaultManifestPath, cfg.Packages.Manifest)
	assert.Equal(t, config.DefaultPackageRoots, cfg.Packages.Roots)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.Tests.TimeoutSeconds)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), ".importguard.yaml")
	content := `guard:
  workers: 4
  allowlist: conf/exceptions.json
  detect_shebang: true
python:
  interpreter: python3.12
  search_paths:
    - components
    - pipelines
packages:
  prefix: ml_components
tests:
  timeout: 60
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Guard.Workers)
	assert.Equal(t, "conf/exceptions.json", cfg.Guard.Allowlist)
	assert.True(t, cfg.Guard.DetectShebang)
	assert.Equal(t, "python3.12", cfg.Python.Interpreter)
	assert.Equal(t, []string{"components", "pipelines"}, cfg.Python.SearchPaths)
	assert.Equal(t, "ml_components", cfg.Packages.Prefix)
	assert.Equal(t, 60, cfg.Tests.TimeoutSeconds)

	// Untouched sections keep their defaults.
	assert.Equal(t, config.DefaultExtension, cfg.Guard.Extension)
	assert.Equal(t, config.DefaultManifestPath, cfg.Packages.Manifest)
}

func TestLoadConfig_MalformedYAML_Errors(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), ".importguard.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("guard: [unclosed\n"), 0o600))

	_, err := config.LoadConfig(cfgPath)
	require.Error(t, err)
}

func TestLoadConfig_InvalidValues_FailValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		wantErr error
	}{
		{"negative workers", "guard:\n  workers: -1\n", config.ErrInvalidWorkers},
		{"extension without dot", "guard:\n  extension: py\n", config.ErrInvalidExtension},
		{"empty interpreter", "python:\n  interpreter: \"\"\n", config.ErrMissingInterpreter},
		{"zero timeout", "tests:\n  timeout: 0\n", config.ErrInvalidTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfgPath := filepath.Join(t.TempDir(), ".importguard.yaml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(tc.content), 0o600))

			_, err := config.LoadConfig(cfgPath)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
