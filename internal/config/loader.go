package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".importguard"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for importguard settings.
const envPrefix = "IMPORTGUARD"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values.
const (
	DefaultAllowlistPath  = "scripts/import_exceptions.json"
	DefaultExtension      = ".py"
	DefaultInterpreter    = "python3"
	DefaultAssetMarker    = "metadata.yaml"
	DefaultPackagePrefix  = "kfp_components"
	DefaultManifestPath   = "pyproject.toml"
	DefaultTimeoutSeconds = 120
)

// DefaultPackageRoots are the subtrees searched for packages and tests.
var DefaultPackageRoots = []string{"components", "pipelines"}

// DefaultAssetManifests are the accepted dependency manifest file names.
var DefaultAssetManifests = []string{"dev-requirements.txt", "test-requirements.txt"}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("guard.workers", 0)
	viperCfg.SetDefault("guard.allowlist", DefaultAllowlistPath)
	viperCfg.SetDefault("guard.extension", DefaultExtension)
	viperCfg.SetDefault("guard.detect_shebang", false)

	viperCfg.SetDefault("python.interpreter", DefaultInterpreter)
	viperCfg.SetDefault("python.search_paths", []string{})

	viperCfg.SetDefault("assets.marker", DefaultAssetMarker)
	viperCfg.SetDefault("assets.manifests", DefaultAssetManifests)

	viperCfg.SetDefault("packages.prefix", DefaultPackagePrefix)
	viperCfg.SetDefault("packages.manifest", DefaultManifestPath)
	viperCfg.SetDefault("packages.roots", DefaultPackageRoots)

	viperCfg.SetDefault("tests.timeout", DefaultTimeoutSeconds)
}
