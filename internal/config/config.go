// Package config holds the importguard tool configuration.
package config

import "errors"

// Config is the top-level configuration struct for importguard.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Guard    GuardConfig    `mapstructure:"guard"`
	Python   PythonConfig   `mapstructure:"python"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Packages PackagesConfig `mapstructure:"packages"`
	Tests    TestsConfig    `mapstructure:"tests"`
}

// GuardConfig holds the import guard scan settings.
type GuardConfig struct {
	Workers       int    `mapstructure:"workers"`
	Allowlist     string `mapstructure:"allowlist"`
	Extension     string `mapstructure:"extension"`
	DetectShebang bool   `mapstructure:"detect_shebang"`
}

// PythonConfig identifies the host interpreter used for the stdlib probe
// and for the pipeline compile validator.
type PythonConfig struct {
	Interpreter string   `mapstructure:"interpreter"`
	SearchPaths []string `mapstructure:"search_paths"`
}

// AssetsConfig describes how asset roots and their dependency manifests
// are recognized.
type AssetsConfig struct {
	Marker    string   `mapstructure:"marker"`
	Manifests []string `mapstructure:"manifests"`
}

// PackagesConfig holds the package-manifest validator settings.
type PackagesConfig struct {
	Prefix   string   `mapstructure:"prefix"`
	Manifest string   `mapstructure:"manifest"`
	Roots    []string `mapstructure:"roots"`
}

// TestsConfig holds the pytest runner settings.
type TestsConfig struct {
	TimeoutSeconds int `mapstructure:"timeout"`
}

// Validation errors.
var (
	// ErrInvalidWorkers indicates a negative worker count.
	ErrInvalidWorkers = errors.New("guard.workers must be non-negative")
	// ErrInvalidExtension indicates an extension without a leading dot.
	ErrInvalidExtension = errors.New("guard.extension must start with a dot")
	// ErrMissingInterpreter indicates an empty interpreter setting.
	ErrMissingInterpreter = errors.New("python.interpreter must not be empty")
	// ErrInvalidTimeout indicates a non-positive test timeout.
	ErrInvalidTimeout = errors.New("tests.timeout must be positive")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Guard.Workers < 0 {
		return ErrInvalidWorkers
	}

	if len(c.Guard.Extension) == 0 || c.Guard.Extension[0] != '.' {
		return ErrInvalidExtension
	}

	if c.Python.Interpreter == "" {
		return ErrMissingInterpreter
	}

	if c.Tests.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
