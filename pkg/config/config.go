package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for codelyzer
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"`
	Security SecurityConfig `mapstructure:"security"`
}

// ScanConfig holds scan behavior configuration
type ScanConfig struct {
	Exclude            []string `mapstructure:"exclude"`
	NoIgnore           bool     `mapstructure:"no_ignore"`
	Concurrency        int      `mapstructure:"concurrency"`
	ConcurrencyPercent int      `mapstructure:"concurrency_percent"`
	FailOn             string   `mapstructure:"fail_on"`
	Format             string   `mapstructure:"format"`
}

// SecurityConfig holds security analysis configuration
type SecurityConfig struct {
	// RulesFile points to a custom rules document; empty disables
	// custom rules.
	RulesFile string `mapstructure:"rules_file"`
}

var defaultConfig = Config{
	Scan: ScanConfig{
		Exclude:            []string{},
		NoIgnore:           false,
		Concurrency:        0,
		ConcurrencyPercent: 50,
		FailOn:             "high",
		Format:             "markdown",
	},
	Security: SecurityConfig{
		RulesFile: "",
	},
}

// DefaultConfig returns a copy of the built-in defaults.
func DefaultConfig() Config {
	return defaultConfig
}

// LoadConfig reads .codelyzer.yaml from the target directory, falling
// back to the user config directory and finally to defaults. A file
// that exists but fails validation is an error: configuration defects
// surface at startup, not mid-scan.
func LoadConfig(targetDir string) (Config, error) {
	v := viper.New()
	v.SetConfigName(".codelyzer")
	v.SetConfigType("yaml")
	v.AddConfigPath(targetDir)
	if dir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return defaultConfig, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if file := v.ConfigFileUsed(); file != "" {
		data, err := os.ReadFile(file) // #nosec G304 -- resolved by viper from known locations
		if err == nil {
			if err := ValidateConfig(data); err != nil {
				return Config{}, fmt.Errorf("%s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.exclude", defaultConfig.Scan.Exclude)
	v.SetDefault("scan.no_ignore", defaultConfig.Scan.NoIgnore)
	v.SetDefault("scan.concurrency", defaultConfig.Scan.Concurrency)
	v.SetDefault("scan.concurrency_percent", defaultConfig.Scan.ConcurrencyPercent)
	v.SetDefault("scan.fail_on", defaultConfig.Scan.FailOn)
	v.SetDefault("scan.format", defaultConfig.Scan.Format)
	v.SetDefault("security.rules_file", defaultConfig.Security.RulesFile)
}

// GetConfigDir returns the user-level configuration directory
// (~/.codelyzer), creating it is the caller's concern.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".codelyzer"), nil
}
