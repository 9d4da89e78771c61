// Package config provides configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/safedep/covenant/simulator"
)

// ColorMode represents the color output mode.
type ColorMode string

const (
	// ColorAuto automatically detects terminal support.
	ColorAuto ColorMode = "auto"
	// ColorAlways always uses colors.
	ColorAlways ColorMode = "always"
	// ColorNever never uses colors.
	ColorNever ColorMode = "never"
)

// DefaultPolicyPath is the policy file used when none is given.
const DefaultPolicyPath = "covenant.yml"

// Config holds all configuration values.
type Config struct {
	Policy     PolicyConfig     `mapstructure:"policy"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Display    DisplayConfig    `mapstructure:"display"`
}

// PolicyConfig holds policy-related settings.
type PolicyConfig struct {
	Path string `mapstructure:"path"`
}

// SimulationConfig holds simulation defaults. Flags on the simulate
// command take precedence.
type SimulationConfig struct {
	Count           int     `mapstructure:"count"`
	Seed            string  `mapstructure:"seed"`
	Hours           float64 `mapstructure:"hours"`
	Profile         string  `mapstructure:"profile"`
	AttestationMode string  `mapstructure:"attestation_mode"`
}

// StorageConfig holds storage-related settings.
type StorageConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// DisplayConfig holds display-related settings.
type DisplayConfig struct {
	Colors ColorMode `mapstructure:"colors"`
}

// Paths holds resolved filesystem paths.
type Paths struct {
	ConfigFile   string
	ConfigDir    string
	DataDir      string
	DatabaseFile string
	ExportsDir   string
}

// Load loads configuration from the given path or default locations.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		paths := ResolvePaths()

		v.SetConfigName("config")
		v.AddConfigPath(paths.ConfigDir)
	}

	// COVENANT_SIMULATION_SEED overrides simulation.seed
	v.SetEnvPrefix("COVENANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a Config with all default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

// ResolvePaths returns the resolved filesystem paths for the current platform.
func ResolvePaths() *Paths {
	configDir := getConfigDir()
	dataDir := getDataDir()

	return &Paths{
		ConfigFile:   filepath.Join(configDir, "config.yaml"),
		ConfigDir:    configDir,
		DataDir:      dataDir,
		DatabaseFile: filepath.Join(dataDir, "runs.db"),
		ExportsDir:   filepath.Join(dataDir, "exports"),
	}
}

// GetDatabasePath returns the resolved database path from config or default.
func (c *Config) GetDatabasePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}

	paths := ResolvePaths()
	return paths.DatabaseFile
}

// GetPolicyPath returns the configured policy path or the default.
func (c *Config) GetPolicyPath() string {
	if c.Policy.Path != "" {
		return c.Policy.Path
	}
	return DefaultPolicyPath
}

// SimulationOptions converts the simulation section into generator
// options. Count and hours always come from a loaded config, defaults
// included, so they are passed through as set and the generator clamps
// them exactly as it clamps --count and --hours.
func (c *Config) SimulationOptions() simulator.Options {
	opts := simulator.Options{
		Profile: c.Simulation.Profile,
		Count:   simulator.Float(float64(c.Simulation.Count)),
		Hours:   simulator.Float(c.Simulation.Hours),
	}
	if c.Simulation.Seed != "" {
		opts.Seed = simulator.String(c.Simulation.Seed)
	}
	return opts
}

// AttestationMode returns the parsed attestation mode. Load has already
// rejected unknown values.
func (c *Config) AttestationMode() simulator.AttestationMode {
	mode, err := simulator.ParseAttestationMode(c.Simulation.AttestationMode)
	if err != nil {
		return simulator.AttestationSimulated
	}
	return mode
}

// ShouldUseColors returns true if colors should be used based on config and terminal.
func (c *Config) ShouldUseColors() bool {
	switch c.Display.Colors {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		fileInfo, err := os.Stdout.Stat()
		if err != nil {
			return false
		}
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
}
