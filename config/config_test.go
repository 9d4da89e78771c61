package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedep/covenant/simulator"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "covenant.yml", cfg.Policy.Path)

	assert.Equal(t, 500, cfg.Simulation.Count)
	assert.Equal(t, "1337", cfg.Simulation.Seed)
	assert.Equal(t, 72.0, cfg.Simulation.Hours)
	assert.Equal(t, "balanced", cfg.Simulation.Profile)
	assert.Equal(t, "simulated", cfg.Simulation.AttestationMode)

	assert.Equal(t, "", cfg.Storage.Path)
	assert.Equal(t, 90, cfg.Storage.RetentionDays)

	assert.Equal(t, ColorAuto, cfg.Display.Colors)
}

func TestLoad_ValidConfig(t *testing.T) {
	configFile := writeConfig(t, `
policy:
  path: policies/main.yml
simulation:
  count: 120
  seed: "0042"
  hours: 12
  profile: strict-stress
  attestation_mode: native
storage:
  path: /tmp/covenant-test/runs.db
  retention_days: 30
display:
  colors: always
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "policies/main.yml", cfg.Policy.Path)
	assert.Equal(t, 120, cfg.Simulation.Count)
	assert.Equal(t, "0042", cfg.Simulation.Seed)
	assert.Equal(t, 12.0, cfg.Simulation.Hours)
	assert.Equal(t, "strict-stress", cfg.Simulation.Profile)
	assert.Equal(t, simulator.AttestationNative, cfg.AttestationMode())
	assert.Equal(t, "/tmp/covenant-test/runs.db", cfg.GetDatabasePath())
	assert.Equal(t, 30, cfg.Storage.RetentionDays)
	assert.Equal(t, ColorAlways, cfg.Display.Colors)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "unknown profile",
			content: "simulation:\n  profile: chaos\n",
			errMsg:  "invalid simulation.profile",
		},
		{
			name:    "unknown attestation mode",
			content: "simulation:\n  attestation_mode: hardware\n",
			errMsg:  "invalid simulation.attestation_mode",
		},
		{
			name:    "negative retention",
			content: "storage:\n  retention_days: -1\n",
			errMsg:  "storage.retention_days must be non-negative",
		},
		{
			name:    "bad color mode",
			content: "display:\n  colors: rainbow\n",
			errMsg:  "invalid display.colors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_NonExistentFile_ReturnsError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MalformedYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "simulation:\n  count: [unterminated\n"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_PartialConfig_MergesWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "simulation:\n  seed: alpha\n"))
	require.NoError(t, err)

	assert.Equal(t, "alpha", cfg.Simulation.Seed)
	assert.Equal(t, 500, cfg.Simulation.Count)
	assert.Equal(t, "balanced", cfg.Simulation.Profile)
	assert.Equal(t, 90, cfg.Storage.RetentionDays)
}

func TestLoad_ZeroRetentionDays_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  retention_days: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Storage.RetentionDays)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("COVENANT_SIMULATION_SEED", "from-env")
	t.Setenv("COVENANT_SIMULATION_PROFILE", "churn")
	t.Setenv("COVENANT_DISPLAY_COLORS", "never")

	cfg, err := Load(writeConfig(t, "simulation:\n  seed: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Simulation.Seed)
	assert.Equal(t, "churn", cfg.Simulation.Profile)
	assert.Equal(t, ColorNever, cfg.Display.Colors)
}

func TestLoad_EnvironmentValidation(t *testing.T) {
	t.Setenv("COVENANT_SIMULATION_PROFILE", "chaos")

	_, err := Load(writeConfig(t, "{}\n"))
	assert.Error(t, err)
}

func TestConfig_GetDatabasePath_Default(t *testing.T) {
	cfg := Default()
	path := cfg.GetDatabasePath()
	assert.NotEmpty(t, path)
	assert.Equal(t, "runs.db", filepath.Base(path))
}

func TestConfig_GetPolicyPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultPolicyPath, cfg.GetPolicyPath())

	cfg.Policy.Path = ""
	assert.Equal(t, DefaultPolicyPath, cfg.GetPolicyPath())

	cfg.Policy.Path = "other.yml"
	assert.Equal(t, "other.yml", cfg.GetPolicyPath())
}

func TestConfig_SimulationOptions(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Count = 40
	cfg.Simulation.Hours = 6
	cfg.Simulation.Seed = "seed"
	cfg.Simulation.Profile = "churn"

	opts := cfg.SimulationOptions()
	require.NotNil(t, opts.Count)
	require.NotNil(t, opts.Hours)
	require.NotNil(t, opts.Seed)
	assert.Equal(t, 40.0, *opts.Count)
	assert.Equal(t, 6.0, *opts.Hours)
	assert.Equal(t, "seed", *opts.Seed)
	assert.Equal(t, "churn", opts.Profile)

	normalized := simulator.Normalize(opts)
	assert.Equal(t, 40, normalized.Count)
	assert.Equal(t, simulator.ProfileChurn, normalized.Profile)
}

func TestConfig_SimulationOptions_ClampsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCount int
		wantHours int
	}{
		{
			name:      "zero",
			content:   "simulation:\n  count: 0\n  hours: 0\n",
			wantCount: simulator.MinCount,
			wantHours: simulator.MinHours,
		},
		{
			name:      "negative",
			content:   "simulation:\n  count: -5\n  hours: -2\n",
			wantCount: simulator.MinCount,
			wantHours: simulator.MinHours,
		},
		{
			name:      "above range",
			content:   "simulation:\n  count: 50000\n  hours: 100000\n",
			wantCount: simulator.MaxCount,
			wantHours: simulator.MaxHours,
		},
		{
			name:      "unset uses defaults",
			content:   "display:\n  colors: never\n",
			wantCount: simulator.DefaultCount,
			wantHours: simulator.DefaultHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			require.NoError(t, err)

			normalized := simulator.Normalize(cfg.SimulationOptions())
			assert.Equal(t, tt.wantCount, normalized.Count)
			assert.Equal(t, tt.wantHours, normalized.Hours)
		})
	}
}

func TestConfig_ShouldUseColors(t *testing.T) {
	cfg := Default()

	cfg.Display.Colors = ColorAlways
	assert.True(t, cfg.ShouldUseColors())

	cfg.Display.Colors = ColorNever
	assert.False(t, cfg.ShouldUseColors())
}

func TestResolvePaths(t *testing.T) {
	paths := ResolvePaths()
	require.NotNil(t, paths)

	assert.NotEmpty(t, paths.ConfigDir)
	assert.NotEmpty(t, paths.DataDir)
	assert.Equal(t, "config.yaml", filepath.Base(paths.ConfigFile))
	assert.Equal(t, filepath.Join(paths.DataDir, "runs.db"), paths.DatabaseFile)
	assert.Contains(t, paths.ConfigDir, "covenant")
}

func TestEnsureDirectories(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG overrides only apply on linux")
	}

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))

	require.NoError(t, EnsureDirectories())

	_, err := os.Stat(filepath.Join(tmpDir, "config", "covenant"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmpDir, "data", "covenant"))
	assert.NoError(t, err)
}

func TestIsValidColorMode(t *testing.T) {
	assert.True(t, isValidColorMode(ColorAuto))
	assert.True(t, isValidColorMode(ColorAlways))
	assert.True(t, isValidColorMode(ColorNever))
	assert.False(t, isValidColorMode("invalid"))
	assert.False(t, isValidColorMode(""))
}
