package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewManager_NoConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)
	require.NotNil(t, mgr)

	assert.Equal(t, configFile, mgr.ConfigPath())
	assert.NotNil(t, mgr.AllSettings())
	assert.Equal(t, "balanced", mgr.Get("simulation.profile"))
}

func TestNewManager_WithExistingConfig(t *testing.T) {
	configFile := writeConfig(t, `
simulation:
  profile: churn
storage:
  retention_days: 30
`)

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	assert.Equal(t, "churn", mgr.Get("simulation.profile"))
	assert.Equal(t, 30, mgr.Get("storage.retention_days"))
}

func TestManager_Get_ReturnsDefaults(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"policy.path", "covenant.yml"},
		{"simulation.count", 500},
		{"simulation.seed", "1337"},
		{"simulation.hours", 72},
		{"simulation.profile", "balanced"},
		{"simulation.attestation_mode", "simulated"},
		{"storage.path", ""},
		{"storage.retention_days", 90},
		{"display.colors", "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, mgr.Get(tt.key))
		})
	}
}

func TestManager_Set_CreatesCompleteConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	require.NoError(t, mgr.Set("simulation.profile", "strict-stress"))

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var configMap map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &configMap))

	assert.Contains(t, configMap, "policy")
	assert.Contains(t, configMap, "simulation")
	assert.Contains(t, configMap, "storage")
	assert.Contains(t, configMap, "display")

	simulation, ok := configMap["simulation"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "strict-stress", simulation["profile"])
	assert.Equal(t, 500, simulation["count"])
}

func TestManager_Set_PreservesExistingValues(t *testing.T) {
	configFile := writeConfig(t, `
simulation:
  seed: keep-me
storage:
  retention_days: 60
`)

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	require.NoError(t, mgr.Set("display.colors", "always"))

	assert.Equal(t, "keep-me", mgr.Get("simulation.seed"))
	assert.Equal(t, 60, mgr.Get("storage.retention_days"))
	assert.Equal(t, "always", mgr.Get("display.colors"))
}

func TestManager_Set_Persists(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	require.NoError(t, mgr.Set("simulation.count", 40))
	require.NoError(t, mgr.Set("storage.retention_days", 30))
	require.NoError(t, mgr.Set("display.colors", "never"))

	reloaded, err := NewManager(configFile)
	require.NoError(t, err)

	assert.Equal(t, 40, reloaded.Get("simulation.count"))
	assert.Equal(t, 30, reloaded.Get("storage.retention_days"))
	assert.Equal(t, "never", reloaded.Get("display.colors"))

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Simulation.Count)
}

func TestManager_Set_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  interface{}
		errMsg string
	}{
		{"unknown key", "logging.level", "full", "unknown config key"},
		{"unknown profile", "simulation.profile", "chaos", "invalid simulation.profile"},
		{"bad color", "display.colors", "rainbow", "invalid display.colors"},
		{"negative retention", "storage.retention_days", -3, "storage.retention_days"},
		{"non numeric count", "simulation.count", "many", "invalid value for simulation.count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")

			mgr, err := NewManager(configFile)
			require.NoError(t, err)

			err = mgr.Set(tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			_, statErr := os.Stat(configFile)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestManager_Set_RejectedValueIsRolledBack(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	require.Error(t, mgr.Set("simulation.profile", "chaos"))
	assert.Equal(t, "balanced", mgr.Get("simulation.profile"))
}

func TestManager_Reset_RemovesConfigFile(t *testing.T) {
	configFile := writeConfig(t, "simulation:\n  profile: churn\n")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)
	assert.Equal(t, "churn", mgr.Get("simulation.profile"))

	require.NoError(t, mgr.Reset())

	_, err = os.Stat(configFile)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "balanced", mgr.Get("simulation.profile"))
}

func TestManager_Reset_NonExistentFile(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	require.NoError(t, mgr.Reset())
}

func TestManager_HasKey(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.True(t, mgr.HasKey("simulation.seed"))
	assert.True(t, mgr.HasKey("storage.retention_days"))
	assert.False(t, mgr.HasKey("nonexistent.key"))
}

func TestManager_Set_CreatesConfigDir(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "nested", "config", "dir", "config.yaml")

	mgr, err := NewManager(configFile)
	require.NoError(t, err)

	require.NoError(t, mgr.Set("policy.path", "policies/covenant.yml"))

	_, err = os.Stat(configFile)
	require.NoError(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		input    string
		expected interface{}
	}{
		{"boolean true", "display.colors", "true", true},
		{"boolean false", "display.colors", "false", false},
		{"string value", "simulation.profile", "churn", "churn"},
		{"integer", "simulation.count", "42", 42},
		{"float", "simulation.hours", "1.5", 1.5},
		{"seed stays string", "simulation.seed", "0042", "0042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseValue(tt.key, tt.input))
		})
	}
}
