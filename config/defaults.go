package config

import (
	"github.com/spf13/viper"

	"github.com/safedep/covenant/simulator"
	"github.com/safedep/covenant/storage"
)

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("policy.path", DefaultPolicyPath)

	// Simulation defaults mirror the generator defaults
	v.SetDefault("simulation.count", simulator.DefaultCount)
	v.SetDefault("simulation.seed", simulator.DefaultSeed)
	v.SetDefault("simulation.hours", simulator.DefaultHours)
	v.SetDefault("simulation.profile", string(simulator.DefaultProfile))
	v.SetDefault("simulation.attestation_mode", string(simulator.AttestationSimulated))

	v.SetDefault("storage.path", "") // Empty means use platform default
	v.SetDefault("storage.retention_days", storage.DefaultRetentionDays)

	v.SetDefault("display.colors", "auto")
}
