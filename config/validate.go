package config

import (
	"fmt"

	"github.com/safedep/covenant/simulator"
)

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	// simulation.count and simulation.hours are clamped by the generator,
	// never rejected.

	if cfg.Simulation.Profile != "" && !simulator.Profile(cfg.Simulation.Profile).IsKnown() {
		return fmt.Errorf("invalid simulation.profile: %s (must be balanced, churn, or strict-stress)", cfg.Simulation.Profile)
	}

	if _, err := simulator.ParseAttestationMode(cfg.Simulation.AttestationMode); err != nil {
		return fmt.Errorf("invalid simulation.attestation_mode: %s (must be simulated or native)", cfg.Simulation.AttestationMode)
	}

	if cfg.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days must be non-negative")
	}

	if !isValidColorMode(cfg.Display.Colors) {
		return fmt.Errorf("invalid display.colors: %s (must be auto, always, or never)", cfg.Display.Colors)
	}

	return nil
}

// isValidColorMode returns true if the given mode is valid.
func isValidColorMode(mode ColorMode) bool {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return true
	default:
		return false
	}
}
