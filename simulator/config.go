package simulator

import "math"

// Simulation bounds and defaults.
const (
	DefaultCount   = 500
	MinCount       = 1
	MaxCount       = 10000
	DefaultHours   = 72
	MinHours       = 1
	MaxHours       = 24 * 365
	DefaultSeed    = "1337"
	DefaultProfile = ProfileBalanced
)

// Fault names.
const (
	FaultMissingEvidence    = "missing_evidence"
	FaultMissingAttestation = "missing_attestation"
	FaultInvalidAttestation = "invalid_attestation"
	FaultIneligibleLabel    = "ineligible_label"
	FaultThreadModeMismatch = "thread_mode_mismatch"
)

// FaultRates holds the per-fault injection probabilities.
type FaultRates struct {
	MissingEvidence    float64 `json:"missing_evidence" yaml:"missing_evidence"`
	MissingAttestation float64 `json:"missing_attestation" yaml:"missing_attestation"`
	InvalidAttestation float64 `json:"invalid_attestation" yaml:"invalid_attestation"`
	IneligibleLabel    float64 `json:"ineligible_label" yaml:"ineligible_label"`
	ThreadModeMismatch float64 `json:"thread_mode_mismatch" yaml:"thread_mode_mismatch"`
}

// DefaultFaultRates returns the default injection probabilities.
func DefaultFaultRates() FaultRates {
	return FaultRates{
		MissingEvidence:    0.1,
		MissingAttestation: 0.08,
		InvalidAttestation: 0.04,
		IneligibleLabel:    0.12,
		ThreadModeMismatch: 0.08,
	}
}

// Options is raw simulation input. Nil or empty fields take defaults and
// every value is clamped by Normalize, never rejected.
type Options struct {
	Count            *float64           `json:"count,omitempty" yaml:"count,omitempty"`
	Seed             *string            `json:"seed,omitempty" yaml:"seed,omitempty"`
	Hours            *float64           `json:"hours,omitempty" yaml:"hours,omitempty"`
	StartTime        string             `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	Profile          string             `json:"profile,omitempty" yaml:"profile,omitempty"`
	EventWeights     Weights            `json:"event_weights,omitempty" yaml:"event_weights,omitempty"`
	ActorWeights     Weights            `json:"actor_weights,omitempty" yaml:"actor_weights,omitempty"`
	FaultRates       map[string]float64 `json:"fault_rates,omitempty" yaml:"fault_rates,omitempty"`
	MappingOverrides map[string]string  `json:"mapping_overrides,omitempty" yaml:"mapping_overrides,omitempty"`
}

// Config is a normalized simulation configuration.
type Config struct {
	Count            int               `json:"count"`
	Seed             string            `json:"seed"`
	Hours            int               `json:"hours"`
	StartTime        *string           `json:"start_time"`
	Profile          Profile           `json:"profile"`
	EventWeights     Weights           `json:"event_weights"`
	ActorWeights     Weights           `json:"actor_weights"`
	FaultRates       FaultRates        `json:"fault_rates"`
	MappingOverrides map[string]string `json:"mapping_overrides"`
}

// Normalize applies defaults and clamps every field into range.
func Normalize(opts Options) Config {
	profile := Profile(opts.Profile)
	if !profile.IsKnown() {
		profile = DefaultProfile
	}

	seed := DefaultSeed
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	var startTime *string
	if opts.StartTime != "" {
		s := opts.StartTime
		startTime = &s
	}

	overrides := make(map[string]string, len(opts.MappingOverrides))
	for k, v := range opts.MappingOverrides {
		overrides[k] = v
	}

	return Config{
		Count:            clampInteger(opts.Count, DefaultCount, MinCount, MaxCount),
		Seed:             seed,
		Hours:            clampInteger(opts.Hours, DefaultHours, MinHours, MaxHours),
		StartTime:        startTime,
		Profile:          profile,
		EventWeights:     normalizeWeights(opts.EventWeights, profile.EventWeights()),
		ActorWeights:     normalizeWeights(opts.ActorWeights, profile.ActorWeights()),
		FaultRates:       normalizeFaultRates(opts.FaultRates),
		MappingOverrides: overrides,
	}
}

// Options converts a normalized config back into input form.
func (c Config) Options() Options {
	count := float64(c.Count)
	hours := float64(c.Hours)
	seed := c.Seed

	opts := Options{
		Count:        &count,
		Seed:         &seed,
		Hours:        &hours,
		Profile:      string(c.Profile),
		EventWeights: append(Weights{}, c.EventWeights...),
		ActorWeights: append(Weights{}, c.ActorWeights...),
		FaultRates: map[string]float64{
			FaultMissingEvidence:    c.FaultRates.MissingEvidence,
			FaultMissingAttestation: c.FaultRates.MissingAttestation,
			FaultInvalidAttestation: c.FaultRates.InvalidAttestation,
			FaultIneligibleLabel:    c.FaultRates.IneligibleLabel,
			FaultThreadModeMismatch: c.FaultRates.ThreadModeMismatch,
		},
		MappingOverrides: c.MappingOverrides,
	}
	if c.StartTime != nil {
		opts.StartTime = *c.StartTime
	}
	return opts
}

// Float returns a pointer to v, for building Options literals.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to v, for building Options literals.
func String(v string) *string {
	return &v
}

func clampInteger(value *float64, fallback, min, max int) int {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return fallback
	}
	// Bound in float space; converting an out-of-range float to int is undefined.
	rounded := math.Floor(*value + 0.5)
	if rounded < float64(min) {
		return min
	}
	if rounded > float64(max) {
		return max
	}
	return int(rounded)
}

func clampProbability(value float64, ok bool, fallback float64) float64 {
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return math.Max(0, math.Min(1, value))
}

func normalizeFaultRates(overrides map[string]float64) FaultRates {
	defaults := DefaultFaultRates()
	rate := func(name string, fallback float64) float64 {
		v, ok := overrides[name]
		return clampProbability(v, ok, fallback)
	}

	return FaultRates{
		MissingEvidence:    rate(FaultMissingEvidence, defaults.MissingEvidence),
		MissingAttestation: rate(FaultMissingAttestation, defaults.MissingAttestation),
		InvalidAttestation: rate(FaultInvalidAttestation, defaults.InvalidAttestation),
		IneligibleLabel:    rate(FaultIneligibleLabel, defaults.IneligibleLabel),
		ThreadModeMismatch: rate(FaultThreadModeMismatch, defaults.ThreadModeMismatch),
	}
}

// normalizeWeights scales positive finite weights to sum to one. Nil input
// normalizes the fallback; input with nothing positive returns the
// fallback unscaled.
func normalizeWeights(input, fallback Weights) Weights {
	source := input
	if source == nil {
		source = fallback
	}

	out := make(Weights, 0, len(source))
	sum := 0.0
	for _, e := range source {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight <= 0 {
			continue
		}
		out = out.set(e.Value, e.Weight)
		sum += e.Weight
	}
	if sum <= 0 {
		return append(Weights{}, fallback...)
	}
	for i := range out {
		out[i].Weight /= sum
	}
	return out
}

