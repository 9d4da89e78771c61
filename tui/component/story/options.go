package story

import (
	"time"

	"github.com/safedep/covenant/simulator"
)

// Options configures the story explorer.
type Options struct {
	// Run is the simulation whose logs are explored.
	Run *simulator.Run
	// Policies are used to decide edited events again. A policy missing
	// here is shown read-only.
	Policies []simulator.PolicyEntry
	// AttestationMode selects the verifier for what-if evaluations.
	AttestationMode simulator.AttestationMode
	// Now supplies the clock for refreshed attestations. Defaults to time.Now.
	Now func() time.Time
	// ContestedOnly starts with the list filtered to events that at least
	// one policy did not allow.
	ContestedOnly bool
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) policyIDs() []string {
	if o.Run == nil {
		return nil
	}
	if o.Run.Metrics != nil && len(o.Run.Metrics.CrossPolicy.PolicyIDs) > 0 {
		return o.Run.Metrics.CrossPolicy.PolicyIDs
	}
	ids := make([]string, 0, len(o.Run.Policies))
	for _, p := range o.Run.Policies {
		ids = append(ids, p.ID)
	}
	return ids
}
