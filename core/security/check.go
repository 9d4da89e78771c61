package security

import (
	"slices"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
)

// GateResult is the verdict of a pre-rule gate.
type GateResult struct {
	// Applies is false when the gate has nothing to say about the event.
	Applies bool
	// OK is true when the event passes the gate.
	OK bool
	// Decision is returned as the final outcome when the gate fails.
	Decision policy.Outcome
	// ReasonCode identifies the failing gate.
	ReasonCode string
}

// Gate is a check that runs before rule matching and may short-circuit it.
type Gate interface {
	// Name returns the unique identifier for this gate.
	Name() string
	// Check evaluates the event for the resolved actor.
	Check(p *policy.Policy, ev *events.Event, actor ActorContext) GateResult
}

// EligibleLabelsGate denies gated agent actions on targets carrying none of
// the policy's agent eligible labels.
type EligibleLabelsGate struct{}

// NewEligibleLabelsGate creates the agent eligible labels gate.
func NewEligibleLabelsGate() *EligibleLabelsGate {
	return &EligibleLabelsGate{}
}

// Name returns the gate identifier.
func (g *EligibleLabelsGate) Name() string {
	return "agent_eligible_labels"
}

// Check applies only to agents performing a gated action.
func (g *EligibleLabelsGate) Check(p *policy.Policy, ev *events.Event, actor ActorContext) GateResult {
	if actor.Kind != policy.ActorAgent {
		return GateResult{}
	}

	cfg := p.EligibleLabelsGate()
	if cfg == nil {
		return GateResult{}
	}

	if !slices.Contains(cfg.GatedActions(), ev.Action) {
		return GateResult{}
	}

	if ev.Target.HasAnyLabel(cfg.Labels) {
		return GateResult{Applies: true, OK: true}
	}

	return GateResult{
		Applies:    true,
		OK:         false,
		Decision:   policy.OutcomeOr(cfg.OnMissing, policy.OutcomeDeny),
		ReasonCode: ReasonEligibleLabelsMissing,
	}
}

var _ Gate = (*EligibleLabelsGate)(nil)
