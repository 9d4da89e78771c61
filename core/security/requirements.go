package security

import (
	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
)

// Requirements is the effective requirement set for a selected rule.
type Requirements struct {
	ProvenanceProfile string
	Attestation       policy.AttestationMode
	// OnFailure is the rule-level escalation when declared, otherwise the
	// policy-wide one.
	OnFailure policy.Outcome
	// RuleOnFailure is set when the rule declares its own escalation.
	RuleOnFailure bool
}

// ResolveRequirements layers a rule's requirements over the policy-wide
// defaults. Each field the rule declares overrides the base.
func ResolveRequirements(p *policy.Policy, rule *policy.Rule) Requirements {
	req := Requirements{
		ProvenanceProfile: p.DefaultProvenanceProfile(),
		Attestation:       policy.AttestationOptional,
		OnFailure:         p.GlobalOnFailure(),
	}

	if rule == nil || rule.Requirements == nil {
		return req
	}

	if rule.Requirements.ProvenanceProfile != "" {
		req.ProvenanceProfile = rule.Requirements.ProvenanceProfile
	}
	if rule.Requirements.Attestation != "" {
		req.Attestation = rule.Requirements.Attestation
	}
	if rule.Requirements.OnFailure != nil {
		req.OnFailure = *rule.Requirements.OnFailure
		req.RuleOnFailure = true
	}
	return req
}

// NeedsAttestation returns true when the requirement set demands a verified
// attestation from actor.
func (r Requirements) NeedsAttestation(actor ActorContext) bool {
	switch r.Attestation {
	case policy.AttestationRequired:
		return true
	case policy.AttestationForAgents:
		return actor.Kind == policy.ActorAgent
	default:
		return false
	}
}

// ProvenanceResult is the outcome of checking evidence fields.
type ProvenanceResult struct {
	OK          bool
	ReasonCodes []string
	OnFailure   policy.Outcome
}

// CheckProvenance verifies that ev carries every field the resolved
// provenance profile requires. The escalation is the rule's own on_failure
// when declared, then the profile's, then the policy-wide value.
func CheckProvenance(p *policy.Policy, req Requirements, ev *events.Event) ProvenanceResult {
	result := ProvenanceResult{OK: true, OnFailure: req.OnFailure}
	if req.ProvenanceProfile == "" {
		return result
	}

	profile, ok := p.ProvenanceProfile(req.ProvenanceProfile)
	if !ok {
		result.OK = false
		result.ReasonCodes = []string{ReasonProvenanceProfileMissing}
		return result
	}

	if !req.RuleOnFailure && profile.OnFailure != nil {
		result.OnFailure = *profile.OnFailure
	}

	for _, field := range profile.RequiredFields {
		if !ev.Evidence.Has(field) {
			result.ReasonCodes = append(result.ReasonCodes, ProvenanceMissingReason(field))
		}
	}
	result.OK = len(result.ReasonCodes) == 0
	return result
}
