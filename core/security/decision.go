// Package security implements the policy decision engine: actor
// resolution, rule matching, requirement evaluation and attestation
// verification.
package security

import (
	"fmt"
	"slices"
	"strings"

	"github.com/safedep/covenant/core/policy"
)

// Reason codes emitted outside of attestation verification.
const (
	ReasonDefaultsUnmatched          = "defaults.unmatched"
	ReasonRuleSelectedPrefix         = "rule.selected."
	ReasonEligibleLabelsMissing      = "policies.agent_eligible_labels.missing"
	ReasonProvenanceProfileMissing   = "requirements.provenance_profile_missing"
	ReasonProvenanceMissingPrefix    = "requirements.provenance.missing."
	reasonAttestationNamespacePrefix = "attestation."
)

// RuleSelectedReason returns the reason code recorded for a selected rule.
func RuleSelectedReason(ruleID string) string {
	return ReasonRuleSelectedPrefix + ruleID
}

// ProvenanceMissingReason returns the reason code for a missing evidence
// field.
func ProvenanceMissingReason(field string) string {
	return ReasonProvenanceMissingPrefix + field
}

// IsAttestationReason returns true for attestation.* codes.
func IsAttestationReason(code string) bool {
	return strings.HasPrefix(code, reasonAttestationNamespacePrefix)
}

// IsProvenanceReason returns true for provenance requirement codes.
func IsProvenanceReason(code string) bool {
	return code == ReasonProvenanceProfileMissing || strings.HasPrefix(code, ReasonProvenanceMissingPrefix)
}

// ActorRef is the resolved actor as reported in a decision.
type ActorRef struct {
	ID        string           `json:"id"`
	Kind      policy.ActorKind `json:"kind"`
	ProfileID string           `json:"profile_id,omitempty"`
}

// Decision is the outcome of evaluating one event under one policy.
type Decision struct {
	Decision         policy.Outcome `json:"decision"`
	Actor            ActorRef       `json:"actor"`
	SelectedRuleID   string         `json:"selected_rule_id,omitempty"`
	MatchedRuleCount int            `json:"matched_rule_count"`
	ReasonCodes      []string       `json:"reason_codes"`
}

// HasReason returns true if code was recorded.
func (d *Decision) HasReason(code string) bool {
	return slices.Contains(d.ReasonCodes, code)
}

// escalate raises the decision to at least outcome and records codes.
func (d *Decision) escalate(outcome policy.Outcome, codes ...string) {
	d.ReasonCodes = append(d.ReasonCodes, codes...)
	d.Decision = policy.MaxOutcome(d.Decision, outcome)
}

// String returns a compact single line summary.
func (d *Decision) String() string {
	rule := d.SelectedRuleID
	if rule == "" {
		rule = "-"
	}
	return fmt.Sprintf("%s rule=%s actor=%s/%s reasons=%s",
		d.Decision, rule, d.Actor.Kind, d.Actor.ID, strings.Join(d.ReasonCodes, ","))
}
