// Package events provides the canonical event model consumed by the
// decision engine.
package events

import (
	"slices"

	"github.com/safedep/covenant/core/policy"
)

// Actor is the performer claimed by the event envelope. Kind is a claim
// only, the decision engine resolves the trusted kind.
type Actor struct {
	ID   string           `json:"id"`
	Kind policy.ActorKind `json:"kind,omitempty"`
}

// Repository identifies the repository an action targets.
type Repository struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility,omitempty"`
}

// Target is the resource an action applies to.
type Target struct {
	Branch     string            `json:"branch,omitempty"`
	Labels     []string          `json:"labels"`
	ThreadMode policy.ThreadMode `json:"thread_mode,omitempty"`
}

// Field returns the value of a rule target key.
func (t Target) Field(key string) (string, bool) {
	switch key {
	case "branch":
		return t.Branch, true
	case "thread_mode":
		return string(t.ThreadMode), true
	default:
		return "", false
	}
}

// HasLabel returns true if the target carries label.
func (t Target) HasLabel(label string) bool {
	return slices.Contains(t.Labels, label)
}

// HasAnyLabel returns true if the target carries at least one of labels.
func (t Target) HasAnyLabel(labels []string) bool {
	return slices.ContainsFunc(labels, t.HasLabel)
}

// HasAllLabels returns true if the target carries every label in labels.
func (t Target) HasAllLabels(labels []string) bool {
	for _, label := range labels {
		if !t.HasLabel(label) {
			return false
		}
	}
	return true
}

// Evidence holds provenance fields keyed by evidence field name.
type Evidence map[string]string

// Has returns true if field is present and non-empty.
func (e Evidence) Has(field string) bool {
	return e[field] != ""
}

// Present returns the populated fields in canonical order.
func (e Evidence) Present() []string {
	fields := make([]string, 0, len(e))
	for _, field := range policy.EvidenceFields {
		if e.Has(field) {
			fields = append(fields, field)
		}
	}
	return fields
}

// Attestation is the signed envelope binding an actor and action to a
// policy version, a timestamp and a nonce.
type Attestation struct {
	Version      string `json:"version,omitempty"`
	ActorID      string `json:"actor_id,omitempty"`
	Action       string `json:"action,omitempty"`
	Repository   string `json:"repository,omitempty"`
	Ref          string `json:"ref,omitempty"`
	PolicySHA256 string `json:"policy_sha256,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
	Signature    string `json:"signature,omitempty"`
}

// SignedPayload returns the field set covered by the signature. The version
// is always the contract constant, never the envelope's claim.
func (a *Attestation) SignedPayload() map[string]string {
	return map[string]string{
		"version":       policy.AttestationContractV1,
		"actor_id":      a.ActorID,
		"action":        a.Action,
		"repository":    a.Repository,
		"ref":           a.Ref,
		"policy_sha256": a.PolicySHA256,
		"timestamp":     a.Timestamp,
		"nonce":         a.Nonce,
	}
}

// Source records where an event came from.
type Source struct {
	SimulatorType string `json:"simulator_type,omitempty"`
}
