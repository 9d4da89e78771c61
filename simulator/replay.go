package simulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/safedep/covenant/core/enforcement"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/core/security"
)

var (
	// ErrNoPolicies is returned when a replay has nothing to compare.
	ErrNoPolicies = errors.New("at least one policy is required for replay")
	// ErrInvalidPolicy is returned for a policy entry without a policy.
	ErrInvalidPolicy = errors.New("invalid policy")
	// ErrDuplicatePolicyID is returned when two entries share an ID.
	ErrDuplicatePolicyID = errors.New("duplicate policy id")
	// ErrUnknownAttestationMode is returned by ParseAttestationMode.
	ErrUnknownAttestationMode = errors.New("unknown attestation mode")
)

// AttestationMode selects the verifier used during replay.
type AttestationMode string

const (
	// AttestationSimulated accepts generated attestations structurally.
	AttestationSimulated AttestationMode = "simulated"
	// AttestationNative verifies ed25519 signatures.
	AttestationNative AttestationMode = "native"
)

// ParseAttestationMode parses a mode name. The empty string is simulated.
func ParseAttestationMode(s string) (AttestationMode, error) {
	switch AttestationMode(s) {
	case "", AttestationSimulated:
		return AttestationSimulated, nil
	case AttestationNative:
		return AttestationNative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttestationMode, s)
	}
}

func (m AttestationMode) verifier() security.AttestationVerifier {
	if m == AttestationNative {
		return security.NewEd25519Verifier()
	}
	return NewSimulatedVerifier()
}

// PolicyEntry is a policy under comparison. Empty ID and PolicyHash are
// filled in by Replay.
type PolicyEntry struct {
	ID         string
	Policy     *policy.Policy
	PolicyHash string
	Source     string
}

// PolicyRef identifies a replayed policy in results.
type PolicyRef struct {
	ID         string  `json:"id"`
	PolicyHash string  `json:"policy_hash"`
	Source     *string `json:"source"`
}

// PolicyDecision is one policy's verdict on one event.
type PolicyDecision struct {
	PolicyID           string               `json:"policy_id"`
	Decision           policy.Outcome       `json:"decision"`
	SelectedRuleID     string               `json:"selected_rule_id,omitempty"`
	MatchedRuleCount   int                  `json:"matched_rule_count"`
	ReasonCodes        []string             `json:"reason_codes"`
	EnforcementActions []enforcement.Action `json:"enforcement_actions"`
}

// LogEntry is a timeline event with every policy's decision.
type LogEntry struct {
	TimelineEvent
	Decisions []PolicyDecision `json:"decisions"`
}

// ReplayResult is the output of Replay.
type ReplayResult struct {
	Policies []PolicyRef `json:"policies"`
	Logs     []LogEntry  `json:"logs"`
}

type replayPolicy struct {
	PolicyEntry
	evaluator *security.Evaluator
	nonces    *security.NonceStore
}

// Replay evaluates every event under every policy, in order. Each policy
// keeps its own nonce store across the timeline and uses the event
// timestamp as the evaluation time.
func Replay(entries []PolicyEntry, timeline []TimelineEvent, mode AttestationMode) (*ReplayResult, error) {
	policies, err := preparePolicies(entries, mode)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{
		Policies: make([]PolicyRef, 0, len(policies)),
		Logs:     make([]LogEntry, 0, len(timeline)),
	}
	for _, p := range policies {
		ref := PolicyRef{ID: p.ID, PolicyHash: p.PolicyHash}
		if p.Source != "" {
			source := p.Source
			ref.Source = &source
		}
		result.Policies = append(result.Policies, ref)
	}

	for _, item := range timeline {
		now, err := time.Parse(time.RFC3339Nano, item.Timestamp)
		if err != nil {
			now = time.Now()
		}

		entry := LogEntry{
			TimelineEvent: item,
			Decisions:     make([]PolicyDecision, 0, len(policies)),
		}
		for _, p := range policies {
			decision, err := p.evaluator.Evaluate(p.Policy, item.Event, security.Session{
				PolicyHash: p.PolicyHash,
				Now:        now,
				Nonces:     p.nonces,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate %s under %s: %w", item.ID, p.ID, err)
			}

			entry.Decisions = append(entry.Decisions, PolicyDecision{
				PolicyID:           p.ID,
				Decision:           decision.Decision,
				SelectedRuleID:     decision.SelectedRuleID,
				MatchedRuleCount:   decision.MatchedRuleCount,
				ReasonCodes:        decision.ReasonCodes,
				EnforcementActions: enforcement.Build(p.Policy, decision, item.Event),
			})
		}
		result.Logs = append(result.Logs, entry)
	}

	return result, nil
}

func preparePolicies(entries []PolicyEntry, mode AttestationMode) ([]replayPolicy, error) {
	if len(entries) == 0 {
		return nil, ErrNoPolicies
	}

	policies := make([]replayPolicy, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if entry.Policy == nil {
			return nil, fmt.Errorf("%w: policy at index %d is invalid", ErrInvalidPolicy, i)
		}
		if entry.ID == "" {
			entry.ID = fmt.Sprintf("policy-%d", i+1)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePolicyID, entry.ID)
		}
		seen[entry.ID] = true
		if entry.PolicyHash == "" {
			hash, err := policy.Hash(entry.Policy)
			if err != nil {
				return nil, fmt.Errorf("failed to hash policy %s: %w", entry.ID, err)
			}
			entry.PolicyHash = hash
		}

		policies = append(policies, replayPolicy{
			PolicyEntry: entry,
			evaluator:   security.New(&security.Config{Verifier: mode.verifier()}),
			nonces:      security.NewNonceStore(),
		})
	}
	return policies, nil
}
