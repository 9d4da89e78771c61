package security

import (
	"bytes"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

const testPolicyHash = "0f3a5c"

func testKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
}

func parsePolicy(t *testing.T, doc string) *policy.Policy {
	t.Helper()

	p, _, err := policy.Parse([]byte(doc))
	require.NoError(t, err)
	return p
}

func outcomePtr(o policy.Outcome) *policy.Outcome {
	return &o
}

// attestedPolicy declares one agent profile with a verification key and a
// single rule requiring attestation for agents.
func attestedPolicy(t *testing.T) *policy.Policy {
	t.Helper()

	encoded, err := EncodePublicKey(testKey().Public().(ed25519.PublicKey))
	require.NoError(t, err)

	return &policy.Policy{
		SpecVersion: "1.0.0",
		Defaults:    policy.Defaults{Unmatched: policy.OutcomeDeny},
		Actors: policy.Actors{
			Agents: []policy.ActorProfile{{
				ID:           "ci-agents",
				Match:        policy.ActorMatch{Usernames: []string{"ci-bot[bot]"}},
				Verification: &policy.Verification{Type: "ed25519", PublicKey: encoded},
			}},
		},
		Rules: []policy.Rule{{
			ID:           "agent-pr",
			Actor:        policy.KindSelector(policy.ActorAgent),
			Action:       policy.MustActionPattern(policy.ActionPullRequestOpen),
			Requirements: &policy.RuleRequirements{Attestation: policy.AttestationForAgents},
			Outcome:      policy.OutcomeAllow,
		}},
		Attestation: &policy.AttestationContract{MaxAgeSeconds: 900, NonceTTLSeconds: 3600},
	}
}

func agentEvent(t *testing.T, nonce string, issued time.Time) *events.Event {
	t.Helper()

	a := &events.Attestation{
		Version:      policy.AttestationContractV1,
		ActorID:      "ci-bot[bot]",
		Action:       policy.ActionPullRequestOpen,
		Repository:   "acme/project",
		Ref:          "refs/heads/develop-bot",
		PolicySHA256: testPolicyHash,
		Timestamp:    issued.UTC().Format("2006-01-02T15:04:05.000Z"),
		Nonce:        nonce,
	}
	signature, err := Sign(testKey(), a)
	require.NoError(t, err)
	a.Signature = signature

	return &events.Event{
		Action:      policy.ActionPullRequestOpen,
		Actor:       events.Actor{ID: "ci-bot[bot]", Kind: policy.ActorAgent},
		Repository:  events.Repository{Name: "acme/project", Visibility: "public"},
		Target:      events.Target{Branch: "develop-bot", Labels: []string{"code-change"}, ThreadMode: policy.ThreadAgent},
		Evidence:    events.Evidence{"model": "gpt-5"},
		Attestation: a,
	}
}
