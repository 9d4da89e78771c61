package simulator

import (
	"testing"
	"time"

	"github.com/safedep/covenant/core/policy"
	"github.com/stretchr/testify/require"
)

const samplePolicy = `spec_version: 1.0.0
defaults:
  unmatched: warn
actors:
  humans:
    - id: maintainers
      match:
        usernames: [alice, bob]
  agents:
    - id: ci-agents
      match:
        usernames: ["ci-bot[bot]"]
rules:
  - id: agent-pr-open
    actor: agent
    action: pull_request.open
    target:
      branch: develop-bot
    requirements:
      provenance_profile: strict
      attestation: for_agents
    outcome: allow
  - id: pr-any
    actor: any
    action: pull_request.*
    outcome: warn
requirements:
  on_failure: deny
  default_provenance_profile: basic
  provenance_profiles:
    basic:
      required_fields: [model]
    strict:
      required_fields: [model, provider, prompt_record, test_proof]
      on_failure: deny
attestation:
  contract: covenant.attestation.v1
  max_age_seconds: 600
  nonce_ttl_seconds: 1800
enforcement:
  deny:
    - type: comment
      message: "Denied ${action}"
    - type: fail_status
      context: covenant/policy
routing:
  develop_bot_branch: develop-bot
  on_deny_pull_request_open: reroute
policies:
  agent_eligible_labels:
    labels: [agent-friendly]
`

const openPolicy = `spec_version: 1.0.0
defaults:
  unmatched: allow
rules:
  - id: never
    actor: manager
    action: routing.to_develop_bot
    outcome: allow
policies:
  agent_eligible_labels:
    labels: [agent-friendly]
`

const strictPolicy = `spec_version: 1.0.0
defaults:
  unmatched: deny
actors:
  humans:
    - id: maintainers
      match:
        usernames: [alice, bob, carol, drew]
  agents:
    - id: bots
      match:
        usernames: ["ci-bot[bot]", "review-bot[bot]", "ops-bot[bot]"]
rules:
  - id: agent-issues
    actor: agent
    action: issue.*
    requirements:
      provenance_profile: strict
      attestation: for_agents
    outcome: allow
  - id: agent-maintenance
    actor: agent
    action: maintenance.cleanup
    requirements:
      attestation: required
    outcome: allow
  - id: humans-anything
    actor: human
    action: "*"
    outcome: allow
requirements:
  on_failure: deny
  default_provenance_profile: basic
  provenance_profiles:
    basic:
      required_fields: [model]
    strict:
      required_fields: [model, provider, prompt_record, test_proof]
attestation:
  contract: covenant.attestation.v1
  max_age_seconds: 600
  nonce_ttl_seconds: 1800
policies:
  agent_eligible_labels:
    labels: [agent-friendly]
`

func loadPolicy(t *testing.T, id, doc string) PolicyEntry {
	t.Helper()

	p, hash, err := policy.Parse([]byte(doc))
	require.NoError(t, err)
	return PolicyEntry{ID: id, Policy: p, PolicyHash: hash}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts
}
