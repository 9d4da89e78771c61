package policy

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
