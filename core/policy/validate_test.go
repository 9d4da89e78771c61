package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPolicy() *Policy {
	return &Policy{
		SpecVersion: "1.0.0",
		Defaults:    Defaults{Unmatched: OutcomeDeny},
		Rules: []Rule{
			{ID: "r1", Actor: AnyActor(), Action: MustActionPattern("*"), Outcome: OutcomeAllow},
		},
	}
}

func issuePaths(t *testing.T, err error) []string {
	t.Helper()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	paths := make([]string, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		paths = append(paths, issue.Path)
	}
	return paths
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(validPolicy()))
}

func TestValidate_Issues(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(p *Policy)
		wantPath string
	}{
		{"missing spec version", func(p *Policy) { p.SpecVersion = "" }, "spec_version"},
		{"non semver", func(p *Policy) { p.SpecVersion = "1.0" }, "spec_version"},
		{"major version 2", func(p *Policy) { p.SpecVersion = "2.0.0" }, "spec_version"},
		{"no rules", func(p *Policy) { p.Rules = nil }, "rules"},
		{"duplicate rule id", func(p *Policy) { p.Rules = append(p.Rules, p.Rules[0]) }, "rules[1].id"},
		{"empty rule id", func(p *Policy) { p.Rules[0].ID = "" }, "rules[0].id"},
		{"unknown action", func(p *Policy) { p.Rules[0].Action = MustActionPattern("issue.delete") }, "rules[0].action"},
		{"unknown prefix", func(p *Policy) { p.Rules[0].Action = MustActionPattern("wiki.*") }, "rules[0].action"},
		{"unsupported target key", func(p *Policy) { p.Rules[0].Target = map[string]string{"path": "x"} }, "rules[0].target.path"},
		{"bad target thread mode", func(p *Policy) { p.Rules[0].Target = map[string]string{"thread_mode": "bots"} }, "rules[0].target.thread_mode"},
		{"empty labels_any", func(p *Policy) { p.Rules[0].Conditions = &Conditions{LabelsAny: []string{}} }, "rules[0].conditions.labels_any"},
		{"bad visibility", func(p *Policy) { p.Rules[0].Conditions = &Conditions{RepositoryVisibility: "internal"} }, "rules[0].conditions.repository_visibility"},
		{"bad attestation mode", func(p *Policy) { p.Rules[0].Requirements = &RuleRequirements{Attestation: "always"} }, "rules[0].requirements.attestation"},
		{"unknown evidence field", func(p *Policy) {
			p.Requirements = &Requirements{ProvenanceProfiles: map[string]ProvenanceProfile{"x": {RequiredFields: []string{"commit"}}}}
		}, "requirements.provenance_profiles.x.required_fields"},
		{"bad contract", func(p *Policy) { p.Attestation = &AttestationContract{Contract: "v0"} }, "attestation.contract"},
		{"negative ttl", func(p *Policy) { p.Attestation = &AttestationContract{NonceTTLSeconds: -1} }, "attestation.nonce_ttl_seconds"},
		{"unknown enforcement", func(p *Policy) {
			p.Enforcement = &Enforcement{Deny: []EnforcementAction{{Type: "page_oncall"}}}
		}, "enforcement.deny[0].type"},
		{"comment without message", func(p *Policy) {
			p.Enforcement = &Enforcement{Warn: []EnforcementAction{{Type: EnforceComment}}}
		}, "enforcement.warn[0].message"},
		{"bad routing", func(p *Policy) { p.Routing = &Routing{OnDenyPullRequestOpen: "drop"} }, "routing.on_deny_pull_request_open"},
		{"gate without labels", func(p *Policy) { p.Policies = &Gates{AgentEligibleLabels: &EligibleLabelsGate{}} }, "policies.agent_eligible_labels.labels"},
		{"human verification", func(p *Policy) {
			p.Actors.Humans = []ActorProfile{{ID: "h", Match: ActorMatch{Usernames: []string{"alice"}}, Verification: &Verification{Type: "ed25519", PublicKey: "k"}}}
		}, "actors.humans[0].verification"},
		{"profile without usernames", func(p *Policy) { p.Actors.Agents = []ActorProfile{{ID: "a"}} }, "actors.agents[0].match.usernames"},
		{"unknown surface action", func(p *Policy) { p.Surfaces = &Surfaces{Actions: []string{"repo.delete"}} }, "surfaces.actions"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPolicy()
			tc.mutate(p)

			err := Validate(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, issuePaths(t, err), tc.wantPath)
		})
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	p := validPolicy()
	p.SpecVersion = "x"
	p.Rules[0].ID = ""
	p.Routing = &Routing{OnDenyPullRequestOpen: "drop"}

	err := Validate(p)
	require.Error(t, err)
	assert.Len(t, issuePaths(t, err), 3)
	assert.Contains(t, err.Error(), "3 error(s)")
}
