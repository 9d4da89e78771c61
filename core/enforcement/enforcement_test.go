package enforcement

import (
	"testing"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/core/security"
	"github.com/stretchr/testify/assert"
)

func testPolicy() *policy.Policy {
	return &policy.Policy{
		Enforcement: &policy.Enforcement{
			Warn: []policy.EnforcementAction{
				{Type: policy.EnforceLabel, Labels: []string{"needs-review"}},
			},
			Deny: []policy.EnforcementAction{
				{Type: policy.EnforceComment, Message: "${decision}: ${actor} may not ${action} (${reason_codes})"},
				{Type: policy.EnforceFailStatus, Context: "covenant/policy"},
				{Type: policy.EnforceClosePullRequest},
				{Type: policy.EnforceDeleteBranch},
			},
		},
		Routing: &policy.Routing{DevelopBotBranch: "develop-bot", OnDenyPullRequestOpen: "reroute"},
	}
}

func testEvent(action string) *events.Event {
	return &events.Event{
		Action: action,
		Actor:  events.Actor{ID: "ci-bot[bot]", Kind: policy.ActorAgent},
		Target: events.Target{Branch: "main"},
	}
}

func TestBuild_Deny(t *testing.T) {
	d := &security.Decision{
		Decision:    policy.OutcomeDeny,
		ReasonCodes: []string{"rule.selected.r1", "attestation.missing"},
	}

	plan := Build(testPolicy(), d, testEvent(policy.ActionPullRequestOpen))

	assert.Equal(t, []Action{
		{
			Type:    policy.EnforceComment,
			Message: "deny: ci-bot[bot] may not pull_request.open (rule.selected.r1,attestation.missing)",
			Target:  TargetIssueOrPullRequest,
		},
		{Type: policy.EnforceFailStatus, Context: "covenant/policy", Description: "Covenant policy decision: deny"},
		{Type: policy.EnforceClosePullRequest},
		{Type: policy.EnforceDeleteBranch},
		{Type: policy.EnforceRerouteToBranch, Branch: "develop-bot"},
	}, plan)
}

func TestBuild_RerouteOnlyForPullRequestOpen(t *testing.T) {
	d := &security.Decision{Decision: policy.OutcomeDeny}

	plan := Build(testPolicy(), d, testEvent(policy.ActionPullRequestMerge))

	assert.Len(t, plan, 4)
	for _, action := range plan {
		assert.NotEqual(t, policy.EnforceRerouteToBranch, action.Type)
	}
}

func TestBuild_RerouteNeedsBranch(t *testing.T) {
	p := testPolicy()
	p.Routing.DevelopBotBranch = ""

	plan := Build(p, &security.Decision{Decision: policy.OutcomeDeny}, testEvent(policy.ActionPullRequestOpen))
	assert.Len(t, plan, 4)
}

func TestBuild_WarnLabelsAreCopied(t *testing.T) {
	p := testPolicy()
	plan := Build(p, &security.Decision{Decision: policy.OutcomeWarn}, testEvent(policy.ActionIssueOpen))

	assert.Equal(t, []Action{{Type: policy.EnforceLabel, Labels: []string{"needs-review"}}}, plan)

	plan[0].Labels[0] = "changed"
	assert.Equal(t, "needs-review", p.Enforcement.Warn[0].Labels[0])
}

func TestBuild_NoEnforcement(t *testing.T) {
	plan := Build(&policy.Policy{}, &security.Decision{Decision: policy.OutcomeDeny}, testEvent(policy.ActionIssueOpen))
	assert.NotNil(t, plan)
	assert.Empty(t, plan)

	assert.Empty(t, Build(nil, nil, nil))
}

func TestBuild_CustomStatusDescriptionAndExplicitReroute(t *testing.T) {
	p := &policy.Policy{Enforcement: &policy.Enforcement{Allow: []policy.EnforcementAction{
		{Type: policy.EnforceFailStatus, Context: "ctx", Description: "${action} by ${actor}"},
		{Type: policy.EnforceRerouteToBranch, Branch: "sandbox"},
	}}}

	plan := Build(p, &security.Decision{Decision: policy.OutcomeAllow}, testEvent(policy.ActionIssueOpen))

	assert.Equal(t, "issue.open by ci-bot[bot]", plan[0].Description)
	assert.Equal(t, "sandbox", plan[1].Branch)
}
