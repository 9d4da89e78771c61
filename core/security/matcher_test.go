package security

import (
	"testing"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(id, actor, action string, outcome policy.Outcome) policy.Rule {
	selector, err := policy.ParseActorSelector(actor)
	if err != nil {
		panic(err)
	}
	return policy.Rule{ID: id, Actor: selector, Action: policy.MustActionPattern(action), Outcome: outcome}
}

func humanEvent(action string) *events.Event {
	return &events.Event{
		Action:     action,
		Actor:      events.Actor{ID: "alice", Kind: policy.ActorHuman},
		Repository: events.Repository{Name: "acme/project", Visibility: "private"},
		Target:     events.Target{Branch: "main", Labels: []string{"bug", "thread:human"}, ThreadMode: policy.ThreadHuman},
	}
}

func selectedID(t *testing.T, p *policy.Policy, ev *events.Event) string {
	t.Helper()

	m := MatchRules(p, ev, ResolveActor(p, ev.Actor))
	if m.Selected == nil {
		return ""
	}
	return m.Selected.ID
}

func TestMatchRules_Specificity(t *testing.T) {
	cases := []struct {
		name  string
		rules []policy.Rule
		want  string
	}{
		{
			"exact actor beats kind",
			[]policy.Rule{
				rule("a", "human", "*", policy.OutcomeAllow),
				rule("b", "alice", "*", policy.OutcomeAllow),
			},
			"b",
		},
		{
			"kind beats any",
			[]policy.Rule{
				rule("a", "any", "issue.open", policy.OutcomeDeny),
				rule("b", "human", "*", policy.OutcomeAllow),
			},
			"b",
		},
		{
			"exact action beats prefix",
			[]policy.Rule{
				rule("a", "any", "issue.*", policy.OutcomeDeny),
				rule("b", "any", "issue.open", policy.OutcomeAllow),
			},
			"b",
		},
		{
			"prefix beats wildcard",
			[]policy.Rule{
				rule("a", "any", "*", policy.OutcomeDeny),
				rule("b", "any", "issue.*", policy.OutcomeAllow),
			},
			"b",
		},
		{
			"outcome severity breaks ties",
			[]policy.Rule{
				rule("a", "any", "issue.open", policy.OutcomeAllow),
				rule("b", "any", "issue.open", policy.OutcomeWarn),
			},
			"b",
		},
		{
			"rule id breaks full ties",
			[]policy.Rule{
				rule("zulu", "any", "issue.open", policy.OutcomeWarn),
				rule("alpha", "any", "issue.open", policy.OutcomeWarn),
			},
			"alpha",
		},
		{
			"wrong kind disqualifies",
			[]policy.Rule{rule("a", "agent", "*", policy.OutcomeDeny)},
			"",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &policy.Policy{Rules: tc.rules}
			assert.Equal(t, tc.want, selectedID(t, p, humanEvent(policy.ActionIssueOpen)))
		})
	}
}

func TestMatchRules_TargetAndConditions(t *testing.T) {
	targeted := rule("targeted", "any", "issue.open", policy.OutcomeAllow)
	targeted.Target = map[string]string{"branch": "main", "thread_mode": "human"}

	conditioned := rule("conditioned", "any", "issue.open", policy.OutcomeAllow)
	conditioned.Conditions = &policy.Conditions{LabelsAny: []string{"bug"}, RepositoryVisibility: "private", ThreadMode: "human"}

	plain := rule("plain", "any", "issue.open", policy.OutcomeDeny)

	p := &policy.Policy{Rules: []policy.Rule{plain, conditioned, targeted}}
	ev := humanEvent(policy.ActionIssueOpen)

	m := MatchRules(p, ev, ResolveActor(p, ev.Actor))
	require.Len(t, m.Candidates, 3)
	assert.Equal(t, "targeted", m.Selected.ID)
	assert.Equal(t, 2, m.Candidates[0].TargetScore)
	assert.Equal(t, "conditioned", m.Candidates[1].Rule.ID)
	assert.Equal(t, 3, m.Candidates[1].ConditionScore)
	assert.Equal(t, "plain", m.Candidates[2].Rule.ID)
}

func TestMatchRules_GatesDisqualify(t *testing.T) {
	wrongBranch := rule("wrong-branch", "any", "*", policy.OutcomeDeny)
	wrongBranch.Target = map[string]string{"branch": "release"}

	missingLabel := rule("missing-label", "any", "*", policy.OutcomeDeny)
	missingLabel.Conditions = &policy.Conditions{LabelsAll: []string{"bug", "security"}}

	wrongVisibility := rule("wrong-visibility", "any", "*", policy.OutcomeDeny)
	wrongVisibility.Conditions = &policy.Conditions{RepositoryVisibility: "public"}

	wrongThread := rule("wrong-thread", "any", "*", policy.OutcomeDeny)
	wrongThread.Conditions = &policy.Conditions{ThreadMode: "agent"}

	noLabels := rule("no-labels", "any", "*", policy.OutcomeDeny)
	noLabels.Conditions = &policy.Conditions{LabelsAny: []string{"feature-request"}}

	p := &policy.Policy{Rules: []policy.Rule{wrongBranch, missingLabel, wrongVisibility, wrongThread, noLabels}}
	ev := humanEvent(policy.ActionIssueOpen)

	m := MatchRules(p, ev, ResolveActor(p, ev.Actor))
	assert.Nil(t, m.Selected)
	assert.Equal(t, 0, m.MatchedCount())
}

func TestMatchRules_ProfileIDSelector(t *testing.T) {
	p := &policy.Policy{
		Actors: policy.Actors{Humans: []policy.ActorProfile{{ID: "maintainers", Match: policy.ActorMatch{Usernames: []string{"alice"}}}}},
		Rules: []policy.Rule{
			rule("kind", "human", "*", policy.OutcomeDeny),
			rule("profile", "maintainers", "*", policy.OutcomeAllow),
		},
	}

	assert.Equal(t, "profile", selectedID(t, p, humanEvent(policy.ActionIssueComment)))
}

func TestMatchRules_Deterministic(t *testing.T) {
	p := &policy.Policy{Rules: []policy.Rule{
		rule("c", "any", "issue.open", policy.OutcomeWarn),
		rule("b", "any", "issue.open", policy.OutcomeWarn),
		rule("a", "any", "issue.*", policy.OutcomeDeny),
	}}
	ev := humanEvent(policy.ActionIssueOpen)

	first := selectedID(t, p, ev)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, selectedID(t, p, ev))
	}
	assert.Equal(t, "b", first)
}
