package security

import (
	"sort"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
)

// Candidate is a rule that passed every match gate, with its specificity.
type Candidate struct {
	Rule           *policy.Rule
	ActorScore     int
	ActionScore    int
	TargetScore    int
	ConditionScore int
}

// less orders candidates by specificity descending, then outcome severity
// descending, then rule id ascending.
func (c Candidate) less(other Candidate) bool {
	a := [5]int{c.ActorScore, c.ActionScore, c.TargetScore, c.ConditionScore, c.Rule.Outcome.Severity()}
	b := [5]int{other.ActorScore, other.ActionScore, other.TargetScore, other.ConditionScore, other.Rule.Outcome.Severity()}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return c.Rule.ID < other.Rule.ID
}

// Match is the result of rule resolution.
type Match struct {
	Selected   *policy.Rule
	Candidates []Candidate
}

// MatchedCount returns the number of rules that passed every gate.
func (m Match) MatchedCount() int {
	return len(m.Candidates)
}

// MatchRules returns every rule matching ev, ordered best first.
func MatchRules(p *policy.Policy, ev *events.Event, actor ActorContext) Match {
	var candidates []Candidate
	for i := range p.Rules {
		rule := &p.Rules[i]

		actorScore := actorMatchScore(rule.Actor, actor)
		if actorScore < 0 {
			continue
		}

		actionScore := rule.Action.Score(ev.Action)
		if actionScore < 0 {
			continue
		}

		targetScore, ok := targetMatchScore(rule.Target, ev.Target)
		if !ok {
			continue
		}

		conditionScore, ok := conditionMatchScore(rule.Conditions, ev)
		if !ok {
			continue
		}

		candidates = append(candidates, Candidate{
			Rule:           rule,
			ActorScore:     actorScore,
			ActionScore:    actionScore,
			TargetScore:    targetScore,
			ConditionScore: conditionScore,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].less(candidates[j])
	})

	m := Match{Candidates: candidates}
	if len(candidates) > 0 {
		m.Selected = candidates[0].Rule
	}
	return m
}

func actorMatchScore(selector policy.ActorSelector, actor ActorContext) int {
	if selector.IsAny() {
		return 0
	}
	if kind, ok := selector.Kind(); ok {
		if kind == actor.Kind {
			return 1
		}
		return -1
	}
	id, _ := selector.ID()
	if id == actor.ID {
		return 2
	}
	if actor.Profile != nil && id == actor.Profile.ID {
		return 2
	}
	return -1
}

func targetMatchScore(target map[string]string, eventTarget events.Target) (int, bool) {
	score := 0
	for key, expected := range target {
		actual, ok := eventTarget.Field(key)
		if !ok || actual != expected {
			return 0, false
		}
		score++
	}
	return score, true
}

func conditionMatchScore(c *policy.Conditions, ev *events.Event) (int, bool) {
	if c == nil {
		return 0, true
	}
	if c.LabelsAny != nil && !ev.Target.HasAnyLabel(c.LabelsAny) {
		return 0, false
	}
	if c.LabelsAll != nil && !ev.Target.HasAllLabels(c.LabelsAll) {
		return 0, false
	}
	if c.RepositoryVisibility != "" && ev.Repository.Visibility != c.RepositoryVisibility {
		return 0, false
	}
	if c.ThreadMode != "" && string(ev.Target.ThreadMode) != c.ThreadMode {
		return 0, false
	}
	return c.DeclaredCount(), true
}
