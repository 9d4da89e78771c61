package simulator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/safedep/covenant/core/enforcement"
	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/core/security"
)

// ErrChoiceNotOffered is returned by WhatIf for a choice the decision does
// not offer.
var ErrChoiceNotOffered = errors.New("story choice not offered")

// MaxStoryChoices caps the choices offered for one decision.
const MaxStoryChoices = 4

// Story choice identifiers.
const (
	ChoiceAddProvenance         = "add_provenance"
	ChoiceRefreshAttestation    = "refresh_attestation"
	ChoiceAddAgentEligibleLabel = "add_agent_eligible_label"
	ChoiceSwitchToHuman         = "switch_to_human"
	ChoiceSwitchBranchToBot     = "switch_branch_to_develop_bot"
)

// StoryChoice is a counterfactual edit offered for a decision.
type StoryChoice struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Explanation string `json:"explanation"`
}

// StoryEntry lists the choices for one policy's decision on an event.
type StoryEntry struct {
	PolicyID string        `json:"policy_id"`
	EventID  string        `json:"event_id"`
	Choices  []StoryChoice `json:"choices"`
}

type storyAction struct {
	StoryChoice
	offered func(reasons []string) bool
	apply   func(ev *events.Event, now time.Time)
}

var storyActions = []storyAction{
	{
		StoryChoice: StoryChoice{
			ID:          ChoiceAddProvenance,
			Label:       "Attach complete provenance",
			Explanation: "Adds all standard evidence fields to satisfy strict provenance profiles.",
		},
		offered: anyReason(func(code string) bool {
			return strings.HasPrefix(code, security.ReasonProvenanceMissingPrefix)
		}),
		apply: func(ev *events.Event, _ time.Time) {
			ev.Evidence = events.Evidence{
				policy.EvidenceModel:        "gpt-5",
				policy.EvidenceProvider:     "openai",
				policy.EvidencePromptRecord: "prompt://story/retry",
				policy.EvidenceTestProof:    "tests://story/retry",
			}
		},
	},
	{
		StoryChoice: StoryChoice{
			ID:          ChoiceRefreshAttestation,
			Label:       "Refresh attestation",
			Explanation: "Generates a fresh simulated attestation payload with matching fields and nonce.",
		},
		offered: anyReason(security.IsAttestationReason),
		apply:   refreshAttestation,
	},
	{
		StoryChoice: StoryChoice{
			ID:          ChoiceAddAgentEligibleLabel,
			Label:       "Add agent-friendly label",
			Explanation: "Adds an eligible label so the agent-label gate no longer blocks issue actions.",
		},
		offered: anyReason(func(code string) bool {
			return code == security.ReasonEligibleLabelsMissing
		}),
		apply: func(ev *events.Event, _ time.Time) {
			if !ev.Target.HasLabel("agent-friendly") {
				ev.Target.Labels = append(ev.Target.Labels, "agent-friendly")
			}
		},
	},
	{
		StoryChoice: StoryChoice{
			ID:          ChoiceSwitchToHuman,
			Label:       "Retry as human",
			Explanation: "Replays the same action with a human actor to test actor-specific restrictions.",
		},
		apply: func(ev *events.Event, _ time.Time) {
			ev.Actor = events.Actor{ID: "alice", Kind: policy.ActorHuman}
			ev.Attestation = nil
		},
	},
	{
		StoryChoice: StoryChoice{
			ID:          ChoiceSwitchBranchToBot,
			Label:       "Retarget to develop-bot",
			Explanation: "Moves the target branch to develop-bot to explore routing and protected-branch policy impact.",
		},
		apply: func(ev *events.Event, _ time.Time) {
			ev.Target.Branch = "develop-bot"
		},
	},
}

func anyReason(match func(string) bool) func([]string) bool {
	return func(reasons []string) bool {
		return slices.ContainsFunc(reasons, match)
	}
}

func refreshAttestation(ev *events.Event, now time.Time) {
	repository := ev.Repository.Name
	if repository == "" {
		repository = simRepository
	}
	branch := ev.Target.Branch
	if branch == "" {
		branch = "main"
	}
	ev.Attestation = &events.Attestation{
		Version:      policy.AttestationContractV1,
		ActorID:      ev.Actor.ID,
		Action:       ev.Action,
		Repository:   repository,
		Ref:          "refs/heads/" + branch,
		PolicySHA256: SimPolicyHashSentinel,
		Timestamp:    now.UTC().Format(TimestampLayout),
		Nonce:        fmt.Sprintf("story-%d", now.UnixMilli()),
		Signature:    simSignature,
	}
}

// StoryChoices returns the choices offered for a decision: targeted fixes
// for the reasons it carries, then the generic retries.
func StoryChoices(d PolicyDecision) []StoryChoice {
	choices := make([]StoryChoice, 0, MaxStoryChoices)
	for _, action := range storyActions {
		if len(choices) == MaxStoryChoices {
			break
		}
		if action.offered == nil || action.offered(d.ReasonCodes) {
			choices = append(choices, action.StoryChoice)
		}
	}
	return choices
}

// ApplyStoryChoice returns a modified copy of ev. A choice id that is not
// among choices yields an unmodified copy.
func ApplyStoryChoice(ev *events.Event, choices []StoryChoice, choiceID string, now time.Time) *events.Event {
	next := ev.Clone()
	if next == nil {
		return nil
	}
	if !slices.ContainsFunc(choices, func(c StoryChoice) bool { return c.ID == choiceID }) {
		return next
	}

	i := slices.IndexFunc(storyActions, func(a storyAction) bool { return a.ID == choiceID })
	if i >= 0 {
		storyActions[i].apply(next, now)
	}
	return next
}

// BuildStory returns the choices for every decision on the last logged
// event.
func BuildStory(logs []LogEntry) []StoryEntry {
	story := []StoryEntry{}
	if len(logs) == 0 {
		return story
	}

	last := logs[len(logs)-1]
	for _, d := range last.Decisions {
		story = append(story, StoryEntry{
			PolicyID: d.PolicyID,
			EventID:  last.ID,
			Choices:  StoryChoices(d),
		})
	}
	return story
}

// WhatIfResult is a logged decision next to the decision reached after
// applying a story choice.
type WhatIfResult struct {
	Choice StoryChoice    `json:"choice"`
	Event  *events.Event  `json:"event"`
	Before PolicyDecision `json:"before"`
	After  PolicyDecision `json:"after"`
}

// Changed returns true if the choice changed the outcome.
func (r *WhatIfResult) Changed() bool {
	return r.Before.Decision != r.After.Decision
}

// WhatIf applies choiceID to a logged event and decides the edited event
// again under entry. The evaluation runs at now with a fresh nonce store.
func WhatIf(entry PolicyEntry, logged LogEntry, choiceID string, mode AttestationMode, now time.Time) (*WhatIfResult, error) {
	policies, err := preparePolicies([]PolicyEntry{entry}, mode)
	if err != nil {
		return nil, err
	}
	p := policies[0]

	i := slices.IndexFunc(logged.Decisions, func(d PolicyDecision) bool { return d.PolicyID == p.ID })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s has no decision for %s", ErrInvalidPolicy, logged.ID, p.ID)
	}
	before := logged.Decisions[i]

	choices := StoryChoices(before)
	c := slices.IndexFunc(choices, func(choice StoryChoice) bool { return choice.ID == choiceID })
	if c < 0 {
		return nil, fmt.Errorf("%w: %q", ErrChoiceNotOffered, choiceID)
	}

	edited := ApplyStoryChoice(logged.Event, choices, choiceID, now)
	if edited == nil {
		return nil, security.ErrNilEvent
	}

	decision, err := p.evaluator.Evaluate(p.Policy, edited, security.Session{
		PolicyHash: p.PolicyHash,
		Now:        now,
		Nonces:     p.nonces,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s under %s: %w", logged.ID, p.ID, err)
	}

	return &WhatIfResult{
		Choice: choices[c],
		Event:  edited,
		Before: before,
		After: PolicyDecision{
			PolicyID:           p.ID,
			Decision:           decision.Decision,
			SelectedRuleID:     decision.SelectedRuleID,
			MatchedRuleCount:   decision.MatchedRuleCount,
			ReasonCodes:        decision.ReasonCodes,
			EnforcementActions: enforcement.Build(p.Policy, decision, edited),
		},
	}, nil
}
