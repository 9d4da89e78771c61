package simulator

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/simulator/prng"
)

// TimestampLayout is the UTC millisecond layout of generated timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const minStep = time.Second

var startTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TimelineEvent is one generated event with its timeline metadata.
type TimelineEvent struct {
	ID              string        `json:"id"`
	Index           int           `json:"index"`
	Timestamp       string        `json:"timestamp"`
	SimulatorType   string        `json:"simulator_type"`
	CanonicalAction string        `json:"canonical_action"`
	FaultsApplied   []string      `json:"faults_applied"`
	Event           *events.Event `json:"event"`
}

// Timeline is the generator output.
type Timeline struct {
	Config  Config          `json:"config"`
	Mapping Mapping         `json:"mapping"`
	Events  []TimelineEvent `json:"events"`
}

// Generate builds a deterministic event timeline. The same options always
// yield the same timeline; now is consulted only when no valid start time
// is configured and defaults to time.Now.
func Generate(opts Options, now func() time.Time) (*Timeline, error) {
	if now == nil {
		now = time.Now
	}

	cfg := Normalize(opts)
	mapping := MergeMapping(cfg.MappingOverrides)
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	rng := prng.New(cfg.Seed)
	start := startTime(cfg.StartTime, now)
	step := stepDuration(cfg.Hours, cfg.Count)

	timeline := &Timeline{
		Config:  cfg,
		Mapping: mapping,
		Events:  make([]TimelineEvent, 0, cfg.Count),
	}

	for index := 0; index < cfg.Count; index++ {
		simType, ok := rng.Weighted(cfg.EventWeights.Entries())
		if !ok {
			simType = TypeCodeEvolution
		}
		action := mapping.Action(simType)
		actor := pickActor(rng, cfg.ActorWeights)
		branch, ok := prng.Pick(rng, TargetBranches)
		if !ok {
			branch = "main"
		}
		labels := baseLabels(simType)
		timestamp := start.Add(time.Duration(index) * step).UTC().Format(TimestampLayout)

		visibility, ok := prng.Pick(rng, RepositoryVisibilities)
		if !ok {
			visibility = "public"
		}

		seq := fmt.Sprintf("%06d", index+1)
		ev := &events.Event{
			Action:     action,
			Actor:      actor,
			Repository: events.Repository{Name: simRepository, Visibility: visibility},
			Target: events.Target{
				Branch:     branch,
				Labels:     labels,
				ThreadMode: events.ThreadModeFromLabels(labels),
			},
			Evidence: events.Evidence{
				policy.EvidenceModel:        "gpt-5",
				policy.EvidenceProvider:     "openai",
				policy.EvidencePromptRecord: "prompt://sim/" + seq,
				policy.EvidenceTestProof:    "tests://sim/" + seq,
			},
			Attestation: baseAttestation(actor, action, timestamp, seq, branch),
			Source:      &events.Source{SimulatorType: simType},
		}

		faults := applyFaults(ev, rng, cfg.FaultRates)

		timeline.Events = append(timeline.Events, TimelineEvent{
			ID:              "evt-" + seq,
			Index:           index,
			Timestamp:       timestamp,
			SimulatorType:   simType,
			CanonicalAction: action,
			FaultsApplied:   faults,
			Event:           ev,
		})
	}

	return timeline, nil
}

// startTime parses the configured start. Times without a zone are UTC.
func startTime(configured *string, now func() time.Time) time.Time {
	if configured != nil {
		for _, layout := range startTimeLayouts {
			if t, err := time.Parse(layout, *configured); err == nil {
				return t.Truncate(time.Millisecond)
			}
		}
	}
	return time.UnixMilli(now().UnixMilli())
}

func stepDuration(hours, count int) time.Duration {
	total := float64(hours) * float64(time.Hour/time.Millisecond)
	step := time.Duration(math.Floor(total/float64(max(count, 1))+0.5)) * time.Millisecond
	return max(step, minStep)
}

func pickActor(rng *prng.Rand, weights Weights) events.Actor {
	kind, ok := rng.Weighted(weights.Entries())
	if !ok {
		kind = string(policy.ActorHuman)
	}
	id, ok := prng.Pick(rng, ActorPool[policy.ActorKind(kind)])
	if !ok {
		id = kind + "-1"
	}
	return events.Actor{ID: id, Kind: policy.ActorKind(kind)}
}

func baseLabels(simType string) []string {
	entry, ok := LookupType(simType)
	if !ok {
		return []string{}
	}
	return slices.Clone(entry.DefaultLabels)
}

func baseAttestation(actor events.Actor, action, timestamp, seq, branch string) *events.Attestation {
	if actor.Kind != policy.ActorAgent {
		return nil
	}
	return &events.Attestation{
		Version:      policy.AttestationContractV1,
		ActorID:      actor.ID,
		Action:       action,
		Repository:   simRepository,
		Ref:          "refs/heads/" + branch,
		PolicySHA256: SimPolicyHashSentinel,
		Timestamp:    timestamp,
		Nonce:        "sim-" + seq,
		Signature:    simSignature,
	}
}

// applyFaults mutates ev in a fixed order. Each fault consumes draws only
// when its precondition holds, which keeps the stream stable.
func applyFaults(ev *events.Event, rng *prng.Rand, rates FaultRates) []string {
	faults := []string{}
	isAgent := ev.Actor.Kind == policy.ActorAgent

	if rng.Bool(rates.MissingEvidence) {
		if field, ok := prng.Pick(rng, ev.Evidence.Present()); ok {
			delete(ev.Evidence, field)
			faults = append(faults, FaultMissingEvidence+":"+field)
		}
	}

	if isAgent && strings.HasPrefix(ev.Action, "issue.") && rng.Bool(rates.IneligibleLabel) {
		ev.Target.Labels = slices.DeleteFunc(ev.Target.Labels, func(label string) bool {
			return slices.Contains(eligibleLabels, label)
		})
		faults = append(faults, FaultIneligibleLabel)
	}

	if strings.HasPrefix(ev.Action, "conversation.") && rng.Bool(rates.ThreadModeMismatch) {
		if ev.Target.ThreadMode == policy.ThreadHuman {
			ev.Target.ThreadMode = policy.ThreadAgent
		} else {
			ev.Target.ThreadMode = policy.ThreadHuman
		}
		faults = append(faults, FaultThreadModeMismatch)
	}

	if isAgent && rng.Bool(rates.MissingAttestation) {
		ev.Attestation = nil
		faults = append(faults, FaultMissingAttestation)
	} else if isAgent && rng.Bool(rates.InvalidAttestation) {
		if ev.Attestation == nil {
			ev.Attestation = &events.Attestation{}
		}
		ev.Attestation.Version = "invalid.attestation"
		ev.Attestation.Signature = "invalid"
		ev.Attestation.PolicySHA256 = "mismatch"
		faults = append(faults, FaultInvalidAttestation)
	}

	return faults
}
