package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/security"
	"github.com/safedep/covenant/simulator"
)

// NewRunRecord flattens a simulation run into a stored run and its
// decision rows.
func NewRunRecord(run *simulator.Run, mode simulator.AttestationMode, createdAt time.Time) (*Run, []*DecisionRecord, error) {
	var artifact bytes.Buffer
	if err := simulator.ExportJSON(&artifact, run); err != nil {
		return nil, nil, fmt.Errorf("failed to encode run: %w", err)
	}

	record := &Run{
		ID:               uuid.New(),
		CreatedAt:        createdAt.UTC(),
		Seed:             run.Config.Seed,
		Profile:          string(run.Config.Profile),
		EventCount:       len(run.Events),
		AttestationMode:  string(mode),
		PolicyIDs:        run.Metrics.CrossPolicy.PolicyIDs,
		DisagreementRate: run.Metrics.CrossPolicy.DisagreementRate,
		Artifact:         artifact.Bytes(),
	}

	decisions := make([]*DecisionRecord, 0, len(run.Logs)*len(run.Policies))
	for _, entry := range run.Logs {
		for _, d := range entry.Decisions {
			decisions = append(decisions, &DecisionRecord{
				RunID:          record.ID,
				EventID:        entry.ID,
				EventIndex:     entry.Index,
				Timestamp:      entry.Timestamp,
				PolicyID:       d.PolicyID,
				Decision:       d.Decision.String(),
				SelectedRuleID: d.SelectedRuleID,
				ReasonCodes:    d.ReasonCodes,
			})
		}
	}

	return record, decisions, nil
}

// DecodeArtifact parses the stored JSON export of a run.
func (r *Run) DecodeArtifact() (*simulator.Run, error) {
	var run simulator.Run
	if err := json.Unmarshal(r.Artifact, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", r.ID, err)
	}
	return &run, nil
}

// NewEvaluationRecord captures a single event evaluation.
func NewEvaluationRecord(policyPath, policyHash string, ev *events.Event, d *security.Decision, createdAt time.Time) (*Evaluation, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	return &Evaluation{
		ID:          uuid.New(),
		CreatedAt:   createdAt.UTC(),
		PolicyPath:  policyPath,
		PolicyHash:  policyHash,
		Action:      ev.Action,
		ActorID:     ev.Actor.ID,
		Decision:    d.Decision.String(),
		ReasonCodes: d.ReasonCodes,
		Event:       data,
	}, nil
}
