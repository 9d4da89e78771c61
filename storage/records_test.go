package storage

import (
	"context"
	"testing"
	"time"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/core/security"
	"github.com/safedep/covenant/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordsPolicy = `spec_version: 1.0.0
defaults:
  unmatched: warn
rules:
  - id: humans
    actor: human
    action: "*"
    outcome: allow
`

func simulateRun(t *testing.T) *simulator.Run {
	t.Helper()

	p, hash, err := policy.Parse([]byte(recordsPolicy))
	require.NoError(t, err)

	run, err := simulator.Simulate(simulator.RunOptions{
		Options: simulator.Options{
			Seed:      simulator.String("records"),
			Count:     simulator.Float(20),
			StartTime: "2026-01-01T00:00:00Z",
		},
		Policies: []simulator.PolicyEntry{{ID: "humans", Policy: p, PolicyHash: hash}},
	})
	require.NoError(t, err)
	return run
}

func TestNewRunRecord(t *testing.T) {
	run := simulateRun(t)
	createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	record, decisions, err := NewRunRecord(run, simulator.AttestationSimulated, createdAt)
	require.NoError(t, err)

	assert.Equal(t, "records", record.Seed)
	assert.Equal(t, "balanced", record.Profile)
	assert.Equal(t, 20, record.EventCount)
	assert.Equal(t, "simulated", record.AttestationMode)
	assert.Equal(t, []string{"humans"}, record.PolicyIDs)
	assert.Equal(t, createdAt, record.CreatedAt)
	require.Len(t, decisions, 20)
	assert.Equal(t, record.ID, decisions[0].RunID)
	assert.Equal(t, "evt-000001", decisions[0].EventID)

	decoded, err := record.DecodeArtifact()
	require.NoError(t, err)
	assert.Equal(t, run.Config.Seed, decoded.Config.Seed)
	assert.Equal(t, run.Config.EventWeights, decoded.Config.EventWeights)
	assert.Equal(t, run.Metrics.ByPolicy["humans"].Totals, decoded.Metrics.ByPolicy["humans"].Totals)
	require.Len(t, decoded.Logs, 20)
	assert.Equal(t, run.Logs[5].Decisions[0].Decision, decoded.Logs[5].Decisions[0].Decision)
}

func TestNewRunRecord_RoundTripsThroughStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	record, decisions, err := NewRunRecord(simulateRun(t), simulator.AttestationSimulated, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, record, decisions))

	stored, err := store.GetRun(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	decoded, err := stored.DecodeArtifact()
	require.NoError(t, err)
	assert.Len(t, decoded.Events, 20)

	rows, err := store.GetRunDecisions(ctx, record.ID, "humans")
	require.NoError(t, err)
	assert.Len(t, rows, 20)
}

func TestNewEvaluationRecord(t *testing.T) {
	ev := &events.Event{
		Action: policy.ActionIssueComment,
		Actor:  events.Actor{ID: "alice", Kind: policy.ActorHuman},
	}
	d := &security.Decision{Decision: policy.OutcomeAllow, ReasonCodes: []string{"rule.selected.humans"}}

	rec, err := NewEvaluationRecord("covenant.yml", "abc", ev, d, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "issue.comment", rec.Action)
	assert.Equal(t, "alice", rec.ActorID)
	assert.Equal(t, "allow", rec.Decision)
	assert.Contains(t, string(rec.Event), `"action":"issue.comment"`)
}
