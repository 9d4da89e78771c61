package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	err = store.Init(ctx)
	require.NoError(t, err)

	cleanup := func() {
		err := store.Close()
		require.NoError(t, err)
	}

	return store, cleanup
}

func testRun(createdAt time.Time, profile string, policyIDs ...string) *Run {
	return &Run{
		ID:               uuid.New(),
		CreatedAt:        createdAt,
		Seed:             "1337",
		Profile:          profile,
		EventCount:       2,
		AttestationMode:  "simulated",
		PolicyIDs:        policyIDs,
		DisagreementRate: 0.5,
		Artifact:         []byte(`{"config":{}}`),
	}
}

func testDecisions(run *Run) []*DecisionRecord {
	var out []*DecisionRecord
	for i, eventID := range []string{"evt-000001", "evt-000002"} {
		for _, policyID := range run.PolicyIDs {
			out = append(out, &DecisionRecord{
				EventID:     eventID,
				EventIndex:  i,
				Timestamp:   "2026-01-01T00:00:00.000Z",
				PolicyID:    policyID,
				Decision:    "deny",
				ReasonCodes: []string{"defaults.unmatched"},
			})
		}
	}
	return out
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	run := testRun(now, "balanced", "a", "b")
	require.NoError(t, store.SaveRun(ctx, run, testDecisions(run)))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "1337", got.Seed)
	assert.Equal(t, "balanced", got.Profile)
	assert.Equal(t, 2, got.EventCount)
	assert.Equal(t, []string{"a", "b"}, got.PolicyIDs)
	assert.Equal(t, 0.5, got.DisagreementRate)
	assert.Equal(t, run.Artifact, got.Artifact)
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.GetRun(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_GetRunByPrefix(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	run := testRun(time.Now(), "balanced", "a")
	require.NoError(t, store.SaveRun(ctx, run, nil))

	got, err := store.GetRunByPrefix(ctx, run.ID.String()[:8])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)

	missing, err := store.GetRunByPrefix(ctx, "zzzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	wildcard, err := store.GetRunByPrefix(ctx, "%")
	require.NoError(t, err)
	assert.Nil(t, wildcard)
}

func TestSQLiteStore_QueryRuns(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	older := testRun(base, "balanced", "a")
	newer := testRun(base.Add(30*time.Minute), "churn", "b")
	newest := testRun(base.Add(45*time.Minute), "balanced", "a", "b")
	for _, r := range []*Run{older, newer, newest} {
		require.NoError(t, store.SaveRun(ctx, r, testDecisions(r)))
	}

	runs, err := store.QueryRuns(ctx, NewRunFilter())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, newest.ID, runs[0].ID, "newest first")
	assert.Equal(t, older.ID, runs[2].ID)

	runs, err = store.QueryRuns(ctx, NewRunFilter().WithProfile("churn"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, newer.ID, runs[0].ID)

	runs, err = store.QueryRuns(ctx, NewRunFilter().WithPolicy("a"))
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = store.QueryRuns(ctx, NewRunFilter().WithSince(base.Add(10*time.Minute)).WithLimit(1))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, newest.ID, runs[0].ID)

	runs, err = store.QueryRuns(ctx, NewRunFilter().WithLimit(1).WithOffset(1))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, newer.ID, runs[0].ID)

	count, err := store.CountRuns(ctx, NewRunFilter().WithUntil(base.Add(40*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteStore_GetRunDecisions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	run := testRun(time.Now(), "balanced", "b", "a")
	require.NoError(t, store.SaveRun(ctx, run, testDecisions(run)))

	all, err := store.GetRunDecisions(ctx, run.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "evt-000001", all[0].EventID)
	assert.Equal(t, "b", all[0].PolicyID, "insertion order within an event")
	assert.Equal(t, "a", all[1].PolicyID)
	assert.Equal(t, []string{"defaults.unmatched"}, all[0].ReasonCodes)
	assert.Equal(t, run.ID, all[0].RunID)

	onlyA, err := store.GetRunDecisions(ctx, run.ID, "a")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)
}

func TestSQLiteStore_SaveRunInBatches(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	run := testRun(time.Now(), "balanced", "a", "b")

	var decisions []*DecisionRecord
	for i := 0; i < 2*insertBatchSize+7; i++ {
		decisions = append(decisions, &DecisionRecord{
			EventID:     fmt.Sprintf("evt-%06d", i/2+1),
			EventIndex:  i / 2,
			Timestamp:   "2026-01-01T00:00:00.000Z",
			PolicyID:    run.PolicyIDs[i%2],
			Decision:    "allow",
			ReasonCodes: []string{},
		})
	}
	require.NoError(t, store.SaveRun(ctx, run, decisions))

	got, err := store.GetRunDecisions(ctx, run.ID, "")
	require.NoError(t, err)
	require.Len(t, got, len(decisions))
	for i, d := range got {
		assert.Equal(t, decisions[i].EventID, d.EventID)
		assert.Equal(t, decisions[i].PolicyID, d.PolicyID)
	}
	assert.Equal(t, []string{}, got[0].ReasonCodes)
}

func TestSQLiteStore_DeleteRunsBefore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	old := testRun(now.AddDate(0, 0, -100), "balanced", "a")
	recent := testRun(now, "balanced", "a")
	require.NoError(t, store.SaveRun(ctx, old, testDecisions(old)))
	require.NoError(t, store.SaveRun(ctx, recent, testDecisions(recent)))

	cutoff := now.AddDate(0, 0, -90)

	count, err := store.CountRunsBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := store.DeleteRunsBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	got, err := store.GetRun(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	decisions, err := store.GetRunDecisions(ctx, old.ID, "")
	require.NoError(t, err)
	assert.Empty(t, decisions, "decisions are deleted with their run")

	remaining, err := store.CountRuns(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestSQLiteStore_Evaluations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	deny := &Evaluation{
		ID:          uuid.New(),
		CreatedAt:   now,
		PolicyPath:  "covenant.yml",
		PolicyHash:  "abc",
		Action:      "pull_request.open",
		ActorID:     "ci-bot[bot]",
		Decision:    "deny",
		ReasonCodes: []string{"attestation.missing"},
		Event:       []byte(`{"action":"pull_request.open"}`),
	}
	allow := &Evaluation{
		ID:         uuid.New(),
		CreatedAt:  now.Add(-48 * time.Hour),
		PolicyPath: "covenant.yml",
		Action:     "issue.comment",
		ActorID:    "alice",
		Decision:   "allow",
		Event:      []byte(`{}`),
	}
	require.NoError(t, store.SaveEvaluation(ctx, deny))
	require.NoError(t, store.SaveEvaluation(ctx, allow))

	all, err := store.QueryEvaluations(ctx, NewEvaluationFilter())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, deny.ID, all[0].ID)
	assert.Equal(t, deny.ReasonCodes, all[0].ReasonCodes)
	assert.Equal(t, deny.Event, all[0].Event)
	assert.True(t, now.Equal(all[0].CreatedAt))
	assert.Empty(t, all[1].ReasonCodes)

	denied, err := store.QueryEvaluations(ctx, &EvaluationFilter{Decision: "deny"})
	require.NoError(t, err)
	assert.Len(t, denied, 1)

	count, err := store.CountEvaluationsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := store.DeleteEvaluationsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestSQLiteStore_GetDatabaseInfo(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	info, err := store.GetDatabaseInfo(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.RunCount)
	assert.True(t, info.OldestRun.IsZero())

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.SaveRun(ctx, testRun(now.Add(-time.Hour), "balanced", "a"), nil))
	require.NoError(t, store.SaveRun(ctx, testRun(now, "balanced", "a"), nil))

	info, err = store.GetDatabaseInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.RunCount)
	assert.Zero(t, info.EvaluationCount)
	assert.True(t, now.Add(-time.Hour).Equal(info.OldestRun))
	assert.True(t, now.Equal(info.NewestRun))
	assert.Positive(t, info.SizeBytes)
}
