// Package storage persists simulation runs and evaluation records.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunStore defines the interface for storing and querying simulation runs.
type RunStore interface {
	// SaveRun persists a run with its per-event decisions.
	SaveRun(ctx context.Context, run *Run, decisions []*DecisionRecord) error

	// GetRun retrieves a run by ID. A missing run returns nil, nil.
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)

	// GetRunByPrefix retrieves a run by ID prefix.
	GetRunByPrefix(ctx context.Context, prefix string) (*Run, error)

	// QueryRuns retrieves runs matching the filter, newest first.
	QueryRuns(ctx context.Context, filter *RunFilter) ([]*Run, error)

	// CountRuns returns the count of runs matching the filter.
	CountRuns(ctx context.Context, filter *RunFilter) (int, error)

	// GetRunDecisions retrieves a run's decisions in timeline order. An
	// empty policyID returns every policy's decisions.
	GetRunDecisions(ctx context.Context, runID uuid.UUID, policyID string) ([]*DecisionRecord, error)

	// DeleteRunsBefore deletes runs created before the given time.
	DeleteRunsBefore(ctx context.Context, before time.Time) (int, error)

	// CountRunsBefore returns the count of runs created before the given time.
	CountRunsBefore(ctx context.Context, before time.Time) (int, error)
}

// EvaluationStore defines the interface for single event evaluations.
type EvaluationStore interface {
	// SaveEvaluation persists an evaluation record.
	SaveEvaluation(ctx context.Context, eval *Evaluation) error

	// QueryEvaluations retrieves evaluations matching the filter, newest first.
	QueryEvaluations(ctx context.Context, filter *EvaluationFilter) ([]*Evaluation, error)

	// DeleteEvaluationsBefore deletes evaluations created before the given time.
	DeleteEvaluationsBefore(ctx context.Context, before time.Time) (int, error)

	// CountEvaluationsBefore returns the count of evaluations created before the given time.
	CountEvaluationsBefore(ctx context.Context, before time.Time) (int, error)
}

// Store combines all storage interfaces.
type Store interface {
	RunStore
	EvaluationStore

	// Init initializes the database schema.
	Init(ctx context.Context) error

	// GetDatabaseInfo returns database statistics.
	GetDatabaseInfo(ctx context.Context) (*DatabaseInfo, error)

	// Close closes the database connection.
	Close() error
}

// Run is a stored simulation run. Artifact holds the full JSON export.
type Run struct {
	ID               uuid.UUID
	CreatedAt        time.Time
	Seed             string
	Profile          string
	EventCount       int
	AttestationMode  string
	PolicyIDs        []string
	DisagreementRate float64
	Artifact         []byte
}

// DecisionRecord is one policy's decision on one event of a stored run.
type DecisionRecord struct {
	RunID          uuid.UUID
	EventID        string
	EventIndex     int
	Timestamp      string
	PolicyID       string
	Decision       string
	SelectedRuleID string
	ReasonCodes    []string
}

// Evaluation is a recorded single event evaluation.
type Evaluation struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	PolicyPath  string
	PolicyHash  string
	Action      string
	ActorID     string
	Decision    string
	ReasonCodes []string
	Event       []byte
}

// DatabaseInfo contains information about the database.
type DatabaseInfo struct {
	Path            string
	SizeBytes       int64
	RunCount        int
	EvaluationCount int
	OldestRun       time.Time
	NewestRun       time.Time
}
