package tui

import (
	"time"

	"github.com/safedep/covenant/core/enforcement"
	"github.com/safedep/covenant/core/security"
	"github.com/safedep/covenant/simulator"
)

// ValidationView represents the result of validating a policy file.
type ValidationView struct {
	Valid      bool        `json:"valid"`
	Path       string      `json:"path"`
	PolicyHash string      `json:"policy_hash,omitempty"`
	Issues     []IssueView `json:"issues,omitempty"`
}

// IssueView is one structural problem found in a policy.
type IssueView struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// EvaluationView represents one event decided under one policy.
type EvaluationView struct {
	*security.Decision
	EnforcementActions []enforcement.Action `json:"enforcement_actions"`
	RecordID           string               `json:"record_id,omitempty"`

	PolicyPath string `json:"-"`
	PolicyHash string `json:"-"`
	Action     string `json:"-"`
}

// SimulationView represents a completed or stored simulation run.
type SimulationView struct {
	Run     *simulator.Run
	RunID   string
	SavedAt time.Time
	Outputs []string
}

// RunView represents a stored run for listing.
type RunView struct {
	ID               string    `json:"id"`
	ShortID          string    `json:"short_id"`
	CreatedAt        time.Time `json:"created_at"`
	Seed             string    `json:"seed"`
	Profile          string    `json:"profile"`
	EventCount       int       `json:"event_count"`
	AttestationMode  string    `json:"attestation_mode"`
	PolicyIDs        []string  `json:"policy_ids"`
	DisagreementRate float64   `json:"disagreement_rate"`
}

// EvaluationRecordView represents a stored single event evaluation.
type EvaluationRecordView struct {
	ID          string    `json:"id"`
	ShortID     string    `json:"short_id"`
	CreatedAt   time.Time `json:"created_at"`
	PolicyPath  string    `json:"policy_path"`
	Action      string    `json:"action"`
	ActorID     string    `json:"actor_id"`
	Decision    string    `json:"decision"`
	ReasonCodes []string  `json:"reason_codes"`
}

// PruneView represents the result of applying the retention policy.
type PruneView struct {
	RetentionDays      int       `json:"retention_days"`
	Cutoff             time.Time `json:"cutoff"`
	DryRun             bool      `json:"dry_run"`
	RunsDeleted        int       `json:"runs_deleted"`
	EvaluationsDeleted int       `json:"evaluations_deleted"`
}

// DiffView represents a unified diff of two runs' decision timelines.
type DiffView struct {
	Left      string `json:"left"`
	Right     string `json:"right"`
	Identical bool   `json:"identical"`
	Added     int    `json:"added"`
	Removed   int    `json:"removed"`
	Content   string `json:"content"`
}

// StatusView represents the tool status.
type StatusView struct {
	Version  string           `json:"version"`
	Database DatabaseView     `json:"database"`
	Config   ConfigStatusView `json:"config"`
}

// DatabaseView represents database information.
type DatabaseView struct {
	Location        string    `json:"location"`
	SizeBytes       int64     `json:"size_bytes"`
	SizeHuman       string    `json:"size_human"`
	RunCount        int       `json:"run_count"`
	EvaluationCount int       `json:"evaluation_count"`
	OldestRun       time.Time `json:"oldest_run"`
	NewestRun       time.Time `json:"newest_run"`
}

// ConfigStatusView represents configuration status.
type ConfigStatusView struct {
	Location        string    `json:"location"`
	PolicyPath      string    `json:"policy_path"`
	Profile         string    `json:"profile"`
	RetentionDays   int       `json:"retention_days"`
	RunsToClean     int       `json:"runs_to_clean"`
	RetentionCutoff time.Time `json:"retention_cutoff"`
}

// ConfigView represents configuration for display.
type ConfigView struct {
	Location string                 `json:"location"`
	Values   map[string]interface{} `json:"values"`
}

// VersionView represents build information.
type VersionView struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}
