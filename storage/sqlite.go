package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const (
	runsTable        = "runs"
	decisionsTable   = "decisions"
	evaluationsTable = "evaluations"

	// Rows per multi-row insert, well under SQLite's bound variable limit.
	insertBatchSize = 500
)

var (
	runColumns = []string{
		"id", "created_at", "seed", "profile", "event_count",
		"attestation_mode", "policy_ids", "disagreement_rate", "artifact",
	}
	decisionColumns = []string{
		"run_id", "seq", "event_id", "event_index", "timestamp",
		"policy_id", "decision", "selected_rule_id", "reason_codes",
	}
	evaluationColumns = []string{
		"id", "created_at", "policy_path", "policy_hash", "action",
		"actor_id", "decision", "reason_codes", "event",
	}
)

// SQLiteStore implements Store using SQLite through the ent SQL driver.
type SQLiteStore struct {
	drv  *entsql.Driver
	path string
}

// NewSQLiteStore creates a new SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{
		drv:  entsql.OpenDB(dialect.SQLite, db),
		path: path,
	}, nil
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// schemaStatements returns the DDL for every table and index.
func schemaStatements() []entsql.Querier {
	b := builder()
	return []entsql.Querier{
		b.CreateTable(runsTable).IfNotExists().
			Columns(
				entsql.Column("id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("created_at").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("seed").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("profile").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("event_count").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("attestation_mode").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("policy_ids").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("disagreement_rate").Type("REAL").Attr("NOT NULL"),
				entsql.Column("artifact").Type("BLOB").Attr("NOT NULL"),
			).
			PrimaryKey("id"),
		b.CreateIndex("idx_runs_created_at").IfNotExists().Table(runsTable).Columns("created_at"),

		b.CreateTable(decisionsTable).IfNotExists().
			Columns(
				entsql.Column("run_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("seq").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("event_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("event_index").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("timestamp").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("policy_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("decision").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("selected_rule_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("reason_codes").Type("TEXT").Attr("NOT NULL"),
			).
			PrimaryKey("run_id", "seq"),
		b.CreateIndex("idx_decisions_policy").IfNotExists().Table(decisionsTable).Columns("run_id", "policy_id"),

		b.CreateTable(evaluationsTable).IfNotExists().
			Columns(
				entsql.Column("id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("created_at").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("policy_path").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("policy_hash").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("action").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("actor_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("decision").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("reason_codes").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("event").Type("TEXT").Attr("NOT NULL"),
			).
			PrimaryKey("id"),
		b.CreateIndex("idx_evaluations_created_at").IfNotExists().Table(evaluationsTable).Columns("created_at"),
	}
}

// Init initializes the database schema.
func (s *SQLiteStore) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements() {
		query, args := stmt.Query()
		if err := s.drv.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.drv.Close()
}

// SaveRun persists a run with its decisions in one transaction. Decisions
// keep the order they are given in.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, decisions []*DecisionRecord) error {
	policyIDs, err := json.Marshal(nonNil(run.PolicyIDs))
	if err != nil {
		return fmt.Errorf("failed to encode policy ids: %w", err)
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := builder().Insert(runsTable).
		Columns(runColumns...).
		Values(run.ID.String(), run.CreatedAt.UnixMilli(), run.Seed, run.Profile, run.EventCount,
			run.AttestationMode, string(policyIDs), run.DisagreementRate, run.Artifact).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for start := 0; start < len(decisions); start += insertBatchSize {
		end := min(start+insertBatchSize, len(decisions))

		insert := builder().Insert(decisionsTable).Columns(decisionColumns...)
		for i, d := range decisions[start:end] {
			reasons, err := json.Marshal(nonNil(d.ReasonCodes))
			if err != nil {
				return fmt.Errorf("failed to encode reason codes: %w", err)
			}
			insert.Values(run.ID.String(), start+i, d.EventID, d.EventIndex, d.Timestamp,
				d.PolicyID, d.Decision, d.SelectedRuleID, string(reasons))
		}

		query, args := insert.Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("failed to save decisions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	sel := builder().Select(runColumns...).
		From(builder().Table(runsTable)).
		Where(entsql.EQ("id", id.String()))

	runs, err := s.queryRuns(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// GetRunByPrefix retrieves the newest run whose ID starts with prefix.
func (s *SQLiteStore) GetRunByPrefix(ctx context.Context, prefix string) (*Run, error) {
	sel := builder().Select(runColumns...).
		From(builder().Table(runsTable)).
		Where(entsql.HasPrefix("id", strings.ToLower(prefix))).
		OrderBy(entsql.Desc("created_at")).
		Limit(1)

	runs, err := s.queryRuns(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to get run by prefix: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// QueryRuns retrieves runs matching the given filter.
func (s *SQLiteStore) QueryRuns(ctx context.Context, filter *RunFilter) ([]*Run, error) {
	sel := builder().Select(runColumns...).From(builder().Table(runsTable))
	applyRunFilter(sel, filter)
	sel.OrderBy(entsql.Desc("created_at"))

	if filter != nil && filter.Limit > 0 {
		sel.Limit(filter.Limit)
		if filter.Offset > 0 {
			sel.Offset(filter.Offset)
		}
	}

	runs, err := s.queryRuns(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return runs, nil
}

// CountRuns returns the count of runs matching the given filter.
func (s *SQLiteStore) CountRuns(ctx context.Context, filter *RunFilter) (int, error) {
	sel := builder().Select(entsql.Count("*")).From(builder().Table(runsTable))
	applyRunFilter(sel, filter)

	count, err := s.count(ctx, sel)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// GetRunDecisions retrieves a run's decisions ordered by event index and
// then by policy position in the run.
func (s *SQLiteStore) GetRunDecisions(ctx context.Context, runID uuid.UUID, policyID string) ([]*DecisionRecord, error) {
	sel := builder().Select("event_id", "event_index", "timestamp", "policy_id",
		"decision", "selected_rule_id", "reason_codes").
		From(builder().Table(decisionsTable)).
		Where(entsql.EQ("run_id", runID.String()))
	if policyID != "" {
		sel.Where(entsql.EQ("policy_id", policyID))
	}
	sel.OrderBy("event_index", "seq")

	query, args := sel.Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*DecisionRecord
	for rows.Next() {
		d := &DecisionRecord{RunID: runID}
		var reasons string
		if err := rows.Scan(&d.EventID, &d.EventIndex, &d.Timestamp, &d.PolicyID,
			&d.Decision, &d.SelectedRuleID, &reasons); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		if err := json.Unmarshal([]byte(reasons), &d.ReasonCodes); err != nil {
			return nil, fmt.Errorf("failed to decode reason codes: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// DeleteRunsBefore deletes runs created before the given time together
// with their decisions.
func (s *SQLiteStore) DeleteRunsBefore(ctx context.Context, before time.Time) (int, error) {
	b := builder()
	expired := entsql.LT("created_at", before.UnixMilli())

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := b.Delete(decisionsTable).
		Where(entsql.In("run_id", b.Select("id").From(b.Table(runsTable)).Where(expired))).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return 0, fmt.Errorf("failed to delete decisions: %w", err)
	}

	var res entsql.Result
	query, args = b.Delete(runsTable).Where(entsql.LT("created_at", before.UnixMilli())).Query()
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return int(n), nil
}

// CountRunsBefore returns the count of runs created before the given time.
func (s *SQLiteStore) CountRunsBefore(ctx context.Context, before time.Time) (int, error) {
	sel := builder().Select(entsql.Count("*")).
		From(builder().Table(runsTable)).
		Where(entsql.LT("created_at", before.UnixMilli()))

	count, err := s.count(ctx, sel)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// SaveEvaluation persists an evaluation record.
func (s *SQLiteStore) SaveEvaluation(ctx context.Context, eval *Evaluation) error {
	reasons, err := json.Marshal(nonNil(eval.ReasonCodes))
	if err != nil {
		return fmt.Errorf("failed to encode reason codes: %w", err)
	}

	query, args := builder().Insert(evaluationsTable).
		Columns(evaluationColumns...).
		Values(eval.ID.String(), eval.CreatedAt.UnixMilli(), eval.PolicyPath, eval.PolicyHash,
			eval.Action, eval.ActorID, eval.Decision, string(reasons), string(eval.Event)).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// QueryEvaluations retrieves evaluations matching the given filter.
func (s *SQLiteStore) QueryEvaluations(ctx context.Context, filter *EvaluationFilter) ([]*Evaluation, error) {
	sel := builder().Select(evaluationColumns...).From(builder().Table(evaluationsTable))
	if filter != nil {
		if filter.Since != nil {
			sel.Where(entsql.GTE("created_at", filter.Since.UnixMilli()))
		}
		if filter.Decision != "" {
			sel.Where(entsql.EQ("decision", filter.Decision))
		}
		if filter.Action != "" {
			sel.Where(entsql.EQ("action", filter.Action))
		}
	}
	sel.OrderBy(entsql.Desc("created_at"))
	if filter != nil && filter.Limit > 0 {
		sel.Limit(filter.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evals []*Evaluation
	for rows.Next() {
		var (
			e         Evaluation
			id        string
			createdAt int64
			reasons   string
			event     string
		)
		if err := rows.Scan(&id, &createdAt, &e.PolicyPath, &e.PolicyHash, &e.Action,
			&e.ActorID, &e.Decision, &reasons, &event); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid evaluation id %q: %w", id, err)
		}
		e.ID = parsed
		if err := json.Unmarshal([]byte(reasons), &e.ReasonCodes); err != nil {
			return nil, fmt.Errorf("failed to decode reason codes: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		e.Event = []byte(event)
		evals = append(evals, &e)
	}
	return evals, rows.Err()
}

// DeleteEvaluationsBefore deletes evaluations created before the given time.
func (s *SQLiteStore) DeleteEvaluationsBefore(ctx context.Context, before time.Time) (int, error) {
	var res entsql.Result
	query, args := builder().Delete(evaluationsTable).
		Where(entsql.LT("created_at", before.UnixMilli())).
		Query()
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("failed to delete evaluations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted evaluations: %w", err)
	}
	return int(n), nil
}

// CountEvaluationsBefore returns the count of evaluations created before the given time.
func (s *SQLiteStore) CountEvaluationsBefore(ctx context.Context, before time.Time) (int, error) {
	sel := builder().Select(entsql.Count("*")).
		From(builder().Table(evaluationsTable)).
		Where(entsql.LT("created_at", before.UnixMilli()))

	count, err := s.count(ctx, sel)
	if err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return count, nil
}

// GetDatabaseInfo returns information about the database.
func (s *SQLiteStore) GetDatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	info := &DatabaseInfo{
		Path: s.path,
	}

	if stat, err := os.Stat(s.path); err == nil {
		info.SizeBytes = stat.Size()
	}

	query, args := builder().Select(entsql.Count("*"), entsql.Min("created_at"), entsql.Max("created_at")).
		From(builder().Table(runsTable)).
		Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	var oldest, newest sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&info.RunCount, &oldest, &newest); err != nil {
			return nil, fmt.Errorf("failed to scan run counts: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	if oldest.Valid {
		info.OldestRun = time.UnixMilli(oldest.Int64).UTC()
	}
	if newest.Valid {
		info.NewestRun = time.UnixMilli(newest.Int64).UTC()
	}

	count, err := s.count(ctx, builder().Select(entsql.Count("*")).From(builder().Table(evaluationsTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to count evaluations: %w", err)
	}
	info.EvaluationCount = count

	return info, nil
}

func (s *SQLiteStore) queryRuns(ctx context.Context, sel *entsql.Selector) ([]*Run, error) {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(&rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) count(ctx context.Context, sel *entsql.Selector) (int, error) {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

func applyRunFilter(sel *entsql.Selector, filter *RunFilter) {
	if filter == nil {
		return
	}
	if filter.Since != nil {
		sel.Where(entsql.GTE("created_at", filter.Since.UnixMilli()))
	}
	if filter.Until != nil {
		sel.Where(entsql.LT("created_at", filter.Until.UnixMilli()))
	}
	if filter.Profile != "" {
		sel.Where(entsql.EQ("profile", filter.Profile))
	}
	if filter.PolicyID != "" {
		sel.Where(entsql.ExprP("EXISTS (SELECT 1 FROM json_each(policy_ids) WHERE json_each.value = ?)", filter.PolicyID))
	}
}

func scanRun(rows *entsql.Rows) (*Run, error) {
	var (
		run       Run
		id        string
		createdAt int64
		policyIDs string
	)
	if err := rows.Scan(&id, &createdAt, &run.Seed, &run.Profile, &run.EventCount,
		&run.AttestationMode, &policyIDs, &run.DisagreementRate, &run.Artifact); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.ID = parsed
	run.CreatedAt = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(policyIDs), &run.PolicyIDs); err != nil {
		return nil, fmt.Errorf("failed to decode policy ids: %w", err)
	}
	return &run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Store = (*SQLiteStore)(nil)
