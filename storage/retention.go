package storage

import (
	"context"
	"fmt"
	"time"
)

// DefaultRetentionDays is the retention period used when none is configured.
const DefaultRetentionDays = 90

// RetentionPolicy defines how long runs and evaluations are kept.
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep records (0 = never delete).
	RetentionDays int
}

// RetentionResult reports what a retention pass removed, or would remove.
type RetentionResult struct {
	Cutoff             time.Time
	DryRun             bool
	RunsDeleted        int
	EvaluationsDeleted int
}

// NewRetentionPolicy creates a new RetentionPolicy with the given retention days.
func NewRetentionPolicy(days int) *RetentionPolicy {
	return &RetentionPolicy{RetentionDays: days}
}

// IsEnabled returns true if retention is enabled.
func (p *RetentionPolicy) IsEnabled() bool {
	return p.RetentionDays > 0
}

// CutoffTime returns the time before which records are expired.
// Returns zero time if retention is disabled.
func (p *RetentionPolicy) CutoffTime(now time.Time) time.Time {
	if !p.IsEnabled() {
		return time.Time{}
	}
	return now.AddDate(0, 0, -p.RetentionDays)
}

// Apply deletes expired runs and evaluations. With dryRun set it only
// counts them. A disabled policy touches nothing.
func (p *RetentionPolicy) Apply(ctx context.Context, s Store, now time.Time, dryRun bool) (*RetentionResult, error) {
	result := &RetentionResult{DryRun: dryRun}
	if !p.IsEnabled() {
		return result, nil
	}
	result.Cutoff = p.CutoffTime(now)

	var err error
	if dryRun {
		if result.RunsDeleted, err = s.CountRunsBefore(ctx, result.Cutoff); err != nil {
			return nil, err
		}
		if result.EvaluationsDeleted, err = s.CountEvaluationsBefore(ctx, result.Cutoff); err != nil {
			return nil, err
		}
		return result, nil
	}

	if result.RunsDeleted, err = s.DeleteRunsBefore(ctx, result.Cutoff); err != nil {
		return nil, fmt.Errorf("failed to expire runs: %w", err)
	}
	if result.EvaluationsDeleted, err = s.DeleteEvaluationsBefore(ctx, result.Cutoff); err != nil {
		return nil, fmt.Errorf("failed to expire evaluations: %w", err)
	}
	return result, nil
}
