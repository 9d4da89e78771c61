package storage

import "time"

const defaultQueryLimit = 100

// RunFilter provides filtering criteria for querying runs.
type RunFilter struct {
	// Since filters runs created at or after this time.
	Since *time.Time
	// Until filters runs created before this time.
	Until *time.Time
	// Profile filters by simulation profile.
	Profile string
	// PolicyID filters runs that replayed the given policy.
	PolicyID string
	// Limit is the maximum number of results.
	Limit int
	// Offset is the number of results to skip.
	Offset int
}

// NewRunFilter creates a new RunFilter with default values.
func NewRunFilter() *RunFilter {
	return &RunFilter{
		Limit: defaultQueryLimit,
	}
}

// WithSince sets the Since filter.
func (f *RunFilter) WithSince(t time.Time) *RunFilter {
	f.Since = &t
	return f
}

// WithUntil sets the Until filter.
func (f *RunFilter) WithUntil(t time.Time) *RunFilter {
	f.Until = &t
	return f
}

// WithProfile sets the Profile filter.
func (f *RunFilter) WithProfile(profile string) *RunFilter {
	f.Profile = profile
	return f
}

// WithPolicy sets the PolicyID filter.
func (f *RunFilter) WithPolicy(policyID string) *RunFilter {
	f.PolicyID = policyID
	return f
}

// WithLimit sets the Limit.
func (f *RunFilter) WithLimit(limit int) *RunFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the Offset.
func (f *RunFilter) WithOffset(offset int) *RunFilter {
	f.Offset = offset
	return f
}

// Today returns a filter for runs created since local midnight.
func Today() *RunFilter {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return NewRunFilter().WithSince(midnight)
}

// EvaluationFilter provides filtering criteria for evaluation records.
type EvaluationFilter struct {
	Since    *time.Time
	Decision string
	Action   string
	Limit    int
}

// NewEvaluationFilter creates a new EvaluationFilter with default values.
func NewEvaluationFilter() *EvaluationFilter {
	return &EvaluationFilter{Limit: defaultQueryLimit}
}
