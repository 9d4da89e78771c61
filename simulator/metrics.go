package simulator

import (
	"slices"
	"strings"

	"github.com/safedep/covenant/core/policy"
)

// TopReasonLimit caps the rejection reasons reported per policy.
const TopReasonLimit = 10

// Totals counts decisions by outcome.
type Totals struct {
	Allow int `json:"allow"`
	Warn  int `json:"warn"`
	Deny  int `json:"deny"`
}

func (t *Totals) count(o policy.Outcome) {
	switch o {
	case policy.OutcomeAllow:
		t.Allow++
	case policy.OutcomeWarn:
		t.Warn++
	case policy.OutcomeDeny:
		t.Deny++
	}
}

// Sum returns the number of counted decisions.
func (t Totals) Sum() int {
	return t.Allow + t.Warn + t.Deny
}

// Rates are the outcome shares of all counted decisions.
type Rates struct {
	Allow float64 `json:"allow"`
	Warn  float64 `json:"warn"`
	Deny  float64 `json:"deny"`
}

// SeriesPoint is the cumulative state after one event.
type SeriesPoint struct {
	Index     int     `json:"index"`
	Timestamp string  `json:"timestamp"`
	Allow     int     `json:"allow"`
	Warn      int     `json:"warn"`
	Deny      int     `json:"deny"`
	DenyRate  float64 `json:"deny_rate"`
}

// ReasonCount is a reason code with its occurrence count.
type ReasonCount struct {
	ReasonCode string `json:"reason_code"`
	Count      int    `json:"count"`
}

// PolicyMetrics aggregates one policy's decisions over a replay.
type PolicyMetrics struct {
	Totals              Totals         `json:"totals"`
	ReasonCounts        map[string]int `json:"reason_counts"`
	Series              []SeriesPoint  `json:"series"`
	TotalEvents         int            `json:"total_events"`
	Rates               Rates          `json:"rates"`
	TopRejectionReasons []ReasonCount  `json:"top_rejection_reasons"`
}

// TopReason returns the nth most frequent rejection reason.
func (m *PolicyMetrics) TopReason(n int) (ReasonCount, bool) {
	if n < 0 || n >= len(m.TopRejectionReasons) {
		return ReasonCount{}, false
	}
	return m.TopRejectionReasons[n], true
}

// CrossPolicyMetrics compares policies event by event.
type CrossPolicyMetrics struct {
	PolicyIDs         []string `json:"policy_ids"`
	DisagreementCount int      `json:"disagreement_count"`
	DisagreementRate  float64  `json:"disagreement_rate"`
	ComparedEvents    int      `json:"compared_events"`
}

// Metrics is the aggregate view of a replay.
type Metrics struct {
	ByPolicy    map[string]*PolicyMetrics `json:"by_policy"`
	CrossPolicy CrossPolicyMetrics        `json:"cross_policy"`
}

// ComputeMetrics aggregates replay logs. Only denials contribute to
// reason counts. An event counts as a disagreement when the policies
// reach more than one distinct outcome.
func ComputeMetrics(result *ReplayResult) *Metrics {
	m := &Metrics{
		ByPolicy: make(map[string]*PolicyMetrics, len(result.Policies)),
		CrossPolicy: CrossPolicyMetrics{
			PolicyIDs: make([]string, 0, len(result.Policies)),
		},
	}
	for _, ref := range result.Policies {
		m.CrossPolicy.PolicyIDs = append(m.CrossPolicy.PolicyIDs, ref.ID)
		m.ByPolicy[ref.ID] = &PolicyMetrics{
			ReasonCounts:        map[string]int{},
			Series:              []SeriesPoint{},
			TopRejectionReasons: []ReasonCount{},
		}
	}

	for i, entry := range result.Logs {
		if disagrees(entry.Decisions) {
			m.CrossPolicy.DisagreementCount++
		}

		total := i + 1
		for _, d := range entry.Decisions {
			pm, ok := m.ByPolicy[d.PolicyID]
			if !ok {
				continue
			}
			pm.Totals.count(d.Decision)
			if d.Decision == policy.OutcomeDeny {
				for _, code := range d.ReasonCodes {
					pm.ReasonCounts[code]++
				}
			}
			pm.Series = append(pm.Series, SeriesPoint{
				Index:     total,
				Timestamp: entry.Timestamp,
				Allow:     pm.Totals.Allow,
				Warn:      pm.Totals.Warn,
				Deny:      pm.Totals.Deny,
				DenyRate:  float64(pm.Totals.Deny) / float64(total),
			})
		}
	}

	for _, pm := range m.ByPolicy {
		pm.TotalEvents = pm.Totals.Sum()
		if pm.TotalEvents > 0 {
			n := float64(pm.TotalEvents)
			pm.Rates = Rates{
				Allow: float64(pm.Totals.Allow) / n,
				Warn:  float64(pm.Totals.Warn) / n,
				Deny:  float64(pm.Totals.Deny) / n,
			}
		}
		pm.TopRejectionReasons = topReasons(pm.ReasonCounts, TopReasonLimit)
	}

	m.CrossPolicy.ComparedEvents = len(result.Logs)
	if len(result.Logs) > 0 {
		m.CrossPolicy.DisagreementRate = float64(m.CrossPolicy.DisagreementCount) / float64(len(result.Logs))
	}
	return m
}

func disagrees(decisions []PolicyDecision) bool {
	for _, d := range decisions[min(1, len(decisions)):] {
		if d.Decision != decisions[0].Decision {
			return true
		}
	}
	return false
}

// topReasons orders by count descending, then by reason code.
func topReasons(counts map[string]int, limit int) []ReasonCount {
	out := make([]ReasonCount, 0, len(counts))
	for code, count := range counts {
		out = append(out, ReasonCount{ReasonCode: code, Count: count})
	}
	slices.SortFunc(out, func(a, b ReasonCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.ReasonCode, b.ReasonCode)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
