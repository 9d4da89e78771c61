package simulator

import (
	"testing"

	"github.com/safedep/covenant/core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionLog(ts string, decisions ...PolicyDecision) LogEntry {
	return LogEntry{TimelineEvent: TimelineEvent{Timestamp: ts}, Decisions: decisions}
}

func TestComputeMetrics(t *testing.T) {
	result := &ReplayResult{
		Policies: []PolicyRef{{ID: "a"}, {ID: "b"}},
		Logs: []LogEntry{
			decisionLog("t1",
				PolicyDecision{PolicyID: "a", Decision: policy.OutcomeDeny, ReasonCodes: []string{"x", "y"}},
				PolicyDecision{PolicyID: "b", Decision: policy.OutcomeDeny, ReasonCodes: []string{"y"}},
			),
			decisionLog("t2",
				PolicyDecision{PolicyID: "a", Decision: policy.OutcomeWarn, ReasonCodes: []string{"z"}},
				PolicyDecision{PolicyID: "b", Decision: policy.OutcomeAllow},
			),
			decisionLog("t3",
				PolicyDecision{PolicyID: "a", Decision: policy.OutcomeDeny, ReasonCodes: []string{"y"}},
				PolicyDecision{PolicyID: "b", Decision: policy.OutcomeAllow},
			),
			decisionLog("t4",
				PolicyDecision{PolicyID: "a", Decision: policy.OutcomeAllow},
				PolicyDecision{PolicyID: "b", Decision: policy.OutcomeAllow},
			),
		},
	}

	m := ComputeMetrics(result)

	a := m.ByPolicy["a"]
	require.NotNil(t, a)
	assert.Equal(t, Totals{Allow: 1, Warn: 1, Deny: 2}, a.Totals)
	assert.Equal(t, 4, a.TotalEvents)
	assert.Equal(t, Rates{Allow: 0.25, Warn: 0.25, Deny: 0.5}, a.Rates)
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, a.ReasonCounts, "warn reasons are not counted")
	assert.Equal(t, []ReasonCount{{"y", 2}, {"x", 1}}, a.TopRejectionReasons)

	require.Len(t, a.Series, 4)
	assert.Equal(t, SeriesPoint{Index: 3, Timestamp: "t3", Allow: 0, Warn: 1, Deny: 2, DenyRate: 2.0 / 3}, a.Series[2])
	assert.Equal(t, 0.5, a.Series[3].DenyRate)

	b := m.ByPolicy["b"]
	assert.Equal(t, Totals{Allow: 3, Deny: 1}, b.Totals)

	assert.Equal(t, CrossPolicyMetrics{
		PolicyIDs:         []string{"a", "b"},
		DisagreementCount: 2,
		DisagreementRate:  0.5,
		ComparedEvents:    4,
	}, m.CrossPolicy)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(&ReplayResult{Policies: []PolicyRef{{ID: "only"}}})

	pm := m.ByPolicy["only"]
	require.NotNil(t, pm)
	assert.Zero(t, pm.TotalEvents)
	assert.Equal(t, Rates{}, pm.Rates)
	assert.Empty(t, pm.TopRejectionReasons)
	assert.NotNil(t, pm.Series)
	assert.Zero(t, m.CrossPolicy.DisagreementRate)
}

func TestTopReasons(t *testing.T) {
	counts := map[string]int{}
	for i, code := range []string{"k", "j", "i", "h", "g", "f", "e", "d", "c", "b", "a"} {
		counts[code] = 1 + i%2
	}

	top := topReasons(counts, TopReasonLimit)
	require.Len(t, top, TopReasonLimit)
	assert.Equal(t, ReasonCount{"b", 2}, top[0])
	assert.Equal(t, ReasonCount{"d", 2}, top[1])
	assert.Equal(t, ReasonCount{"a", 1}, top[5])
	assert.Equal(t, ReasonCount{"i", 1}, top[9])
}
