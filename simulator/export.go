package simulator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{
	"policy_id",
	"total_events",
	"allow",
	"warn",
	"deny",
	"allow_rate",
	"warn_rate",
	"deny_rate",
	"top_rejection_reason_1",
	"top_rejection_reason_1_count",
	"top_rejection_reason_2",
	"top_rejection_reason_2_count",
	"top_rejection_reason_3",
	"top_rejection_reason_3_count",
}

// csvReasonColumns is the number of top rejection reasons exported.
const csvReasonColumns = 3

// ExportJSON writes the run as indented JSON.
func ExportJSON(w io.Writer, run *Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(run)
}

// ExportCSV writes one row per policy followed by the cross-policy
// summary block.
func ExportCSV(w io.Writer, m *Metrics) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, id := range m.CrossPolicy.PolicyIDs {
		pm, ok := m.ByPolicy[id]
		if !ok {
			continue
		}
		row := []string{
			id,
			strconv.Itoa(pm.TotalEvents),
			strconv.Itoa(pm.Totals.Allow),
			strconv.Itoa(pm.Totals.Warn),
			strconv.Itoa(pm.Totals.Deny),
			percent(pm.Rates.Allow),
			percent(pm.Rates.Warn),
			percent(pm.Rates.Deny),
		}
		for i := 0; i < csvReasonColumns; i++ {
			reason, _ := pm.TopReason(i)
			row = append(row, reason.ReasonCode, strconv.Itoa(reason.Count))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	summary := [][]string{
		{""},
		{"cross_policy_metric", "value"},
		{"compared_events", strconv.Itoa(m.CrossPolicy.ComparedEvents)},
		{"disagreement_count", strconv.Itoa(m.CrossPolicy.DisagreementCount)},
		{"disagreement_rate", percent(m.CrossPolicy.DisagreementRate)},
	}
	if err := writer.WriteAll(summary); err != nil {
		return err
	}
	return writer.Error()
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
