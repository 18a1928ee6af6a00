// Package metrics turns production records into summary statistics, downtime
// distributions, daily trend series and KPI payloads. Everything here is a
// pure function of its input and is recomputed on every call.
package metrics

import (
	"github.com/sells-group/plantwatch/internal/model"
)

// SummaryStats summarizes a record set. It is only meaningful when
// SampleCount > 0; Summarize never returns a populated value for empty input.
type SummaryStats struct {
	AvgOEE        float64 `json:"avg_oee" yaml:"avg_oee"`
	AvgEfficiency float64 `json:"avg_efficiency" yaml:"avg_efficiency"`
	TotalOutput   float64 `json:"total_output" yaml:"total_output"`
	TotalDowntime float64 `json:"total_downtime" yaml:"total_downtime"`
	AvgDowntime   float64 `json:"avg_downtime" yaml:"avg_downtime"`
	MaxOEE        float64 `json:"max_oee" yaml:"max_oee"`
	MinOEE        float64 `json:"min_oee" yaml:"min_oee"`
	OEEVariation  float64 `json:"oee_variation" yaml:"oee_variation"`
	SampleCount   int     `json:"sample_count" yaml:"sample_count"`
}

// Summarize computes simple arithmetic means and extremes over the full set.
// The boolean is false when records is empty (the no-data state).
func Summarize(records []model.ProductionRecord) (SummaryStats, bool) {
	if len(records) == 0 {
		return SummaryStats{}, false
	}

	var sumOEE, sumEff float64
	stats := SummaryStats{
		MaxOEE:      records[0].OEE,
		MinOEE:      records[0].OEE,
		SampleCount: len(records),
	}

	for _, r := range records {
		sumOEE += r.OEE
		sumEff += r.Efficiency
		stats.TotalOutput += r.Output
		stats.TotalDowntime += r.Downtime
		if r.OEE > stats.MaxOEE {
			stats.MaxOEE = r.OEE
		}
		if r.OEE < stats.MinOEE {
			stats.MinOEE = r.OEE
		}
	}

	n := float64(len(records))
	stats.AvgOEE = sumOEE / n
	stats.AvgEfficiency = sumEff / n
	stats.AvgDowntime = stats.TotalDowntime / n
	stats.OEEVariation = stats.MaxOEE - stats.MinOEE

	return stats, true
}
