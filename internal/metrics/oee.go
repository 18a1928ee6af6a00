package metrics

import "math"

// DefaultPlannedHours is the planned production time of one machine-day.
const DefaultPlannedHours = 24.0

// OEEBreakdown holds OEE and its three factors, all as percentages.
type OEEBreakdown struct {
	OEE          float64 `json:"oee"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
}

// ComputeOEE derives OEE = availability × performance × quality from a day's
// downtime (hours), efficiency (percent) and quality rate (fraction).
func ComputeOEE(downtime, efficiency, qualityRate, plannedHours float64) OEEBreakdown {
	if plannedHours <= 0 {
		plannedHours = DefaultPlannedHours
	}
	availability := clamp((plannedHours-downtime)/plannedHours, 0, 1)
	performance := clamp(efficiency/100, 0, 1)
	quality := clamp(qualityRate, 0, 1)

	return OEEBreakdown{
		OEE:          round2(availability * performance * quality * 100),
		Availability: round2(availability * 100),
		Performance:  round2(performance * 100),
		Quality:      round2(quality * 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
