// Package insight maps summary statistics onto qualitative tiers with a
// localized title and rationale. Each metric is described by a Scale: an
// ordered table of bands scanned from best to worst.
package insight

import (
	"math"

	"github.com/sells-group/plantwatch/internal/i18n"
)

// Metric identifies which statistic an insight describes.
type Metric string

const (
	MetricPerformance Metric = "performance"
	MetricStability   Metric = "stability"
	MetricDowntime    Metric = "downtime"
)

// Tier is the qualitative band a value falls into.
type Tier string

const (
	TierExcellent  Tier = "excellent"
	TierAcceptable Tier = "acceptable"
	TierCritical   Tier = "critical"
	TierStable     Tier = "stable"
	TierModerate   Tier = "moderate"
	TierUnstable   Tier = "unstable"
	TierLow        Tier = "low"
	TierMedium     Tier = "medium"
	TierHigh       Tier = "high"
)

// Level is the severity rank of a tier. Higher is worse.
type Level int

const (
	LevelGood Level = iota
	LevelWarning
	LevelCritical
)

var levelColors = [...]string{
	LevelGood:     "#10b981",
	LevelWarning:  "#f59e0b",
	LevelCritical: "#ef4444",
}

var levelNames = [...]string{
	LevelGood:     "good",
	LevelWarning:  "warning",
	LevelCritical: "critical",
}

// Color returns the display colour for the level.
func (l Level) Color() string {
	if l < LevelGood || int(l) >= len(levelColors) {
		return levelColors[LevelCritical]
	}
	return levelColors[l]
}

func (l Level) String() string {
	if l < LevelGood || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// Band is one row of a Scale. Bound is inclusive: for a higher-is-better
// scale a value matches when value >= Bound, otherwise when value <= Bound.
type Band struct {
	Tier    Tier
	Level   Level
	Bound   float64
	Title   string
	Message string
}

// Scale is an ordered list of bands, best first. The last band is the
// catch-all and should carry an infinite bound.
type Scale struct {
	Metric         Metric
	HigherIsBetter bool
	Bands          []Band
}

// Lookup returns the first band the value satisfies. Values that satisfy none
// (including NaN) fall into the last band.
func (s Scale) Lookup(v float64) Band {
	for _, b := range s.Bands {
		if s.HigherIsBetter && v >= b.Bound {
			return b
		}
		if !s.HigherIsBetter && v <= b.Bound {
			return b
		}
	}
	return s.Bands[len(s.Bands)-1]
}

// PerformanceScale grades average OEE (percent).
var PerformanceScale = Scale{
	Metric:         MetricPerformance,
	HigherIsBetter: true,
	Bands: []Band{
		{TierExcellent, LevelGood, 80, i18n.PerformanceExcellentTitle, i18n.PerformanceExcellentMsg},
		{TierAcceptable, LevelWarning, 60, i18n.PerformanceAcceptableTitle, i18n.PerformanceAcceptableMsg},
		{TierCritical, LevelCritical, math.Inf(-1), i18n.PerformanceCriticalTitle, i18n.PerformanceCriticalMsg},
	},
}

// StabilityScale grades the OEE spread (max - min, percentage points).
var StabilityScale = Scale{
	Metric: MetricStability,
	Bands: []Band{
		{TierStable, LevelGood, 10, i18n.StabilityStableTitle, i18n.StabilityStableMsg},
		{TierModerate, LevelWarning, 20, i18n.StabilityModerateTitle, i18n.StabilityModerateMsg},
		{TierUnstable, LevelCritical, math.Inf(1), i18n.StabilityUnstableTitle, i18n.StabilityUnstableMsg},
	},
}

// DowntimeScale grades average downtime hours per record.
var DowntimeScale = Scale{
	Metric: MetricDowntime,
	Bands: []Band{
		{TierLow, LevelGood, 15, i18n.DowntimeLowTitle, i18n.DowntimeLowMsg},
		{TierModerate, LevelWarning, 30, i18n.DowntimeModerateTitle, i18n.DowntimeModerateMsg},
		{TierHigh, LevelCritical, math.Inf(1), i18n.DowntimeHighTitle, i18n.DowntimeHighMsg},
	},
}
