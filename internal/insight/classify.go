package insight

import (
	"github.com/sells-group/plantwatch/internal/i18n"
	"github.com/sells-group/plantwatch/internal/metrics"
)

// Insight is a classified statistic ready for presentation.
type Insight struct {
	Metric  Metric  `json:"metric" yaml:"metric"`
	Tier    Tier    `json:"tier" yaml:"tier"`
	Level   Level   `json:"level" yaml:"level"`
	Color   string  `json:"color" yaml:"color"`
	Value   float64 `json:"value" yaml:"value"`
	Title   string  `json:"title" yaml:"title"`
	Message string  `json:"message" yaml:"message"`
}

// Insights bundles the three classifications of a summary.
type Insights struct {
	Performance Insight `json:"performance" yaml:"performance"`
	Stability   Insight `json:"stability" yaml:"stability"`
	Downtime    Insight `json:"downtime" yaml:"downtime"`
}

// All returns the insights in display order.
func (in Insights) All() []Insight {
	return []Insight{in.Performance, in.Stability, in.Downtime}
}

// Worst returns the most severe level across the bundle.
func (in Insights) Worst() Level {
	worst := LevelGood
	for _, i := range in.All() {
		if i.Level > worst {
			worst = i.Level
		}
	}
	return worst
}

// Classifier renders insights in one locale. It is safe for concurrent use;
// a fresh printer is built per call since message.Printer is not.
type Classifier struct {
	locale string
}

// NewClassifier returns a classifier for locale ("en", "fr", ...). Unknown
// locales fall back to English.
func NewClassifier(locale string) *Classifier {
	return &Classifier{locale: locale}
}

func (c *Classifier) render(s Scale, v float64) Insight {
	b := s.Lookup(v)
	p := i18n.NewPrinter(c.locale)
	return Insight{
		Metric:  s.Metric,
		Tier:    b.Tier,
		Level:   b.Level,
		Color:   b.Level.Color(),
		Value:   v,
		Title:   p.Sprintf(b.Title),
		Message: p.Sprintf(b.Message, v),
	}
}

// Performance classifies average OEE.
func (c *Classifier) Performance(avgOEE float64) Insight {
	return c.render(PerformanceScale, avgOEE)
}

// Stability classifies OEE variation.
func (c *Classifier) Stability(oeeVariation float64) Insight {
	return c.render(StabilityScale, oeeVariation)
}

// Downtime classifies average downtime hours.
func (c *Classifier) Downtime(avgDowntime float64) Insight {
	return c.render(DowntimeScale, avgDowntime)
}

// Classify grades a summary on all three scales.
func (c *Classifier) Classify(stats metrics.SummaryStats) Insights {
	return Insights{
		Performance: c.Performance(stats.AvgOEE),
		Stability:   c.Stability(stats.OEEVariation),
		Downtime:    c.Downtime(stats.AvgDowntime),
	}
}

var english = NewClassifier("en")

// ClassifyPerformance grades avgOEE with English messages.
func ClassifyPerformance(avgOEE float64) Insight { return english.Performance(avgOEE) }

// ClassifyStability grades oeeVariation with English messages.
func ClassifyStability(oeeVariation float64) Insight { return english.Stability(oeeVariation) }

// ClassifyDowntime grades avgDowntime with English messages.
func ClassifyDowntime(avgDowntime float64) Insight { return english.Downtime(avgDowntime) }

// Classify grades stats with English messages.
func Classify(stats metrics.SummaryStats) Insights { return english.Classify(stats) }
