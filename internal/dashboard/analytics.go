package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/i18n"
	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/metrics"
	"github.com/sells-group/plantwatch/internal/model"
)

// DefaultAnalyticsDays is the analytics window when none is given.
const DefaultAnalyticsDays = 30

// Params are the analytics page inputs. An empty MachineID means all machines.
type Params struct {
	MachineID string `json:"machine_id,omitempty" yaml:"machine_id,omitempty"`
	Days      int    `json:"days" yaml:"days"`
}

// AnalyticsState is the analytics view state.
type AnalyticsState string

const (
	AnalyticsReady  AnalyticsState = "ready"
	AnalyticsNoData AnalyticsState = "no_data"
	AnalyticsError  AnalyticsState = "error"
)

// AnalyticsView is one computation of the analytics page.
type AnalyticsView struct {
	Params       Params                       `json:"params" yaml:"params"`
	State        AnalyticsState               `json:"state" yaml:"state"`
	Trend        []model.ProductionRecord     `json:"trend,omitempty" yaml:"trend,omitempty"`
	Summary      metrics.SummaryStats         `json:"summary" yaml:"summary"`
	Distribution metrics.DowntimeDistribution `json:"distribution" yaml:"distribution"`
	Insights     insight.Insights             `json:"insights" yaml:"insights"`
	RecordCount  int                          `json:"record_count" yaml:"record_count"`
	MachineCount int                          `json:"machine_count" yaml:"machine_count"`
	Message      string                       `json:"message,omitempty" yaml:"message,omitempty"`
}

// Analytics recomputes the analytics page from scratch for each Params.
type Analytics struct {
	src         RecordSource
	defaultDays int
	locale      string
}

// NewAnalytics returns an analytics computer. defaultDays <= 0 uses
// DefaultAnalyticsDays.
func NewAnalytics(src RecordSource, defaultDays int, locale string) *Analytics {
	if defaultDays <= 0 {
		defaultDays = DefaultAnalyticsDays
	}
	return &Analytics{src: src, defaultDays: defaultDays, locale: locale}
}

// Recompute fetches records for p, rolls them up by day and derives the
// summary, downtime distribution and insights.
func (a *Analytics) Recompute(ctx context.Context, p Params) AnalyticsView {
	if p.Days <= 0 {
		p.Days = a.defaultDays
	}
	printer := i18n.NewPrinter(a.locale)
	v := AnalyticsView{Params: p}

	records, err := a.src.Records(ctx, model.RecordQuery{MachineID: p.MachineID, Days: p.Days})
	if err != nil {
		zap.L().Error("dashboard: analytics fetch",
			zap.String("machine_id", p.MachineID),
			zap.Int("days", p.Days),
			zap.Error(err),
		)
		v.State = AnalyticsError
		v.Message = printer.Sprintf(i18n.AnalyticsLoadFailed)
		return v
	}

	trend := metrics.DailyRollup(records)
	stats, ok := metrics.Summarize(trend)
	if !ok {
		v.State = AnalyticsNoData
		v.Message = printer.Sprintf(i18n.AnalyticsNoData)
		return v
	}

	v.State = AnalyticsReady
	v.Trend = trend
	v.Summary = stats
	v.Distribution = metrics.BucketDowntime(trend)
	v.Insights = insight.NewClassifier(a.locale).Classify(stats)
	v.RecordCount = len(records)
	v.MachineCount = countMachines(records)
	return v
}

func countMachines(records []model.ProductionRecord) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.MachineID] = struct{}{}
	}
	return len(seen)
}
