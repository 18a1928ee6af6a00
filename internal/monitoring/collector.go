package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/metrics"
	"github.com/sells-group/plantwatch/internal/model"
)

// FleetSource is the read surface the collector needs. Both the plant
// service client and the local stores satisfy it.
type FleetSource interface {
	Machines(ctx context.Context) ([]model.Machine, error)
	Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error)
}

// MachineHealth is one machine's standing over the lookback window.
type MachineHealth struct {
	Machine           model.Machine        `json:"machine"`
	HasData           bool                 `json:"has_data"`
	Summary           metrics.SummaryStats `json:"summary"`
	Insights          *insight.Insights    `json:"insights,omitempty"`
	MaintenanceAlerts int                  `json:"maintenance_alerts"`
	WorstDowntime     float64              `json:"worst_downtime"`
}

// FleetSnapshot holds a point-in-time view of fleet health.
type FleetSnapshot struct {
	Machines           []MachineHealth `json:"machines"`
	AlertDowntimeHours float64         `json:"alert_downtime_hours"`
	LookbackDays       int             `json:"lookback_days"`
	CollectedAt        time.Time       `json:"collected_at"`
}

// Critical counts machines whose worst insight is critical.
func (s *FleetSnapshot) Critical() int {
	n := 0
	for _, m := range s.Machines {
		if m.Insights != nil && m.Insights.Worst() == insight.LevelCritical {
			n++
		}
	}
	return n
}

// Collector summarises every machine concurrently.
type Collector struct {
	src                FleetSource
	concurrency        int
	alertDowntimeHours float64
	classifier         *insight.Classifier
}

// NewCollector creates a fleet collector. concurrency bounds the number of
// in-flight per-machine fetches.
func NewCollector(src FleetSource, concurrency int, alertDowntimeHours float64, locale string) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	if alertDowntimeHours <= 0 {
		alertDowntimeHours = metrics.DefaultAlertDowntimeHours
	}
	return &Collector{
		src:                src,
		concurrency:        concurrency,
		alertDowntimeHours: alertDowntimeHours,
		classifier:         insight.NewClassifier(locale),
	}
}

// Collect gathers a snapshot over the trailing lookbackDays. Any machine
// fetch failure fails the whole snapshot.
func (c *Collector) Collect(ctx context.Context, lookbackDays int) (*FleetSnapshot, error) {
	machines, err := c.src.Machines(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list machines")
	}

	snap := &FleetSnapshot{
		Machines:           make([]MachineHealth, len(machines)),
		AlertDowntimeHours: c.alertDowntimeHours,
		LookbackDays:       lookbackDays,
		CollectedAt:        time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, m := range machines {
		g.Go(func() error {
			records, err := c.src.Records(gctx, model.RecordQuery{MachineID: m.ID, Days: lookbackDays})
			if err != nil {
				return eris.Wrapf(err, "monitoring: records for %s", m.Name)
			}
			snap.Machines[i] = c.health(m, records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Collector) health(m model.Machine, records []model.ProductionRecord) MachineHealth {
	h := MachineHealth{Machine: m}
	stats, ok := metrics.Summarize(records)
	if !ok {
		return h
	}
	ins := c.classifier.Classify(stats)
	h.HasData = true
	h.Summary = stats
	h.Insights = &ins
	for _, r := range records {
		if r.Downtime > c.alertDowntimeHours {
			h.MaintenanceAlerts++
		}
		if r.Downtime > h.WorstDowntime {
			h.WorstDowntime = r.Downtime
		}
	}
	return h
}
