// Package dashboard assembles the operator-facing views: the KPI dashboard
// (Bootstrap, Error or Ready) and the analytics page recomputed on every
// parameter change. Nothing is cached between calls except the last
// dashboard view, which SimulateDay keeps on failure.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/i18n"
	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/metrics"
	"github.com/sells-group/plantwatch/internal/model"
)

// RecordSource fetches production records.
type RecordSource interface {
	Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error)
}

// Source is the fetch layer behind the dashboard.
type Source interface {
	RecordSource
	DashboardSummary(ctx context.Context) (model.DashboardKPIs, error)
}

// Bootstrapper triggers sample-data generation.
type Bootstrapper interface {
	InitSampleData(ctx context.Context) error
	SimulateDay(ctx context.Context) error
}

// DefaultTrendDays is the dashboard's trend window.
const DefaultTrendDays = 14

// State is the dashboard view state.
type State string

const (
	StateBootstrap State = "bootstrap"
	StateError     State = "error"
	StateReady     State = "ready"
)

// View is one rendering of the dashboard. It depends only on the fetched
// data, so two loads over unchanged data are equal.
type View struct {
	State                State                        `json:"state"`
	KPIs                 model.DashboardKPIs          `json:"kpis"`
	Trend                []model.ProductionRecord     `json:"trend,omitempty"`
	Summary              *metrics.SummaryStats        `json:"summary,omitempty"`
	Distribution         metrics.DowntimeDistribution `json:"distribution"`
	Insights             *insight.Insights            `json:"insights,omitempty"`
	ShowMaintenanceAlert bool                         `json:"show_maintenance_alert"`
	MaintenanceMessage   string                       `json:"maintenance_message,omitempty"`
	Message              string                       `json:"message,omitempty"`
}

// DetectBootstrap reports whether the latest fetch means "no data yet": the
// fetch layer signalled model.ErrNoData, or it succeeded with zero machines.
// It looks at this fetch only.
func DetectBootstrap(kpis model.DashboardKPIs, err error) bool {
	if err != nil {
		return errors.Is(err, model.ErrNoData)
	}
	return kpis.TotalMachines == 0
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTrendDays sets the trend window.
func WithTrendDays(days int) Option {
	return func(c *Coordinator) {
		if days > 0 {
			c.trendDays = days
		}
	}
}

// WithLocale sets the language of view messages.
func WithLocale(locale string) Option {
	return func(c *Coordinator) {
		c.locale = locale
	}
}

// Coordinator produces dashboard views.
type Coordinator struct {
	src       Source
	boot      Bootstrapper
	trendDays int
	locale    string

	mu   sync.Mutex
	last View
}

// NewCoordinator returns a coordinator reading from src. boot may be nil when
// sample-data triggers are unavailable.
func NewCoordinator(src Source, boot Bootstrapper, opts ...Option) *Coordinator {
	c := &Coordinator{
		src:       src,
		boot:      boot,
		trendDays: DefaultTrendDays,
		locale:    "en",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches KPIs and the trend window and renders a view.
func (c *Coordinator) Load(ctx context.Context) View {
	v := c.load(ctx)
	c.mu.Lock()
	c.last = v
	c.mu.Unlock()
	return v
}

// Refresh is the operator's manual reload. It runs the same path as Load.
func (c *Coordinator) Refresh(ctx context.Context) View {
	return c.Load(ctx)
}

// Last returns the most recent view.
func (c *Coordinator) Last() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Coordinator) load(ctx context.Context) View {
	p := i18n.NewPrinter(c.locale)
	var v View

	kpis, err := c.src.DashboardSummary(ctx)
	if DetectBootstrap(kpis, err) {
		v.State = StateBootstrap
		v.KPIs = kpis
		return v
	}
	if err != nil {
		zap.L().Error("dashboard: load kpis", zap.Error(err))
		v.State = StateError
		v.Message = p.Sprintf(i18n.DashboardLoadFailed)
		return v
	}

	records, err := c.src.Records(ctx, model.RecordQuery{Days: c.trendDays})
	if err != nil {
		zap.L().Error("dashboard: load trend", zap.Int("days", c.trendDays), zap.Error(err))
		v.State = StateError
		v.Message = p.Sprintf(i18n.DashboardLoadFailed)
		return v
	}

	v.State = StateReady
	v.KPIs = kpis
	v.Trend = metrics.DailyRollup(records)
	v.Distribution = metrics.BucketDowntime(records)
	if stats, ok := metrics.Summarize(records); ok {
		ins := insight.NewClassifier(c.locale).Classify(stats)
		v.Summary = &stats
		v.Insights = &ins
	}
	if kpis.MaintenanceAlerts > 0 {
		v.ShowMaintenanceAlert = true
		v.MaintenanceMessage = p.Sprintf(i18n.MaintenanceAlert, kpis.MaintenanceAlerts)
	}
	return v
}

// InitializeSampleData triggers the bootstrap and reloads. On failure the
// returned view is an Error view and the error is returned as well.
func (c *Coordinator) InitializeSampleData(ctx context.Context) (View, error) {
	if c.boot == nil {
		return c.Load(ctx), errNoBootstrapper
	}
	if err := c.boot.InitSampleData(ctx); err != nil {
		zap.L().Error("dashboard: initialize sample data", zap.Error(err))
		v := View{
			State:   StateError,
			Message: i18n.NewPrinter(c.locale).Sprintf(i18n.BootstrapFailed),
		}
		c.mu.Lock()
		c.last = v
		c.mu.Unlock()
		return v, err
	}
	zap.L().Info("dashboard: sample data initialized")
	return c.Refresh(ctx), nil
}

// SimulateDay adds today's records and reloads. A failure is logged and the
// previous view is kept.
func (c *Coordinator) SimulateDay(ctx context.Context) View {
	if c.boot == nil {
		zap.L().Warn("dashboard: simulate day unavailable", zap.Error(errNoBootstrapper))
		return c.Last()
	}
	if err := c.boot.SimulateDay(ctx); err != nil {
		zap.L().Warn("dashboard: simulate day", zap.Error(err))
		return c.Last()
	}
	return c.Refresh(ctx)
}
