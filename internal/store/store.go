// Package store persists machines and daily production records locally and
// serves them through the same contracts as the plant service client.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/metrics"
	"github.com/sells-group/plantwatch/internal/model"
)

// DefaultKPIWindowDays is the trailing window the dashboard KPIs cover.
const DefaultKPIWindowDays = 7

// MaintenanceLogLimit caps how many logs MaintenanceLogs returns.
const MaintenanceLogLimit = 100

// ErrNoMachines is returned by SimulateDay before any machine exists.
var ErrNoMachines = eris.New("store: no machines found, create machines first")

// Store defines the local persistence for the dashboard and analytics views.
type Store interface {
	// Reads
	Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error)
	DashboardSummary(ctx context.Context) (model.DashboardKPIs, error)
	Machines(ctx context.Context) ([]model.Machine, error)
	Machine(ctx context.Context, id string) (model.Machine, error)
	MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error)

	// Writes
	EnsureMachines(ctx context.Context, machines []model.Machine) ([]model.Machine, error)
	CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error)
	InsertRecords(ctx context.Context, records []model.ProductionRecord) (int64, error)
	CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error)

	// Bootstrap
	InitSampleData(ctx context.Context) error
	SimulateDay(ctx context.Context) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config tunes sample generation and KPI computation.
type Config struct {
	SampleDays         int     `yaml:"days" mapstructure:"days"`
	PlannedHours       float64 `yaml:"planned_hours" mapstructure:"planned_hours"`
	AlertDowntimeHours float64 `yaml:"alert_downtime_hours" mapstructure:"alert_downtime_hours"`
	KPIWindowDays      int     `yaml:"kpi_window_days" mapstructure:"kpi_window_days"`
}

func (c Config) withDefaults() Config {
	if c.SampleDays <= 0 {
		c.SampleDays = DefaultSampleDays
	}
	if c.PlannedHours <= 0 {
		c.PlannedHours = metrics.DefaultPlannedHours
	}
	if c.AlertDowntimeHours <= 0 {
		c.AlertDowntimeHours = metrics.DefaultAlertDowntimeHours
	}
	if c.KPIWindowDays <= 0 {
		c.KPIWindowDays = DefaultKPIWindowDays
	}
	return c
}

// Option configures a store.
type Option func(*options)

type options struct {
	cfg Config
	gen *Generator
	now func() time.Time
}

// WithConfig sets sample and KPI tuning.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithGenerator replaces the sample record generator.
func WithGenerator(g *Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithClock sets the clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	o.cfg = o.cfg.withDefaults()
	if o.gen == nil {
		o.gen = NewGenerator(uint64(o.now().UnixNano()), o.cfg.PlannedHours)
	}
	return o
}

// tables is the primitive surface shared by both drivers. Bootstrap and KPI
// logic is written once on top of it.
type tables interface {
	Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error)
	Machines(ctx context.Context) ([]model.Machine, error)
	EnsureMachines(ctx context.Context, machines []model.Machine) ([]model.Machine, error)
	InsertRecords(ctx context.Context, records []model.ProductionRecord) (int64, error)
}

func summarize(ctx context.Context, t tables, o options) (model.DashboardKPIs, error) {
	machines, err := t.Machines(ctx)
	if err != nil {
		return model.DashboardKPIs{}, err
	}
	records, err := t.Records(ctx, model.RecordQuery{Days: o.cfg.KPIWindowDays})
	if err != nil {
		return model.DashboardKPIs{}, err
	}
	return metrics.ComputeKPIs(len(machines), records, o.cfg.AlertDowntimeHours), nil
}

func seedSample(ctx context.Context, t tables, o options) (int64, error) {
	machines, err := t.EnsureMachines(ctx, SampleMachines())
	if err != nil {
		return 0, err
	}
	today := model.NewDate(o.now())
	var records []model.ProductionRecord
	for _, m := range machines {
		for i := range o.cfg.SampleDays {
			records = append(records, o.gen.Record(m.ID, today.AddDays(-i), SampleProfile))
		}
	}
	return t.InsertRecords(ctx, records)
}

func simulateDay(ctx context.Context, t tables, o options) (int64, error) {
	machines, err := t.Machines(ctx)
	if err != nil {
		return 0, err
	}
	if len(machines) == 0 {
		return 0, ErrNoMachines
	}
	today := model.NewDate(o.now())
	records := make([]model.ProductionRecord, 0, len(machines))
	for _, m := range machines {
		records = append(records, o.gen.Record(m.ID, today, SimulateProfile))
	}
	return t.InsertRecords(ctx, records)
}

// pickByName returns the stored machines named in want, in want's order.
func pickByName(stored, want []model.Machine) []model.Machine {
	byName := make(map[string]model.Machine, len(stored))
	for _, m := range stored {
		byName[m.Name] = m
	}
	out := make([]model.Machine, 0, len(want))
	for _, w := range want {
		if m, ok := byName[w.Name]; ok {
			out = append(out, m)
		}
	}
	return out
}

// newMachine validates m and fills in the id and default status.
func newMachine(m model.Machine) (model.Machine, error) {
	if err := model.Validate(m); err != nil {
		return model.Machine{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = model.MachineOperational
	}
	return m, nil
}

// newMaintenanceLog validates log against a known machine and assigns an id.
func newMaintenanceLog(ctx context.Context, log model.MaintenanceLog, lookup func(context.Context, string) (model.Machine, error)) (model.MaintenanceLog, error) {
	if err := model.Validate(log); err != nil {
		return model.MaintenanceLog{}, err
	}
	if _, err := lookup(ctx, log.MachineID); err != nil {
		return model.MaintenanceLog{}, err
	}
	log.ID = uuid.NewString()
	return log, nil
}
