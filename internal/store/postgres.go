package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/db"
	"github.com/sells-group/plantwatch/internal/model"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	opts    options
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, opts ...Option) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, opts: buildOptions(opts)}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS machines (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	type       TEXT NOT NULL DEFAULT '',
	site       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'operational',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS production_data (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	machine_id   TEXT NOT NULL REFERENCES machines(id),
	date         DATE NOT NULL,
	output       DOUBLE PRECISION NOT NULL,
	downtime     DOUBLE PRECISION NOT NULL,
	efficiency   DOUBLE PRECISION NOT NULL,
	oee          DOUBLE PRECISION NOT NULL,
	quality_rate DOUBLE PRECISION NOT NULL DEFAULT 1,
	availability DOUBLE PRECISION NOT NULL DEFAULT 0,
	performance  DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (machine_id, date)
);

CREATE INDEX IF NOT EXISTS idx_production_data_date ON production_data(date);

CREATE TABLE IF NOT EXISTS maintenance_logs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	machine_id TEXT NOT NULL REFERENCES machines(id),
	type       TEXT NOT NULL,
	duration   DOUBLE PRECISION NOT NULL,
	technician TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	date       DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const selectMachines = `SELECT id, name, type, site, status FROM machines ORDER BY name`

// Machines lists every machine ordered by name.
func (s *PostgresStore) Machines(ctx context.Context) ([]model.Machine, error) {
	rows, err := s.pool.Query(ctx, selectMachines)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list machines")
	}
	defer rows.Close()

	var out []model.Machine
	for rows.Next() {
		var (
			m      model.Machine
			status string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Site, &status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan machine")
		}
		m.Status = model.MachineStatus(status)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate machines")
}

const selectMachine = `SELECT id, name, type, site, status FROM machines WHERE id = $1`

// Machine returns the machine with id, or model.ErrMachineNotFound.
func (s *PostgresStore) Machine(ctx context.Context, id string) (model.Machine, error) {
	var (
		m      model.Machine
		status string
	)
	err := s.pool.QueryRow(ctx, selectMachine, id).Scan(&m.ID, &m.Name, &m.Type, &m.Site, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Machine{}, eris.Wrapf(model.ErrMachineNotFound, "postgres: machine %s", id)
	}
	if err != nil {
		return model.Machine{}, eris.Wrapf(err, "postgres: get machine %s", id)
	}
	m.Status = model.MachineStatus(status)
	return m, nil
}

const createMachine = `INSERT INTO machines (id, name, type, site, status) VALUES ($1, $2, $3, $4, $5)`

// CreateMachine inserts one machine. Names are unique.
func (s *PostgresStore) CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error) {
	m, err := newMachine(m)
	if err != nil {
		return model.Machine{}, eris.Wrap(err, "postgres: create machine")
	}
	if _, err := s.pool.Exec(ctx, createMachine, m.ID, m.Name, m.Type, m.Site, string(m.Status)); err != nil {
		return model.Machine{}, eris.Wrapf(err, "postgres: create machine %s", m.Name)
	}
	return m, nil
}

const insertMachine = `INSERT INTO machines (id, name, type, site, status) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`

// EnsureMachines inserts machines whose name is not yet stored and returns
// the stored rows for every requested name.
func (s *PostgresStore) EnsureMachines(ctx context.Context, machines []model.Machine) ([]model.Machine, error) {
	for _, m := range machines {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Status == "" {
			m.Status = model.MachineOperational
		}
		if _, err := s.pool.Exec(ctx, insertMachine, m.ID, m.Name, m.Type, m.Site, string(m.Status)); err != nil {
			return nil, eris.Wrapf(err, "postgres: insert machine %s", m.Name)
		}
	}
	stored, err := s.Machines(ctx)
	if err != nil {
		return nil, err
	}
	return pickByName(stored, machines), nil
}

var recordColumns = []string{
	"id", "machine_id", "date", "output", "downtime",
	"efficiency", "oee", "quality_rate", "availability", "performance",
}

// InsertRecords bulk-loads records, skipping any machine/date already present.
func (s *PostgresStore) InsertRecords(ctx context.Context, records []model.ProductionRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		rows = append(rows, []any{
			r.ID, r.MachineID, r.Date.Time, r.Output, r.Downtime,
			r.Efficiency, r.OEE, r.QualityRate, r.Availability, r.Performance,
		})
	}
	n, err := db.InsertMissing(ctx, s.pool, db.InsertConfig{
		Table:        "production_data",
		Columns:      recordColumns,
		ConflictKeys: []string{"machine_id", "date"},
	}, rows)
	return n, eris.Wrap(err, "postgres: insert records")
}

const selectRecords = `SELECT id, machine_id, date, output, downtime, efficiency, oee, quality_rate, availability, performance
	FROM production_data
	WHERE date >= $1 AND ($2 = '' OR machine_id = $2)
	ORDER BY date, machine_id`

// Records returns the trailing q.Days of records ordered by date then machine.
func (s *PostgresStore) Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error) {
	since := model.NewDate(s.opts.now()).AddDays(-q.Days)

	rows, err := s.pool.Query(ctx, selectRecords, since.Time, q.MachineID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query records")
	}
	defer rows.Close()

	var out []model.ProductionRecord
	for rows.Next() {
		var (
			r    model.ProductionRecord
			date time.Time
		)
		if err := rows.Scan(&r.ID, &r.MachineID, &date, &r.Output, &r.Downtime,
			&r.Efficiency, &r.OEE, &r.QualityRate, &r.Availability, &r.Performance); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r.Date = model.NewDate(date)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

// DashboardSummary computes the KPI payload over the configured window.
func (s *PostgresStore) DashboardSummary(ctx context.Context) (model.DashboardKPIs, error) {
	return summarize(ctx, s, s.opts)
}

// InitSampleData seeds the demo fleet and its history. Re-running it only
// fills in missing machine-days.
func (s *PostgresStore) InitSampleData(ctx context.Context) error {
	n, err := seedSample(ctx, s, s.opts)
	if err != nil {
		return eris.Wrap(err, "postgres: init sample data")
	}
	zap.L().Info("store: sample data initialized", zap.String("driver", "postgres"), zap.Int64("records", n))
	return nil
}

// SimulateDay adds today's record for every machine that lacks one.
func (s *PostgresStore) SimulateDay(ctx context.Context) error {
	n, err := simulateDay(ctx, s, s.opts)
	if err != nil {
		return eris.Wrap(err, "postgres: simulate day")
	}
	zap.L().Info("store: simulated day", zap.String("driver", "postgres"), zap.Int64("records", n))
	return nil
}

const selectMaintenanceLogs = `SELECT id, machine_id, type, duration, technician, notes, date
	FROM maintenance_logs
	ORDER BY date DESC, created_at DESC
	LIMIT $1`

// MaintenanceLogs returns the latest logs, newest date first.
func (s *PostgresStore) MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error) {
	rows, err := s.pool.Query(ctx, selectMaintenanceLogs, MaintenanceLogLimit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list maintenance logs")
	}
	defer rows.Close()

	var out []model.MaintenanceLog
	for rows.Next() {
		var (
			l    model.MaintenanceLog
			date time.Time
		)
		if err := rows.Scan(&l.ID, &l.MachineID, &l.Type, &l.Duration, &l.Technician, &l.Notes, &date); err != nil {
			return nil, eris.Wrap(err, "postgres: scan maintenance log")
		}
		l.Date = model.NewDate(date)
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate maintenance logs")
}

const insertMaintenanceLog = `INSERT INTO maintenance_logs (id, machine_id, type, duration, technician, notes, date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// CreateMaintenanceLog stores a log for an existing machine.
func (s *PostgresStore) CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error) {
	log, err := newMaintenanceLog(ctx, log, s.Machine)
	if err != nil {
		return model.MaintenanceLog{}, eris.Wrap(err, "postgres: create maintenance log")
	}
	if _, err := s.pool.Exec(ctx, insertMaintenanceLog,
		log.ID, log.MachineID, log.Type, log.Duration, log.Technician, log.Notes, log.Date.Time,
	); err != nil {
		return model.MaintenanceLog{}, eris.Wrapf(err, "postgres: insert maintenance log for %s", log.MachineID)
	}
	return log, nil
}
