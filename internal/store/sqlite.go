package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/plantwatch/internal/model"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS machines (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	type       TEXT NOT NULL DEFAULT '',
	site       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'operational',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS production_data (
	id           TEXT PRIMARY KEY,
	machine_id   TEXT NOT NULL REFERENCES machines(id),
	date         TEXT NOT NULL,
	output       REAL NOT NULL,
	downtime     REAL NOT NULL,
	efficiency   REAL NOT NULL,
	oee          REAL NOT NULL,
	quality_rate REAL NOT NULL DEFAULT 1,
	availability REAL NOT NULL DEFAULT 0,
	performance  REAL NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (machine_id, date)
);

CREATE INDEX IF NOT EXISTS idx_production_data_date ON production_data(date);

CREATE TABLE IF NOT EXISTS maintenance_logs (
	id         TEXT PRIMARY KEY,
	machine_id TEXT NOT NULL REFERENCES machines(id),
	type       TEXT NOT NULL,
	duration   REAL NOT NULL,
	technician TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Machines lists every machine ordered by name.
func (s *SQLiteStore) Machines(ctx context.Context) ([]model.Machine, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, site, status FROM machines ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list machines")
	}
	defer rows.Close()

	var out []model.Machine
	for rows.Next() {
		var m model.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Site, &m.Status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan machine")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate machines")
}

// Machine returns the machine with id, or model.ErrMachineNotFound.
func (s *SQLiteStore) Machine(ctx context.Context, id string) (model.Machine, error) {
	var m model.Machine
	err := s.db.QueryRowContext(ctx, `SELECT id, name, type, site, status FROM machines WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Type, &m.Site, &m.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Machine{}, eris.Wrapf(model.ErrMachineNotFound, "sqlite: machine %s", id)
	}
	if err != nil {
		return model.Machine{}, eris.Wrapf(err, "sqlite: get machine %s", id)
	}
	return m, nil
}

// CreateMachine inserts one machine. Names are unique.
func (s *SQLiteStore) CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error) {
	m, err := newMachine(m)
	if err != nil {
		return model.Machine{}, eris.Wrap(err, "sqlite: create machine")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO machines (id, name, type, site, status) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Type, m.Site, m.Status,
	); err != nil {
		return model.Machine{}, eris.Wrapf(err, "sqlite: create machine %s", m.Name)
	}
	return m, nil
}

// EnsureMachines inserts machines whose name is not yet stored and returns
// the stored rows for every requested name.
func (s *SQLiteStore) EnsureMachines(ctx context.Context, machines []model.Machine) ([]model.Machine, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, m := range machines {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Status == "" {
			m.Status = model.MachineOperational
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO machines (id, name, type, site, status) VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Type, m.Site, m.Status,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert machine %s", m.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit machines")
	}

	stored, err := s.Machines(ctx)
	if err != nil {
		return nil, err
	}
	return pickByName(stored, machines), nil
}

// InsertRecords stores records, skipping any machine/date already present.
func (s *SQLiteStore) InsertRecords(ctx context.Context, records []model.ProductionRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO production_data
		(id, machine_id, date, output, downtime, efficiency, oee, quality_rate, availability, performance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert record")
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		res, err := stmt.ExecContext(ctx,
			r.ID, r.MachineID, r.Date.String(), r.Output, r.Downtime,
			r.Efficiency, r.OEE, r.QualityRate, r.Availability, r.Performance,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert record %s/%s", r.MachineID, r.Date)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit records")
	}
	return inserted, nil
}

// Records returns the trailing q.Days of records ordered by date then machine.
func (s *SQLiteStore) Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error) {
	since := model.NewDate(s.opts.now()).AddDays(-q.Days)

	var b strings.Builder
	b.WriteString(`SELECT id, machine_id, date, output, downtime, efficiency, oee, quality_rate, availability, performance
		FROM production_data WHERE date >= ?`)
	args := []any{since.String()}
	if !q.AllMachines() {
		b.WriteString(` AND machine_id = ?`)
		args = append(args, q.MachineID)
	}
	b.WriteString(` ORDER BY date, machine_id`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close()

	var out []model.ProductionRecord
	for rows.Next() {
		var (
			r    model.ProductionRecord
			date string
		)
		if err := rows.Scan(&r.ID, &r.MachineID, &date, &r.Output, &r.Downtime,
			&r.Efficiency, &r.OEE, &r.QualityRate, &r.Availability, &r.Performance); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if r.Date, err = model.ParseDate(date); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record date")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

// DashboardSummary computes the KPI payload over the configured window.
func (s *SQLiteStore) DashboardSummary(ctx context.Context) (model.DashboardKPIs, error) {
	return summarize(ctx, s, s.opts)
}

// InitSampleData seeds the demo fleet and its history. Re-running it only
// fills in missing machine-days.
func (s *SQLiteStore) InitSampleData(ctx context.Context) error {
	n, err := seedSample(ctx, s, s.opts)
	if err != nil {
		return eris.Wrap(err, "sqlite: init sample data")
	}
	zap.L().Info("store: sample data initialized", zap.String("driver", "sqlite"), zap.Int64("records", n))
	return nil
}

// SimulateDay adds today's record for every machine that lacks one.
func (s *SQLiteStore) SimulateDay(ctx context.Context) error {
	n, err := simulateDay(ctx, s, s.opts)
	if err != nil {
		return eris.Wrap(err, "sqlite: simulate day")
	}
	zap.L().Info("store: simulated day", zap.String("driver", "sqlite"), zap.Int64("records", n))
	return nil
}

// MaintenanceLogs returns the latest logs, newest date first.
func (s *SQLiteStore) MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, machine_id, type, duration, technician, notes, date
		FROM maintenance_logs ORDER BY date DESC, created_at DESC LIMIT ?`, MaintenanceLogLimit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list maintenance logs")
	}
	defer rows.Close()

	var out []model.MaintenanceLog
	for rows.Next() {
		var (
			l    model.MaintenanceLog
			date string
		)
		if err := rows.Scan(&l.ID, &l.MachineID, &l.Type, &l.Duration, &l.Technician, &l.Notes, &date); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan maintenance log")
		}
		if l.Date, err = model.ParseDate(date); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan maintenance log date")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate maintenance logs")
}

// CreateMaintenanceLog stores a log for an existing machine.
func (s *SQLiteStore) CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error) {
	log, err := newMaintenanceLog(ctx, log, s.Machine)
	if err != nil {
		return model.MaintenanceLog{}, eris.Wrap(err, "sqlite: create maintenance log")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO maintenance_logs (id, machine_id, type, duration, technician, notes, date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.MachineID, log.Type, log.Duration, log.Technician, log.Notes, log.Date.String(),
	); err != nil {
		return model.MaintenanceLog{}, eris.Wrapf(err, "sqlite: insert maintenance log for %s", log.MachineID)
	}
	return log, nil
}
