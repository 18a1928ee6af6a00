package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/dashboard"
	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/internal/prediction"
	"github.com/sells-group/plantwatch/internal/resilience"
	"github.com/sells-group/plantwatch/internal/session"
	"github.com/sells-group/plantwatch/internal/store"
	"github.com/sells-group/plantwatch/pkg/plantapi"
)

// localModelError is returned by model operations when data comes from a
// local database. The prediction model only runs inside the plant service.
type localModelError struct{}

func (localModelError) Error() string {
	return "model training and predictions are only available with store.driver=api"
}

// ServiceDetail lets the prediction workflow surface the message verbatim.
func (e localModelError) ServiceDetail() string { return e.Error() }

var errLocalModel error = localModelError{}

// dataBackend is what the dashboard, analytics and fleet commands read from.
// Both plantapi.Client and store.Store satisfy it.
type dataBackend interface {
	dashboard.Source
	dashboard.Bootstrapper
	Machines(ctx context.Context) ([]model.Machine, error)
}

// registry manages machines and their maintenance logs. Both plantapi.Client
// and store.Store satisfy it.
type registry interface {
	Machines(ctx context.Context) ([]model.Machine, error)
	Machine(ctx context.Context, id string) (model.Machine, error)
	CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error)
	MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error)
	CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error)
}

// appEnv holds the data backend and model service shared by commands.
type appEnv struct {
	Data     dataBackend
	Registry registry
	Models   prediction.Service
	Session  *session.Session // nil for local drivers
	closeFn  func() error
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.closeFn != nil {
		_ = e.closeFn()
	}
}

// initEnv validates config for mode and builds the data backend. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	if cfg.LocalStore() {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		return &appEnv{Data: st, Registry: st, Models: localModels{}, closeFn: st.Close}, nil
	}

	sess := session.New(cfg.API.Token, model.User{})
	client := newAPIClient(sess)
	return &appEnv{Data: client, Registry: client, Models: client, Session: sess}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	opts := []store.Option{store.WithConfig(storeConfig())}
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "plantwatch.db"
		}
		return store.NewSQLite(dsn, opts...)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}, opts...)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func storeConfig() store.Config {
	return store.Config{
		SampleDays:         cfg.Sample.Days,
		PlannedHours:       cfg.Sample.PlannedHours,
		AlertDowntimeHours: cfg.Sample.AlertDowntimeHours,
		KPIWindowDays:      cfg.Sample.KPIWindowDays,
	}
}

// apiOptions maps the api config section onto client options.
func apiOptions() []plantapi.Option {
	opts := []plantapi.Option{
		plantapi.WithBaseURL(cfg.API.BaseURL),
		plantapi.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second}),
	}
	if cfg.API.RatePerSec > 0 {
		opts = append(opts, plantapi.WithRateLimit(cfg.API.RatePerSec, cfg.API.Burst))
	}
	if cfg.API.RetryAttempts > 0 {
		p := resilience.DefaultRetryPolicy()
		p.Attempts = cfg.API.RetryAttempts
		opts = append(opts, plantapi.WithRetry(p))
	}
	if cfg.API.BreakerFailures > 0 {
		opts = append(opts, plantapi.WithBreaker(plantapi.NewBreaker(
			cfg.API.BreakerFailures,
			time.Duration(cfg.API.BreakerResetSecs)*time.Second,
		)))
	}
	return opts
}

func newAPIClient(sess *session.Session) plantapi.Client {
	return plantapi.NewClient(sess, apiOptions()...)
}

// localModels stands in for the model service when data is local.
type localModels struct{}

func (localModels) Train(context.Context) (*model.TrainingResult, error) {
	return nil, errLocalModel
}

func (localModels) Predict(context.Context, string, int) ([]model.Prediction, error) {
	return nil, errLocalModel
}

func (localModels) Predictions(context.Context, string) ([]model.Prediction, error) {
	return nil, errLocalModel
}
