//go:build !integration

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/plantwatch/internal/config"
	"github.com/sells-group/plantwatch/internal/model"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductionRecord), args.Error(1)
}

func (m *mockBackend) DashboardSummary(ctx context.Context) (model.DashboardKPIs, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.DashboardKPIs), args.Error(1)
}

func (m *mockBackend) Machines(ctx context.Context) ([]model.Machine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Machine), args.Error(1)
}

func (m *mockBackend) InitSampleData(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) SimulateDay(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Machines(ctx context.Context) ([]model.Machine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Machine), args.Error(1)
}

func (m *mockRegistry) Machine(ctx context.Context, id string) (model.Machine, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Machine), args.Error(1)
}

func (m *mockRegistry) CreateMachine(ctx context.Context, machine model.Machine) (model.Machine, error) {
	args := m.Called(ctx, machine)
	return args.Get(0).(model.Machine), args.Error(1)
}

func (m *mockRegistry) MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MaintenanceLog), args.Error(1)
}

func (m *mockRegistry) CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error) {
	args := m.Called(ctx, log)
	return args.Get(0).(model.MaintenanceLog), args.Error(1)
}

type mockModels struct {
	mock.Mock
}

func (m *mockModels) Train(ctx context.Context) (*model.TrainingResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrainingResult), args.Error(1)
}

func (m *mockModels) Predict(ctx context.Context, machineID string, daysAhead int) ([]model.Prediction, error) {
	args := m.Called(ctx, machineID, daysAhead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prediction), args.Error(1)
}

func (m *mockModels) Predictions(ctx context.Context, machineID string) ([]model.Prediction, error) {
	args := m.Called(ctx, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prediction), args.Error(1)
}

func record(machine, date string, oee, downtime float64) model.ProductionRecord {
	return model.ProductionRecord{
		MachineID:   machine,
		Date:        model.MustDate(date),
		Output:      1000,
		Downtime:    downtime,
		Efficiency:  oee + 5,
		OEE:         oee,
		QualityRate: 0.95,
	}
}

func forecast(machine string, n int) []model.Prediction {
	out := make([]model.Prediction, n)
	d := model.MustDate("2026-04-01")
	for i := range out {
		out[i] = model.Prediction{
			MachineID:           machine,
			Date:                d.AddDays(i),
			PredictedEfficiency: 88,
			PredictedOEE:        80,
			Confidence:          0.85,
		}
	}
	return out
}

// withConfig installs c as the command config for the duration of the test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}
