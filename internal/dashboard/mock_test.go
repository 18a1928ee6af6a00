package dashboard

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/plantwatch/internal/model"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) DashboardSummary(ctx context.Context) (model.DashboardKPIs, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.DashboardKPIs), args.Error(1)
}

func (m *mockSource) Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductionRecord), args.Error(1)
}

type mockBootstrapper struct {
	mock.Mock
}

func (m *mockBootstrapper) InitSampleData(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBootstrapper) SimulateDay(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func rec(machine, date string, oee, downtime float64) model.ProductionRecord {
	return model.ProductionRecord{
		MachineID:   machine,
		Date:        model.MustDate(date),
		Output:      1000,
		Downtime:    downtime,
		Efficiency:  oee + 10,
		OEE:         oee,
		QualityRate: 1,
	}
}
