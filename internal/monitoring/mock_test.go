package monitoring

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/plantwatch/internal/model"
)

type mockFleet struct {
	mock.Mock
}

func (m *mockFleet) Machines(ctx context.Context) ([]model.Machine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Machine), args.Error(1)
}

func (m *mockFleet) Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductionRecord), args.Error(1)
}

func day(machine, date string, oee, downtime float64) model.ProductionRecord {
	return model.ProductionRecord{
		MachineID:   machine,
		Date:        model.MustDate(date),
		Output:      1000,
		Downtime:    downtime,
		Efficiency:  oee + 5,
		OEE:         oee,
		QualityRate: 1,
	}
}

var (
	healthy = []model.ProductionRecord{
		day("m1", "2026-03-01", 85, 2),
		day("m1", "2026-03-02", 81, 3),
		day("m1", "2026-03-03", 89, 1),
	}
	failing = []model.ProductionRecord{
		day("m2", "2026-03-01", 50, 20),
		day("m2", "2026-03-02", 55, 18),
		day("m2", "2026-03-03", 45, 22),
	}
	fleet = []model.Machine{
		{ID: "m1", Name: "Conveyor Line A"},
		{ID: "m2", Name: "Assembly Robot B"},
		{ID: "m3", Name: "Packaging Unit C"},
	}
)

func fleetSource() *mockFleet {
	src := &mockFleet{}
	src.On("Machines", mock.Anything).Return(fleet, nil)
	src.On("Records", mock.Anything, model.RecordQuery{MachineID: "m1", Days: 7}).Return(healthy, nil)
	src.On("Records", mock.Anything, model.RecordQuery{MachineID: "m2", Days: 7}).Return(failing, nil)
	src.On("Records", mock.Anything, model.RecordQuery{MachineID: "m3", Days: 7}).Return([]model.ProductionRecord{}, nil)
	return src
}
