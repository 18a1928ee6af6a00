package prediction

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/plantwatch/internal/model"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Train(ctx context.Context) (*model.TrainingResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrainingResult), args.Error(1)
}

func (m *mockService) Predict(ctx context.Context, machineID string, daysAhead int) ([]model.Prediction, error) {
	args := m.Called(ctx, machineID, daysAhead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prediction), args.Error(1)
}

func (m *mockService) Predictions(ctx context.Context, machineID string) ([]model.Prediction, error) {
	args := m.Called(ctx, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prediction), args.Error(1)
}

// detailErr mimics a transport error that carries the service's explanation.
type detailErr struct {
	status int
	detail string
}

func (e *detailErr) Error() string         { return "service error" }
func (e *detailErr) ServiceDetail() string { return e.detail }

func series(machineID string, n int) []model.Prediction {
	start := model.MustDate("2026-03-10")
	out := make([]model.Prediction, n)
	for i := range out {
		out[i] = model.Prediction{
			MachineID:           machineID,
			Date:                start.AddDays(i),
			PredictedEfficiency: 85,
			PredictedOEE:        72,
			Confidence:          0.95 - float64(i)*0.05,
		}
	}
	return out
}
