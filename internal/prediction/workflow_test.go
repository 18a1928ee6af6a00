package prediction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/model"
)

func TestTrain_Success(t *testing.T) {
	svc := &mockService{}
	svc.On("Train", mock.Anything).Return(&model.TrainingResult{EfficiencyR2Score: 0.873, TrainingSamples: 120}, nil)

	w := New(svc)
	res, err := w.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, res.TrainingSamples)

	snap := w.Snapshot()
	assert.Equal(t, Trained, snap.TrainState)
	require.NotNil(t, snap.Training)
	assert.Equal(t, 0.873, snap.Training.EfficiencyR2Score)
	assert.Contains(t, snap.TrainMessage, "Model trained successfully")
	assert.Contains(t, snap.TrainMessage, "120")
	svc.AssertExpectations(t)
}

func TestTrain_NegativeScoreIsStillSuccess(t *testing.T) {
	svc := &mockService{}
	svc.On("Train", mock.Anything).Return(&model.TrainingResult{EfficiencyR2Score: -0.4, TrainingSamples: 12}, nil)

	w := New(svc)
	_, err := w.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Trained, w.Snapshot().TrainState)
}

func TestTrain_SurfacesServiceDetailVerbatim(t *testing.T) {
	svc := &mockService{}
	detail := "Not enough data to train model. Need at least 10 records."
	svc.On("Train", mock.Anything).Return(nil, &detailErr{status: 400, detail: detail}).Once()

	w := New(svc)
	_, err := w.Train(context.Background())
	require.Error(t, err)

	var terr *ModelTrainingError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, detail, terr.Message)

	snap := w.Snapshot()
	assert.Equal(t, TrainError, snap.TrainState)
	assert.Equal(t, detail, snap.TrainMessage)
	svc.AssertNumberOfCalls(t, "Train", 1)
}

func TestTrain_GenericMessageWithoutDetail(t *testing.T) {
	svc := &mockService{}
	svc.On("Train", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	w := New(svc)
	_, err := w.Train(context.Background())
	var terr *ModelTrainingError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "Error training model", terr.Message)

	fr := New(svc, WithLocale("fr"))
	_, err = fr.Train(context.Background())
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "Erreur lors de l'entraînement du modèle", terr.Message)
}

func TestPredict_EmptyMachineMakesNoCall(t *testing.T) {
	svc := &mockService{}
	w := New(svc)

	_, err := w.Predict(context.Background(), "", 7)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "machine_id", verr.Field)
	assert.Equal(t, "Please select a machine", verr.Message)

	snap := w.Snapshot()
	assert.Equal(t, PredictError, snap.PredictState)
	assert.Equal(t, "Please select a machine", snap.PredictMessage)
	svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestPredict_NonPositiveHorizonRejected(t *testing.T) {
	svc := &mockService{}
	w := New(svc)

	for _, days := range []int{0, -3} {
		_, err := w.Predict(context.Background(), "m-1", days)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "days_ahead", verr.Field)
	}
	svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestPredict_SuccessReplacesSet(t *testing.T) {
	svc := &mockService{}
	svc.On("Predict", mock.Anything, "m-1", Preset7Days).Return(series("m-1", 7), nil).Once()
	svc.On("Predict", mock.Anything, "m-1", Preset14Days).Return(series("m-1", 14), nil).Once()

	w := New(svc)
	preds, err := w.Predict(context.Background(), "m-1", Preset7Days)
	require.NoError(t, err)
	assert.Len(t, preds, 7)

	snap := w.Snapshot()
	assert.Equal(t, PredictionsReady, snap.PredictState)
	assert.Equal(t, "7 predictions generated successfully", snap.PredictMessage)
	assert.Len(t, snap.Predictions, 7)

	_, err = w.Predict(context.Background(), "m-1", Preset14Days)
	require.NoError(t, err)
	assert.Len(t, w.Snapshot().Predictions, 14)
	svc.AssertExpectations(t)
}

func TestPredict_UntrainedSurfacesDetail(t *testing.T) {
	svc := &mockService{}
	svc.On("Predictions", mock.Anything, "m-1").Return(series("m-1", 3), nil)
	detail := "No trained model found. Train a model first."
	svc.On("Predict", mock.Anything, "m-1", 7).Return(nil, &detailErr{status: 400, detail: detail})

	w := New(svc)
	w.SelectMachine(context.Background(), "m-1")
	require.Len(t, w.Snapshot().Predictions, 3)

	_, err := w.Predict(context.Background(), "m-1", 7)
	var perr *PredictionServiceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, detail, perr.Message)
	assert.Equal(t, "m-1", perr.MachineID)

	snap := w.Snapshot()
	assert.Equal(t, PredictError, snap.PredictState)
	assert.Equal(t, detail, snap.PredictMessage)
	assert.Len(t, snap.Predictions, 3, "failed predict leaves the previous set")
}

func TestLoadExisting_ErrorSwallowed(t *testing.T) {
	svc := &mockService{}
	svc.On("Predict", mock.Anything, "m-1", 7).Return(series("m-1", 7), nil)
	svc.On("Predictions", mock.Anything, "m-1").Return(nil, errors.New("timeout"))

	w := New(svc)
	_, err := w.Predict(context.Background(), "m-1", 7)
	require.NoError(t, err)

	w.LoadExisting(context.Background(), "m-1")
	snap := w.Snapshot()
	assert.Len(t, snap.Predictions, 7)
	assert.Equal(t, PredictionsReady, snap.PredictState)
}

func TestLoadExisting_EmptyMachineIsNoop(t *testing.T) {
	svc := &mockService{}
	New(svc).LoadExisting(context.Background(), "")
	svc.AssertNotCalled(t, "Predictions", mock.Anything, mock.Anything)
}

func TestSelectMachine_ClearsThenLoads(t *testing.T) {
	svc := &mockService{}
	svc.On("Predict", mock.Anything, "m-1", 7).Return(series("m-1", 7), nil)
	svc.On("Predictions", mock.Anything, "m-2").Return(nil, errors.New("unavailable"))

	w := New(svc)
	_, err := w.Predict(context.Background(), "m-1", 7)
	require.NoError(t, err)

	w.SelectMachine(context.Background(), "m-2")
	snap := w.Snapshot()
	assert.Equal(t, "m-2", snap.MachineID)
	assert.Empty(t, snap.Predictions, "set is cleared even when the load fails")
	assert.Equal(t, PredictIdle, snap.PredictState)
}

func TestPredict_LastResponseWins(t *testing.T) {
	svc := &mockService{}
	started := make(chan struct{})
	release := make(chan struct{})

	svc.On("Predict", mock.Anything, "m-1", 7).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(series("m-1", 7), nil).Once()
	svc.On("Predict", mock.Anything, "m-2", 7).Return(series("m-2", 7), nil).Once()

	w := New(svc)

	var (
		wg   sync.WaitGroup
		err1 error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err1 = w.Predict(context.Background(), "m-1", 7)
	}()

	<-started
	preds2, err2 := w.Predict(context.Background(), "m-2", 7)
	require.NoError(t, err2)
	require.Len(t, preds2, 7)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, err1, ErrSuperseded)
	snap := w.Snapshot()
	assert.Equal(t, "m-2", snap.MachineID)
	require.Len(t, snap.Predictions, 7)
	for _, p := range snap.Predictions {
		assert.Equal(t, "m-2", p.MachineID)
	}
	assert.Equal(t, PredictionsReady, snap.PredictState)
}

func TestSelectMachine_SupersedesInFlightPredict(t *testing.T) {
	svc := &mockService{}
	started := make(chan struct{})
	release := make(chan struct{})

	svc.On("Predict", mock.Anything, "m-1", 7).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(series("m-1", 7), nil)
	svc.On("Predictions", mock.Anything, "m-3").Return(series("m-3", 2), nil)

	w := New(svc)
	done := make(chan error, 1)
	go func() {
		_, err := w.Predict(context.Background(), "m-1", 7)
		done <- err
	}()

	<-started
	w.SelectMachine(context.Background(), "m-3")
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	snap := w.Snapshot()
	assert.Equal(t, "m-3", snap.MachineID)
	require.Len(t, snap.Predictions, 2)
	assert.Equal(t, "m-3", snap.Predictions[0].MachineID)
}

func TestTrain_Superseded(t *testing.T) {
	svc := &mockService{}
	started := make(chan struct{})
	release := make(chan struct{})

	svc.On("Train", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&model.TrainingResult{EfficiencyR2Score: 0.1, TrainingSamples: 10}, nil).Once()
	svc.On("Train", mock.Anything).Return(&model.TrainingResult{EfficiencyR2Score: 0.9, TrainingSamples: 50}, nil).Once()

	w := New(svc)
	done := make(chan error, 1)
	go func() {
		_, err := w.Train(context.Background())
		done <- err
	}()
	<-started

	res, err := w.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, res.TrainingSamples)

	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, 50, w.Snapshot().Training.TrainingSamples)
}

func TestReset(t *testing.T) {
	svc := &mockService{}
	svc.On("Train", mock.Anything).Return(nil, errors.New("boom"))

	w := New(svc)
	_, _ = w.Train(context.Background())
	_, _ = w.Predict(context.Background(), "", 7)

	snap := w.Snapshot()
	require.Equal(t, TrainError, snap.TrainState)
	require.Equal(t, PredictError, snap.PredictState)

	w.Reset()
	snap = w.Snapshot()
	assert.Equal(t, TrainIdle, snap.TrainState)
	assert.Equal(t, PredictIdle, snap.PredictState)
	assert.Empty(t, snap.TrainMessage)
	assert.Empty(t, snap.PredictMessage)
}

func TestSnapshot_IsACopy(t *testing.T) {
	svc := &mockService{}
	svc.On("Predict", mock.Anything, "m-1", 1).Return(series("m-1", 1), nil)

	w := New(svc)
	_, err := w.Predict(context.Background(), "m-1", 1)
	require.NoError(t, err)

	snap := w.Snapshot()
	snap.Predictions[0].PredictedOEE = 0
	assert.Equal(t, 72.0, w.Snapshot().Predictions[0].PredictedOEE)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "training", Training.String())
	assert.Equal(t, "ready", PredictionsReady.String())
	assert.Equal(t, "unknown", TrainState(9).String())
	b, err := PredictError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(b))
}

func TestPredict_MachineSwitchClearsPreviousSet(t *testing.T) {
	svc := &mockService{}
	svc.On("Predict", mock.Anything, "m-1", 7).Return(series("m-1", 7), nil)
	svc.On("Predict", mock.Anything, "m-2", 7).Return(nil, errors.New("bad gateway"))

	w := New(svc)
	_, err := w.Predict(context.Background(), "m-1", 7)
	require.NoError(t, err)

	_, err = w.Predict(context.Background(), "m-2", 7)
	require.Error(t, err)

	snap := w.Snapshot()
	assert.Equal(t, "m-2", snap.MachineID)
	assert.Equal(t, PredictError, snap.PredictState)
	assert.Empty(t, snap.Predictions, "m-1 predictions must not be shown under m-2")
	assert.Empty(t, snap.Confidence)
}

func TestPredict_SupersededByLoadExistingSettles(t *testing.T) {
	svc := &mockService{}
	started := make(chan struct{})
	release := make(chan struct{})

	svc.On("Predict", mock.Anything, "m-1", 7).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(series("m-1", 7), nil)
	svc.On("Predictions", mock.Anything, "m-1").Return(series("m-1", 2), nil)

	w := New(svc)
	done := make(chan error, 1)
	go func() {
		_, err := w.Predict(context.Background(), "m-1", 7)
		done <- err
	}()

	<-started
	w.LoadExisting(context.Background(), "m-1")
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	snap := w.Snapshot()
	assert.Equal(t, PredictIdle, snap.PredictState, "track must not stay predicting")
	assert.Len(t, snap.Predictions, 2)
}

func TestPredict_SupersededByNewerPredictKeepsPredicting(t *testing.T) {
	svc := &mockService{}
	firstStarted := make(chan struct{})
	secondStarted := make(chan struct{})
	release := make(chan struct{})

	svc.On("Predict", mock.Anything, "m-1", 7).
		Run(func(mock.Arguments) {
			close(firstStarted)
			<-release
		}).
		Return(series("m-1", 7), nil).Once()
	svc.On("Predict", mock.Anything, "m-1", 14).
		Run(func(mock.Arguments) {
			close(secondStarted)
			<-release
		}).
		Return(series("m-1", 14), nil).Once()

	w := New(svc)
	first := make(chan error, 1)
	go func() {
		_, err := w.Predict(context.Background(), "m-1", 7)
		first <- err
	}()
	<-firstStarted

	second := make(chan error, 1)
	go func() {
		_, err := w.Predict(context.Background(), "m-1", 14)
		second <- err
	}()
	<-secondStarted

	close(release)
	errs := []error{<-first, <-second}
	assert.ErrorIs(t, errs[0], ErrSuperseded)
	assert.NoError(t, errs[1])

	snap := w.Snapshot()
	assert.Equal(t, PredictionsReady, snap.PredictState)
	assert.Len(t, snap.Predictions, 14)
}

func TestPredict_RejectionSupersedesInFlight(t *testing.T) {
	svc := &mockService{}
	started := make(chan struct{})
	release := make(chan struct{})

	svc.On("Predict", mock.Anything, "m-1", 7).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(series("m-1", 7), nil).Once()

	w := New(svc)
	done := make(chan error, 1)
	go func() {
		_, err := w.Predict(context.Background(), "m-1", 7)
		done <- err
	}()

	<-started
	_, err := w.Predict(context.Background(), "m-1", 0)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	snap := w.Snapshot()
	assert.Equal(t, PredictError, snap.PredictState)
	assert.Equal(t, "Forecast horizon must be a positive number of days", snap.PredictMessage)
	assert.Empty(t, snap.Predictions)
}

func TestSnapshot_ConfidenceTiers(t *testing.T) {
	svc := &mockService{}
	svc.On("Predict", mock.Anything, "m-1", 5).Return(series("m-1", 5), nil)

	w := New(svc)
	_, err := w.Predict(context.Background(), "m-1", 5)
	require.NoError(t, err)

	snap := w.Snapshot()
	require.Len(t, snap.Confidence, 5)
	assert.Equal(t, insight.TierHigh, snap.Confidence[0].Tier)
	assert.Equal(t, "High", snap.Confidence[0].Label)
	assert.Equal(t, "#10b981", snap.Confidence[0].Color)
	assert.Equal(t, insight.TierMedium, snap.Confidence[4].Tier)
	assert.Equal(t, "#f59e0b", snap.Confidence[4].Color)

	fr := New(svc, WithLocale("fr"))
	_, err = fr.Predict(context.Background(), "m-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "Élevée", fr.Snapshot().Confidence[0].Label)
}

func TestSnapshot_ConfidenceEmptyWithoutPredictions(t *testing.T) {
	snap := New(&mockService{}).Snapshot()
	assert.NotNil(t, snap.Confidence)
	assert.Empty(t, snap.Confidence)
}
