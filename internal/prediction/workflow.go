// Package prediction drives the train → predict → display workflow against
// the remote model service. Training and prediction are two independent
// tracks; each settles into a ready state or a stored message.
//
// Requests that write the displayed prediction set are ordered by a
// monotonic token. A response is applied only if its token is still the
// latest one issued, so a slow answer for a previous machine can never
// overwrite the current selection.
package prediction

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/i18n"
	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/model"
)

// Service is the remote model service.
type Service interface {
	Train(ctx context.Context) (*model.TrainingResult, error)
	Predict(ctx context.Context, machineID string, daysAhead int) ([]model.Prediction, error)
	Predictions(ctx context.Context, machineID string) ([]model.Prediction, error)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLocale sets the language of stored messages.
func WithLocale(locale string) Option {
	return func(w *Workflow) {
		w.locale = locale
	}
}

// Workflow is safe for concurrent use. It does no background work.
type Workflow struct {
	svc        Service
	locale     string
	classifier *insight.Classifier

	mu         sync.Mutex
	trainSeq   uint64
	predictSeq uint64
	pending    uint64 // token of the last Predict to enter Predicting
	state      Snapshot
}

// New returns an idle workflow.
func New(svc Service, opts ...Option) *Workflow {
	w := &Workflow{svc: svc, locale: "en"}
	for _, opt := range opts {
		opt(w)
	}
	w.classifier = insight.NewClassifier(w.locale)
	return w
}

func (w *Workflow) sprintf(key string, args ...any) string {
	return i18n.NewPrinter(w.locale).Sprintf(key, args...)
}

// Snapshot returns a copy of the current view state with one confidence
// tier per displayed prediction.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.state.clone()
	snap.Confidence = make([]insight.Confidence, len(snap.Predictions))
	for i, p := range snap.Predictions {
		snap.Confidence[i] = w.classifier.Confidence(p.Confidence)
	}
	return snap
}

// Train runs one training request. It is never retried automatically.
func (w *Workflow) Train(ctx context.Context) (*model.TrainingResult, error) {
	w.mu.Lock()
	w.trainSeq++
	token := w.trainSeq
	w.state.TrainState = Training
	w.state.TrainMessage = ""
	w.mu.Unlock()

	res, err := w.svc.Train(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.trainSeq {
		return nil, ErrSuperseded
	}

	if err != nil {
		terr := &ModelTrainingError{Message: serviceDetail(err, w.sprintf(i18n.TrainFailed)), Err: err}
		w.state.TrainState = TrainError
		w.state.TrainMessage = terr.Message
		zap.L().Warn("prediction: training failed", zap.Error(err))
		return nil, terr
	}

	result := *res
	w.state.TrainState = Trained
	w.state.Training = &result
	w.state.TrainMessage = w.sprintf(i18n.TrainSucceeded, res.EfficiencyR2Score, res.TrainingSamples)
	zap.L().Info("prediction: model trained",
		zap.Float64("efficiency_r2", res.EfficiencyR2Score),
		zap.Int("training_samples", res.TrainingSamples),
	)
	return &result, nil
}

// Predict requests daysAhead predictions for machineID and, on success,
// replaces the displayed set wholesale. Invalid input is rejected without
// calling the service.
func (w *Workflow) Predict(ctx context.Context, machineID string, daysAhead int) ([]model.Prediction, error) {
	if machineID == "" {
		return nil, w.reject("machine_id", w.sprintf(i18n.SelectMachine))
	}
	if daysAhead <= 0 {
		return nil, w.reject("days_ahead", w.sprintf(i18n.DaysAheadInvalid))
	}

	w.mu.Lock()
	w.predictSeq++
	token := w.predictSeq
	w.pending = token
	w.state.PredictState = Predicting
	w.state.PredictMessage = ""
	if machineID != w.state.MachineID {
		w.state.Predictions = nil
	}
	w.state.MachineID = machineID
	w.mu.Unlock()

	preds, err := w.svc.Predict(ctx, machineID, daysAhead)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.predictSeq {
		// No newer Predict took over, so nothing else will settle the track.
		if w.pending == token && w.state.PredictState == Predicting {
			w.state.PredictState = PredictIdle
		}
		return nil, ErrSuperseded
	}

	if err != nil {
		perr := &PredictionServiceError{
			MachineID: machineID,
			Message:   serviceDetail(err, w.sprintf(i18n.PredictFailed)),
			Err:       err,
		}
		w.state.PredictState = PredictError
		w.state.PredictMessage = perr.Message
		zap.L().Warn("prediction: predict failed", zap.String("machine_id", machineID), zap.Error(err))
		return nil, perr
	}

	w.state.Predictions = slices.Clone(preds)
	w.state.PredictState = PredictionsReady
	w.state.PredictMessage = w.sprintf(i18n.PredictSucceeded, len(preds))
	return slices.Clone(preds), nil
}

// reject surfaces a validation error. It supersedes any in-flight Predict so
// the error is not overwritten by an older response.
func (w *Workflow) reject(field, msg string) *ValidationError {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.predictSeq++
	w.state.PredictState = PredictError
	w.state.PredictMessage = msg
	return &ValidationError{Field: field, Message: msg}
}

// LoadExisting fetches stored predictions for machineID. Failures are logged
// and leave the displayed set untouched.
func (w *Workflow) LoadExisting(ctx context.Context, machineID string) {
	if machineID == "" {
		return
	}

	w.mu.Lock()
	w.predictSeq++
	token := w.predictSeq
	w.mu.Unlock()

	preds, err := w.svc.Predictions(ctx, machineID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.predictSeq {
		return
	}
	if err != nil {
		zap.L().Warn("prediction: load existing predictions failed",
			zap.String("machine_id", machineID),
			zap.Error(err),
		)
		return
	}
	w.state.Predictions = slices.Clone(preds)
}

// SelectMachine switches the displayed machine. The current set is cleared
// immediately and any in-flight request for the previous machine is
// superseded before stored predictions are loaded.
func (w *Workflow) SelectMachine(ctx context.Context, machineID string) {
	w.mu.Lock()
	w.predictSeq++
	w.state.MachineID = machineID
	w.state.Predictions = nil
	if w.state.PredictState != PredictError {
		w.state.PredictState = PredictIdle
		w.state.PredictMessage = ""
	}
	w.mu.Unlock()

	w.LoadExisting(ctx, machineID)
}

// Reset returns any track in an error state to idle.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.TrainState == TrainError {
		w.state.TrainState = TrainIdle
		w.state.TrainMessage = ""
	}
	if w.state.PredictState == PredictError {
		w.state.PredictState = PredictIdle
		w.state.PredictMessage = ""
	}
}
