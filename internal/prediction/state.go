package prediction

import (
	"slices"

	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/model"
)

// TrainState is the training track of the workflow.
type TrainState int

const (
	TrainIdle TrainState = iota
	Training
	Trained
	TrainError
)

var trainStateNames = [...]string{"idle", "training", "trained", "error"}

func (s TrainState) String() string {
	if s < 0 || int(s) >= len(trainStateNames) {
		return "unknown"
	}
	return trainStateNames[s]
}

// MarshalText renders the state name in JSON and YAML.
func (s TrainState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// PredictState is the prediction track of the workflow.
type PredictState int

const (
	PredictIdle PredictState = iota
	Predicting
	PredictionsReady
	PredictError
)

var predictStateNames = [...]string{"idle", "predicting", "ready", "error"}

func (s PredictState) String() string {
	if s < 0 || int(s) >= len(predictStateNames) {
		return "unknown"
	}
	return predictStateNames[s]
}

// MarshalText renders the state name in JSON and YAML.
func (s PredictState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Forecast horizon presets offered to operators.
const (
	Preset7Days  = 7
	Preset14Days = 14
)

// Snapshot is an immutable copy of the workflow's view state. Confidence[i]
// is the display tier of Predictions[i].
type Snapshot struct {
	TrainState     TrainState            `json:"train_state"`
	TrainMessage   string                `json:"train_message,omitempty"`
	Training       *model.TrainingResult `json:"training,omitempty"`
	PredictState   PredictState          `json:"predict_state"`
	PredictMessage string                `json:"predict_message,omitempty"`
	MachineID      string                `json:"machine_id,omitempty"`
	Predictions    []model.Prediction    `json:"predictions"`
	Confidence     []insight.Confidence  `json:"confidence"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Training != nil {
		tr := *s.Training
		out.Training = &tr
	}
	out.Predictions = slices.Clone(s.Predictions)
	if out.Predictions == nil {
		out.Predictions = []model.Prediction{}
	}
	return out
}
