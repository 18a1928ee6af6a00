package model

// Prediction is one forecast machine-day produced by the remote model service.
type Prediction struct {
	ID                  string  `json:"id,omitempty" yaml:"id,omitempty"`
	MachineID           string  `json:"machine_id" yaml:"machine_id" validate:"required"`
	Date                Date    `json:"date" yaml:"date" validate:"required"`
	PredictedEfficiency float64 `json:"predicted_efficiency" yaml:"predicted_efficiency" validate:"gte=0,lte=100"`
	PredictedOEE        float64 `json:"predicted_oee" yaml:"predicted_oee" validate:"gte=0,lte=100"`
	Confidence          float64 `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
	ModelVersion        string  `json:"model_version,omitempty" yaml:"model_version,omitempty"`
}

// TrainingResult reports fit quality from a training run. The R² score may be
// negative when the fit is worse than a constant predictor.
type TrainingResult struct {
	Message           string  `json:"message,omitempty"`
	EfficiencyR2Score float64 `json:"efficiency_r2_score"`
	EfficiencyMSE     float64 `json:"efficiency_mse,omitempty"`
	OEER2Score        float64 `json:"oee_r2_score,omitempty"`
	TrainingSamples   int     `json:"training_samples" validate:"gte=0"`
}
