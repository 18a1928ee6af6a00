package prediction

import (
	"errors"

	"github.com/rotisserie/eris"
)

// ErrSuperseded is returned to a caller whose result arrived after a newer
// request for the same track was issued. The result was discarded.
var ErrSuperseded = eris.New("prediction: superseded by a newer request")

// ValidationError rejects a request before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ModelTrainingError is a failed training run. Message is the service's own
// explanation when it sent one, otherwise a generic localized message.
type ModelTrainingError struct {
	Message string
	Err     error
}

func (e *ModelTrainingError) Error() string { return e.Message }

func (e *ModelTrainingError) Unwrap() error { return e.Err }

// PredictionServiceError is a failed prediction request.
type PredictionServiceError struct {
	MachineID string
	Message   string
	Err       error
}

func (e *PredictionServiceError) Error() string { return e.Message }

func (e *PredictionServiceError) Unwrap() error { return e.Err }

// detailer is implemented by collaborator errors that carry the remote
// service's explanation (plantapi.APIError).
type detailer interface {
	ServiceDetail() string
}

// serviceDetail returns the first non-empty service explanation in err's
// chain, or fallback.
func serviceDetail(err error, fallback string) string {
	var d detailer
	if errors.As(err, &d) && d.ServiceDetail() != "" {
		return d.ServiceDetail()
	}
	return fallback
}
