package model

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Dates validate as their wire string so "required" rejects the zero day.
		validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(Date); ok {
				return d.String()
			}
			return nil
		}, Date{})
	})
	return validate
}

// Validate checks struct tags on a single value.
func Validate(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return eris.Wrap(err, "model: validation failed")
	}
	return nil
}

// ValidateRecords checks every record and reports the first invalid index.
func ValidateRecords(records []ProductionRecord) error {
	for i := range records {
		if err := validatorInstance().Struct(records[i]); err != nil {
			return eris.Wrapf(err, "model: record %d (%s %s) invalid", i, records[i].MachineID, records[i].Date)
		}
	}
	return nil
}

// ValidatePredictions checks every prediction's shape.
func ValidatePredictions(preds []Prediction) error {
	for i := range preds {
		if err := validatorInstance().Struct(preds[i]); err != nil {
			return eris.Wrapf(err, "model: prediction %d (%s %s) invalid", i, preds[i].MachineID, preds[i].Date)
		}
	}
	return nil
}
