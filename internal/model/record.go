// Package model defines the production, prediction and dashboard types shared
// across plantwatch.
package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// DefaultQualityRate is applied when a record arrives without a quality rate.
const DefaultQualityRate = 1.0

// ProductionRecord is one machine-day of production. Records are read-only
// once fetched.
type ProductionRecord struct {
	ID           string  `json:"id,omitempty" yaml:"id,omitempty"`
	MachineID    string  `json:"machine_id" yaml:"machine_id" validate:"required"`
	Date         Date    `json:"date" yaml:"date" validate:"required"`
	Output       float64 `json:"output" yaml:"output" validate:"gte=0"`
	Downtime     float64 `json:"downtime" yaml:"downtime" validate:"gte=0,lte=24"`
	Efficiency   float64 `json:"efficiency" yaml:"efficiency" validate:"gte=0,lte=100"`
	OEE          float64 `json:"oee" yaml:"oee" validate:"gte=0,lte=100"`
	QualityRate  float64 `json:"quality_rate" yaml:"quality_rate" validate:"gte=0,lte=1"`
	Availability float64 `json:"availability,omitempty" yaml:"availability,omitempty" validate:"gte=0,lte=100"`
	Performance  float64 `json:"performance,omitempty" yaml:"performance,omitempty" validate:"gte=0,lte=100"`
}

// UnmarshalJSON applies DefaultQualityRate when quality_rate is absent or null.
func (r *ProductionRecord) UnmarshalJSON(b []byte) error {
	type plain ProductionRecord
	aux := struct {
		*plain
		QualityRate *float64 `json:"quality_rate"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return eris.Wrap(err, "model: decode production record")
	}
	if aux.QualityRate != nil {
		r.QualityRate = *aux.QualityRate
	} else {
		r.QualityRate = DefaultQualityRate
	}
	return nil
}

// RecordQuery selects records for one machine (or all machines when
// MachineID is empty) over the trailing Days window.
type RecordQuery struct {
	MachineID string
	Days      int
}

// AllMachines reports whether the query spans every machine.
func (q RecordQuery) AllMachines() bool {
	return q.MachineID == ""
}
