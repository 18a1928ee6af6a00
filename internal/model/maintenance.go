package model

import "github.com/rotisserie/eris"

// ErrMachineNotFound is returned when a machine id is unknown.
var ErrMachineNotFound = eris.New("machine not found")

// MaintenanceLog is one maintenance intervention on a machine. Duration is
// in hours.
type MaintenanceLog struct {
	ID         string  `json:"id,omitempty" yaml:"id,omitempty"`
	MachineID  string  `json:"machine_id" yaml:"machine_id" validate:"required"`
	Type       string  `json:"type" yaml:"type" validate:"required"`
	Duration   float64 `json:"duration" yaml:"duration" validate:"gte=0,lte=24"`
	Technician string  `json:"technician" yaml:"technician" validate:"required"`
	Notes      string  `json:"notes" yaml:"notes"`
	Date       Date    `json:"date" yaml:"date" validate:"required"`
}
