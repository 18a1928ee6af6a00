package model

import "github.com/rotisserie/eris"

// ErrNoData is the fetch layer's explicit "nothing to show yet" signal. It is
// an expected state, not a failure.
var ErrNoData = eris.New("no production data")

// DashboardKPIs is the top-level KPI payload.
type DashboardKPIs struct {
	TotalMachines     int     `json:"total_machines" yaml:"total_machines"`
	AverageOEE        float64 `json:"average_oee" yaml:"average_oee"`
	AverageEfficiency float64 `json:"average_efficiency" yaml:"average_efficiency"`
	TotalDowntime     float64 `json:"total_downtime" yaml:"total_downtime"`
	ProductionOutput  float64 `json:"production_output" yaml:"production_output"`
	MTBF              float64 `json:"mtbf" yaml:"mtbf"`
	MaintenanceAlerts int     `json:"maintenance_alerts" yaml:"maintenance_alerts"`
}

// MachineStatus is the operating status of a machine.
type MachineStatus string

const (
	MachineOperational MachineStatus = "operational"
	MachineMaintenance MachineStatus = "maintenance"
	MachineOffline     MachineStatus = "offline"
)

// Machine is a piece of monitored equipment.
type Machine struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name" validate:"required"`
	Type   string        `json:"type" yaml:"type" validate:"required"`
	Site   string        `json:"site" yaml:"site" validate:"required"`
	Status MachineStatus `json:"status" yaml:"status" validate:"omitempty,oneof=operational maintenance offline"`
}

// User is the authenticated operator.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
