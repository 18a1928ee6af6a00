//go:build !integration

package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/plantwatch/internal/model"
)

func TestAddMachine_ValidatesBeforeCreate(t *testing.T) {
	reg := &mockRegistry{}

	_, err := addMachine(context.Background(), reg, model.Machine{Name: "Press A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name, type and site are required")
	reg.AssertNotCalled(t, "CreateMachine", mock.Anything, mock.Anything)
}

func TestAddMachine_WrapsRegistryError(t *testing.T) {
	reg := &mockRegistry{}
	m := model.Machine{Name: "Press A", Type: "Press", Site: "Plant 1"}
	reg.On("CreateMachine", mock.Anything, m).Return(model.Machine{}, errors.New("UNIQUE constraint failed"))

	_, err := addMachine(context.Background(), reg, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add machine Press A")
}

func TestParseMaintenanceLog(t *testing.T) {
	now := time.Date(2026, 3, 30, 15, 0, 0, 0, time.UTC)

	log, err := parseMaintenanceLog("m1", "preventive", 2, "R. Ortiz", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-30", log.Date.String(), "empty date means today")

	log, err = parseMaintenanceLog("m1", "preventive", 2, "R. Ortiz", "belt", "2026-03-12", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", log.Date.String())
	assert.Equal(t, "belt", log.Notes)

	_, err = parseMaintenanceLog("m1", "preventive", 2, "R. Ortiz", "", "12/03/2026", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --date")
}

func TestAddMaintenanceLog(t *testing.T) {
	reg := &mockRegistry{}
	log := model.MaintenanceLog{MachineID: "m1", Type: "corrective", Duration: 3, Technician: "R. Ortiz", Date: model.MustDate("2026-03-12")}
	created := log
	created.ID = "l1"
	reg.On("CreateMaintenanceLog", mock.Anything, log).Return(created, nil)

	got, err := addMaintenanceLog(context.Background(), reg, log)
	require.NoError(t, err)
	assert.Equal(t, "l1", got.ID)

	_, err = addMaintenanceLog(context.Background(), reg, model.MaintenanceLog{MachineID: "m1", Date: model.MustDate("2026-03-12")})
	require.Error(t, err)
	reg.AssertNumberOfCalls(t, "CreateMaintenanceLog", 1)
}

func TestFormatMachines(t *testing.T) {
	var buf bytes.Buffer
	formatMachines(&buf, nil)
	assert.Equal(t, "No machines.\n", buf.String())

	buf.Reset()
	formatMachines(&buf, []model.Machine{{ID: "m1", Name: "Press A", Type: "Press", Site: "Plant 1", Status: model.MachineMaintenance}})
	out := buf.String()
	assert.Contains(t, out, "Press A")
	assert.Contains(t, out, "maintenance")
}

func TestFormatMaintenance(t *testing.T) {
	var buf bytes.Buffer
	formatMaintenance(&buf, nil)
	assert.Equal(t, "No maintenance logs.\n", buf.String())

	buf.Reset()
	formatMaintenance(&buf, []model.MaintenanceLog{{
		MachineID: "m1", Type: "corrective", Duration: 3.5, Technician: "R. Ortiz", Notes: "spindle", Date: model.MustDate("2026-03-12"),
	}})
	out := buf.String()
	assert.Contains(t, out, "2026-03-12")
	assert.Contains(t, out, "3.5h")
	assert.Contains(t, out, "spindle")
}

func TestMaintenanceCommand_HasAdd(t *testing.T) {
	for _, parent := range []string{"machines", "maintenance"} {
		var found bool
		for _, c := range rootCmd.Commands() {
			if c.Name() != parent {
				continue
			}
			for _, sub := range c.Commands() {
				if sub.Name() == "add" {
					found = true
				}
			}
		}
		assert.True(t, found, "%s should have subcommand add", parent)
	}
	for _, name := range []string{"machine", "type", "duration", "technician", "notes", "date"} {
		assert.NotNil(t, maintenanceAddCmd.Flags().Lookup(name), "maintenance add should have --%s flag", name)
	}
}
