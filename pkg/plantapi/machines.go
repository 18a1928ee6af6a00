package plantapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/model"
)

func (c *httpClient) CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error) {
	if err := model.Validate(m); err != nil {
		return model.Machine{}, eris.Wrap(err, "plantapi: create machine")
	}
	body := struct {
		Name   string              `json:"name"`
		Type   string              `json:"type"`
		Site   string              `json:"site"`
		Status model.MachineStatus `json:"status,omitempty"`
	}{m.Name, m.Type, m.Site, m.Status}

	var created model.Machine
	if err := c.do(ctx, request{method: http.MethodPost, path: "/machines", body: body}, &created); err != nil {
		return model.Machine{}, eris.Wrapf(err, "plantapi: create machine %s", m.Name)
	}
	return created, nil
}

func (c *httpClient) Machine(ctx context.Context, id string) (model.Machine, error) {
	var m model.Machine
	r := request{method: http.MethodGet, path: "/machines/" + url.PathEscape(id), idempotent: true}
	if err := c.do(ctx, r, &m); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return model.Machine{}, eris.Wrapf(model.ErrMachineNotFound, "plantapi: machine %s", id)
		}
		return model.Machine{}, eris.Wrapf(err, "plantapi: get machine %s", id)
	}
	return m, nil
}

func (c *httpClient) MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error) {
	var logs []model.MaintenanceLog
	if err := c.do(ctx, request{method: http.MethodGet, path: "/maintenance", idempotent: true}, &logs); err != nil {
		return nil, eris.Wrap(err, "plantapi: list maintenance logs")
	}
	return logs, nil
}

func (c *httpClient) CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error) {
	if err := model.Validate(log); err != nil {
		return model.MaintenanceLog{}, eris.Wrap(err, "plantapi: create maintenance log")
	}
	log.ID = ""

	var created model.MaintenanceLog
	if err := c.do(ctx, request{method: http.MethodPost, path: "/maintenance", body: log}, &created); err != nil {
		return model.MaintenanceLog{}, eris.Wrapf(err, "plantapi: create maintenance log for %s", log.MachineID)
	}
	return created, nil
}
