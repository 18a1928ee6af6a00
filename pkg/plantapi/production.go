package plantapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/model"
)

func (c *httpClient) Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error) {
	query := url.Values{}
	if !q.AllMachines() {
		query.Set("machine_id", q.MachineID)
	}
	if q.Days > 0 {
		query.Set("days", strconv.Itoa(q.Days))
	}

	var records []model.ProductionRecord
	err := c.do(ctx, request{method: http.MethodGet, path: "/production", query: query, idempotent: true}, &records)
	if err != nil {
		return nil, eris.Wrap(err, "plantapi: fetch production records")
	}
	if err := model.ValidateRecords(records); err != nil {
		return nil, eris.Wrap(err, "plantapi: production records")
	}
	return records, nil
}

func (c *httpClient) DashboardSummary(ctx context.Context) (model.DashboardKPIs, error) {
	var kpis model.DashboardKPIs
	err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard", idempotent: true}, &kpis)
	if err != nil {
		// The service answers 500/404 when there is no data to aggregate yet.
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusInternalServerError || apiErr.StatusCode == http.StatusNotFound) {
			return model.DashboardKPIs{}, eris.Wrapf(model.ErrNoData, "plantapi: dashboard (%s)", apiErr.Detail)
		}
		return model.DashboardKPIs{}, eris.Wrap(err, "plantapi: fetch dashboard")
	}
	return kpis, nil
}

func (c *httpClient) Machines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := c.do(ctx, request{method: http.MethodGet, path: "/machines", idempotent: true}, &machines); err != nil {
		return nil, eris.Wrap(err, "plantapi: list machines")
	}
	return machines, nil
}

func (c *httpClient) InitSampleData(ctx context.Context) error {
	if err := c.do(ctx, request{method: http.MethodPost, path: "/init-sample-data"}, nil); err != nil {
		return eris.Wrap(err, "plantapi: init sample data")
	}
	return nil
}

func (c *httpClient) SimulateDay(ctx context.Context) error {
	if err := c.do(ctx, request{method: http.MethodPost, path: "/simulate-data"}, nil); err != nil {
		return eris.Wrap(err, "plantapi: simulate day")
	}
	return nil
}
