package plantapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/model"
)

func (c *httpClient) Train(ctx context.Context) (*model.TrainingResult, error) {
	var result model.TrainingResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/ml/train"}, &result); err != nil {
		return nil, eris.Wrap(err, "plantapi: train model")
	}
	if err := model.Validate(result); err != nil {
		return nil, eris.Wrap(err, "plantapi: training result")
	}
	return &result, nil
}

func (c *httpClient) Predict(ctx context.Context, machineID string, daysAhead int) ([]model.Prediction, error) {
	query := url.Values{"days_ahead": {strconv.Itoa(daysAhead)}}

	var preds []model.Prediction
	r := request{method: http.MethodPost, path: "/ml/predict/" + url.PathEscape(machineID), query: query}
	if err := c.do(ctx, r, &preds); err != nil {
		return nil, eris.Wrapf(err, "plantapi: predict %s", machineID)
	}
	if err := model.ValidatePredictions(preds); err != nil {
		return nil, eris.Wrap(err, "plantapi: predictions")
	}
	return preds, nil
}

func (c *httpClient) Predictions(ctx context.Context, machineID string) ([]model.Prediction, error) {
	var preds []model.Prediction
	r := request{method: http.MethodGet, path: "/predictions/" + url.PathEscape(machineID), idempotent: true}
	if err := c.do(ctx, r, &preds); err != nil {
		return nil, eris.Wrapf(err, "plantapi: list predictions %s", machineID)
	}
	if err := model.ValidatePredictions(preds); err != nil {
		return nil, eris.Wrap(err, "plantapi: stored predictions")
	}
	return preds, nil
}
