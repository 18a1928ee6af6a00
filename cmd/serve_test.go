//go:build !integration

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/plantwatch/internal/dashboard"
	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/internal/monitoring"
	"github.com/sells-group/plantwatch/internal/prediction"
)

func testRouter(backend *mockBackend, models prediction.Service) http.Handler {
	return registryRouter(backend, models, &mockRegistry{})
}

func registryRouter(backend *mockBackend, models prediction.Service, reg registry) http.Handler {
	return buildRouter(serverDeps{
		Dashboard:    dashboard.NewCoordinator(backend, backend),
		Registry:     reg,
		Analytics:    dashboard.NewAnalytics(backend, 30, "en"),
		Workflows:    newWorkflowRegistry(models, "en"),
		Fleet:        monitoring.NewCollector(backend, 2, 8, "en"),
		LookbackDays: 7,
		DaysAhead:    7,
		CORSOrigins:  []string{"*"},
	})
}

func serve(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return serveBody(t, h, method, target, "")
}

func serveBody(t *testing.T, h http.Handler, method, target, payload string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestRouter_Health(t *testing.T) {
	w, body := serve(t, testRouter(&mockBackend{}, &mockModels{}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_DashboardBootstrapState(t *testing.T) {
	backend := &mockBackend{}
	backend.On("DashboardSummary", mock.Anything).Return(model.DashboardKPIs{}, nil)

	w, body := serve(t, testRouter(backend, &mockModels{}), http.MethodGet, "/api/dashboard")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bootstrap", body["state"])
	backend.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
}

func TestRouter_DashboardError(t *testing.T) {
	backend := &mockBackend{}
	backend.On("DashboardSummary", mock.Anything).Return(model.DashboardKPIs{}, errors.New("connection refused"))

	w, body := serve(t, testRouter(backend, &mockModels{}), http.MethodGet, "/api/dashboard")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "error", body["state"])
	assert.Equal(t, "Failed to load dashboard data", body["message"])
}

func TestRouter_DashboardRefresh(t *testing.T) {
	backend := &mockBackend{}
	backend.On("DashboardSummary", mock.Anything).Return(model.DashboardKPIs{TotalMachines: 2, AverageOEE: 77}, nil)
	backend.On("Records", mock.Anything, mock.Anything).Return([]model.ProductionRecord{record("m1", "2026-03-01", 77, 2)}, nil)

	h := testRouter(backend, &mockModels{})
	w, body := serve(t, h, http.MethodPost, "/api/dashboard/refresh")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["state"])

	_, again := serve(t, h, http.MethodGet, "/api/dashboard")
	assert.Equal(t, body, again)
	backend.AssertNumberOfCalls(t, "DashboardSummary", 2)
}

func TestRouter_BootstrapFailure(t *testing.T) {
	backend := &mockBackend{}
	backend.On("InitSampleData", mock.Anything).Return(errors.New("forbidden"))

	w, body := serve(t, testRouter(backend, &mockModels{}), http.MethodPost, "/api/dashboard/bootstrap")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to initialize sample data", body["message"])
}

func TestRouter_AnalyticsReady(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Records", mock.Anything, model.RecordQuery{MachineID: "m1", Days: 7}).Return([]model.ProductionRecord{
		record("m1", "2026-03-01", 80, 2),
		record("m1", "2026-03-02", 84, 1),
	}, nil)

	w, body := serve(t, testRouter(backend, &mockModels{}), http.MethodGet, "/api/analytics?machine_id=m1&days=7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["state"])
	assert.InDelta(t, 2, body["record_count"], 1e-9)
	backend.AssertExpectations(t)
}

func TestRouter_AnalyticsBadDays(t *testing.T) {
	w, body := serve(t, testRouter(&mockBackend{}, &mockModels{}), http.MethodGet, "/api/analytics?days=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "days must be an integer", body["error"])
}

func TestRouter_PredictUsesDefaultHorizon(t *testing.T) {
	models := &mockModels{}
	models.On("Predict", mock.Anything, "m1", 7).Return(forecast("m1", 7), nil)

	w, body := serve(t, testRouter(&mockBackend{}, models), http.MethodPost, "/api/ml/predict/m1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", body["machine_id"])
	assert.Len(t, body["predictions"], 7)
	models.AssertExpectations(t)
}

func TestRouter_PredictCarriesConfidenceTiers(t *testing.T) {
	models := &mockModels{}
	models.On("Predict", mock.Anything, "m1", 2).Return(forecast("m1", 2), nil)

	w, body := serve(t, testRouter(&mockBackend{}, models), http.MethodPost, "/api/ml/predict/m1?days_ahead=2")
	assert.Equal(t, http.StatusOK, w.Code)
	tiers, ok := body["confidence"].([]any)
	require.True(t, ok)
	require.Len(t, tiers, 2)
	first := tiers[0].(map[string]any)
	assert.Equal(t, "high", first["tier"])
	assert.Equal(t, "High", first["label"])
	assert.Equal(t, "#10b981", first["color"])
}

func TestRouter_PredictRejectsHorizon(t *testing.T) {
	models := &mockModels{}

	w, body := serve(t, testRouter(&mockBackend{}, models), http.MethodPost, "/api/ml/predict/m1?days_ahead=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Forecast horizon must be a positive number of days", body["predict_message"])
	models.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_TrainAgainstLocalStore(t *testing.T) {
	w, body := serve(t, testRouter(&mockBackend{}, localModels{}), http.MethodPost, "/api/ml/train")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, errLocalModel.Error(), body["train_message"])
}

func TestRouter_TrainSuccess(t *testing.T) {
	models := &mockModels{}
	models.On("Train", mock.Anything).Return(&model.TrainingResult{EfficiencyR2Score: 0.82, TrainingSamples: 120}, nil)

	w, body := serve(t, testRouter(&mockBackend{}, models), http.MethodPost, "/api/ml/train")
	assert.Equal(t, http.StatusOK, w.Code)
	training, ok := body["training"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 120, training["training_samples"], 1e-9)
}

func TestRouter_StoredPredictions(t *testing.T) {
	models := &mockModels{}
	models.On("Predictions", mock.Anything, "m2").Return(forecast("m2", 3), nil)

	w, body := serve(t, testRouter(&mockBackend{}, models), http.MethodGet, "/api/predictions/m2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m2", body["machine_id"])
	assert.Len(t, body["predictions"], 3)
}

func TestRouter_Fleet(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Machines", mock.Anything).Return([]model.Machine{{ID: "m1", Name: "Press A"}}, nil)
	backend.On("Records", mock.Anything, model.RecordQuery{MachineID: "m1", Days: 7}).Return([]model.ProductionRecord{
		record("m1", "2026-03-01", 80, 9),
	}, nil)

	w, body := serve(t, testRouter(backend, &mockModels{}), http.MethodGet, "/api/fleet")
	assert.Equal(t, http.StatusOK, w.Code)
	machines, ok := body["machines"].([]any)
	require.True(t, ok)
	require.Len(t, machines, 1)
	assert.InDelta(t, 1, machines[0].(map[string]any)["maintenance_alerts"], 1e-9)
}

func TestRouter_FleetError(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Machines", mock.Anything).Return(nil, errors.New("timeout"))

	w, body := serve(t, testRouter(backend, &mockModels{}), http.MethodGet, "/api/fleet")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to collect fleet health", body["error"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()

	backend := &mockBackend{}
	h := buildRouter(serverDeps{
		Dashboard:   dashboard.NewCoordinator(backend, backend),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	backend.AssertNotCalled(t, "DashboardSummary", mock.Anything)
}

func TestWorkflowRegistry_PerToken(t *testing.T) {
	reg := newWorkflowRegistry(&mockModels{}, "en")

	a := httptest.NewRequest(http.MethodGet, "/", nil)
	a.Header.Set("Authorization", "Bearer alice")
	b := httptest.NewRequest(http.MethodGet, "/", nil)
	b.Header.Set("Authorization", "Bearer bob")

	assert.Same(t, reg.get(a), reg.get(a))
	assert.NotSame(t, reg.get(a), reg.get(b))
}

func TestRouter_LogoutDropsWorkflow(t *testing.T) {
	models := &mockModels{}
	models.On("Predict", mock.Anything, "m1", 7).Return(forecast("m1", 7), nil)
	h := testRouter(&mockBackend{}, models)

	req := httptest.NewRequest(http.MethodPost, "/api/ml/predict/m1", nil)
	req.Header.Set("Authorization", "Bearer alice")
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Authorization", "Bearer alice")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWorkflowRegistry_Drop(t *testing.T) {
	reg := newWorkflowRegistry(&mockModels{}, "en")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer alice")

	first := reg.get(req)
	reg.drop(req)
	assert.NotSame(t, first, reg.get(req))
}

func TestWorkflowStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, workflowStatus(nil))
	assert.Equal(t, http.StatusBadRequest, workflowStatus(&prediction.ValidationError{Field: "machine_id"}))
	assert.Equal(t, http.StatusConflict, workflowStatus(prediction.ErrSuperseded))
	assert.Equal(t, http.StatusBadGateway, workflowStatus(&prediction.ModelTrainingError{Message: "x"}))
}

func TestRouter_Machines(t *testing.T) {
	reg := &mockRegistry{}
	reg.On("Machines", mock.Anything).Return(nil, nil)
	h := registryRouter(&mockBackend{}, &mockModels{}, reg)

	req := httptest.NewRequest(http.MethodGet, "/api/machines", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRouter_CreateMachine(t *testing.T) {
	reg := &mockRegistry{}
	want := model.Machine{Name: "Press A", Type: "Press", Site: "Plant 1"}
	reg.On("CreateMachine", mock.Anything, want).Return(model.Machine{ID: "m9", Name: "Press A", Type: "Press", Site: "Plant 1", Status: model.MachineOperational}, nil)
	h := registryRouter(&mockBackend{}, &mockModels{}, reg)

	w, body := serveBody(t, h, http.MethodPost, "/api/machines", `{"name":"Press A","type":"Press","site":"Plant 1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m9", body["id"])
	assert.Equal(t, "operational", body["status"])

	w, _ = serveBody(t, h, http.MethodPost, "/api/machines", `{"name":"Press B"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	reg.AssertNumberOfCalls(t, "CreateMachine", 1)
}

func TestRouter_MachineNotFound(t *testing.T) {
	reg := &mockRegistry{}
	reg.On("Machine", mock.Anything, "ghost").Return(model.Machine{}, eris.Wrap(model.ErrMachineNotFound, "store"))

	w, body := serve(t, registryRouter(&mockBackend{}, &mockModels{}, reg), http.MethodGet, "/api/machines/ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Machine not found", body["error"])
}

func TestRouter_CreateMaintenanceLog(t *testing.T) {
	reg := &mockRegistry{}
	reg.On("CreateMaintenanceLog", mock.Anything, mock.MatchedBy(func(l model.MaintenanceLog) bool {
		return l.MachineID == "m1" && l.Date.String() == "2026-03-04"
	})).Return(model.MaintenanceLog{ID: "l1", MachineID: "m1", Type: "preventive", Duration: 2, Technician: "R. Ortiz", Date: model.MustDate("2026-03-04")}, nil)
	h := registryRouter(&mockBackend{}, &mockModels{}, reg)

	w, body := serveBody(t, h, http.MethodPost, "/api/maintenance",
		`{"machine_id":"m1","type":"preventive","duration":2,"technician":"R. Ortiz","date":"2026-03-04"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "l1", body["id"])

	w, _ = serveBody(t, h, http.MethodPost, "/api/maintenance", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_MaintenanceLogsError(t *testing.T) {
	reg := &mockRegistry{}
	reg.On("MaintenanceLogs", mock.Anything).Return(nil, errors.New("timeout"))

	w, body := serve(t, registryRouter(&mockBackend{}, &mockModels{}, reg), http.MethodGet, "/api/maintenance")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to list maintenance logs", body["error"])
}

func TestRegistryStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, registryStatus(eris.Wrap(model.ErrMachineNotFound, "x")))
	assert.Equal(t, http.StatusBadRequest, registryStatus(model.Validate(model.Machine{})))
	assert.Equal(t, http.StatusBadGateway, registryStatus(errors.New("down")))
}
