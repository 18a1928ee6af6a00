package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/dashboard"
	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/internal/monitoring"
	"github.com/sells-group/plantwatch/internal/prediction"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dashboard, analytics and prediction views over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		router := buildRouter(serverDeps{
			Dashboard:    newCoordinator(env),
			Registry:     env.Registry,
			Analytics:    dashboard.NewAnalytics(env.Data, cfg.Analytics.DefaultDays, cfg.Locale),
			Workflows:    newWorkflowRegistry(env.Models, cfg.Locale),
			Fleet:        newCollector(env),
			LookbackDays: cfg.Monitoring.LookbackDays,
			DaysAhead:    cfg.Predict.DefaultDaysAhead,
			CORSOrigins:  cfg.Server.CORSOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("driver", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// serverDeps are the views the HTTP layer exposes.
type serverDeps struct {
	Dashboard    *dashboard.Coordinator
	Registry     registry
	Analytics    *dashboard.Analytics
	Workflows    *workflowRegistry
	Fleet        *monitoring.Collector
	LookbackDays int
	DaysAhead    int
	CORSOrigins  []string
}

// workflowRegistry keeps one prediction workflow per caller so that
// superseded requests only affect the caller who issued them.
type workflowRegistry struct {
	svc    prediction.Service
	locale string

	mu        sync.Mutex
	workflows map[string]*prediction.Workflow
}

func newWorkflowRegistry(svc prediction.Service, locale string) *workflowRegistry {
	return &workflowRegistry{
		svc:       svc,
		locale:    locale,
		workflows: make(map[string]*prediction.Workflow),
	}
}

func registryKey(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}

// get returns the workflow for the caller's bearer token, creating it on
// first use. Requests without a token share one workflow.
func (r *workflowRegistry) get(req *http.Request) *prediction.Workflow {
	key := registryKey(req)

	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[key]
	if !ok {
		wf = prediction.New(r.svc, prediction.WithLocale(r.locale))
		r.workflows[key] = wf
	}
	return wf
}

// drop forgets the caller's workflow state.
func (r *workflowRegistry) drop(req *http.Request) {
	r.mu.Lock()
	delete(r.workflows, registryKey(req))
	r.mu.Unlock()
}

func buildRouter(deps serverDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", func(w http.ResponseWriter, req *http.Request) {
			v := deps.Dashboard.Load(req.Context())
			writeJSON(w, viewStatus(v.State), v)
		})

		r.Post("/dashboard/refresh", func(w http.ResponseWriter, req *http.Request) {
			v := deps.Dashboard.Refresh(req.Context())
			writeJSON(w, viewStatus(v.State), v)
		})

		r.Post("/dashboard/bootstrap", func(w http.ResponseWriter, req *http.Request) {
			v, err := deps.Dashboard.InitializeSampleData(req.Context())
			if err != nil {
				writeJSON(w, http.StatusBadGateway, v)
				return
			}
			writeJSON(w, viewStatus(v.State), v)
		})

		r.Post("/dashboard/simulate", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, deps.Dashboard.SimulateDay(req.Context()))
		})

		r.Get("/analytics", func(w http.ResponseWriter, req *http.Request) {
			days, err := intQuery(req, "days", 0)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			v := deps.Analytics.Recompute(req.Context(), dashboard.Params{
				MachineID: req.URL.Query().Get("machine_id"),
				Days:      days,
			})
			status := http.StatusOK
			if v.State == dashboard.AnalyticsError {
				status = http.StatusBadGateway
			}
			writeJSON(w, status, v)
		})

		r.Post("/ml/train", func(w http.ResponseWriter, req *http.Request) {
			wf := deps.Workflows.get(req)
			_, err := wf.Train(req.Context())
			writeJSON(w, workflowStatus(err), wf.Snapshot())
		})

		r.Post("/ml/predict/{machineID}", func(w http.ResponseWriter, req *http.Request) {
			days, err := intQuery(req, "days_ahead", deps.DaysAhead)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			wf := deps.Workflows.get(req)
			_, err = wf.Predict(req.Context(), chi.URLParam(req, "machineID"), days)
			writeJSON(w, workflowStatus(err), wf.Snapshot())
		})

		r.Get("/predictions/{machineID}", func(w http.ResponseWriter, req *http.Request) {
			wf := deps.Workflows.get(req)
			wf.SelectMachine(req.Context(), chi.URLParam(req, "machineID"))
			writeJSON(w, http.StatusOK, wf.Snapshot())
		})

		r.Post("/logout", func(w http.ResponseWriter, req *http.Request) {
			deps.Workflows.drop(req)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/machines", func(w http.ResponseWriter, req *http.Request) {
			machines, err := deps.Registry.Machines(req.Context())
			if err != nil {
				zap.L().Error("serve: list machines", zap.Error(err))
				writeError(w, registryStatus(err), "failed to list machines")
				return
			}
			writeJSON(w, http.StatusOK, nonNil(machines))
		})

		r.Post("/machines", func(w http.ResponseWriter, req *http.Request) {
			var m model.Machine
			if err := json.NewDecoder(req.Body).Decode(&m); err != nil {
				writeError(w, http.StatusBadRequest, "invalid machine body")
				return
			}
			created, err := addMachine(req.Context(), deps.Registry, m)
			if err != nil {
				writeError(w, registryStatus(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, created)
		})

		r.Get("/machines/{machineID}", func(w http.ResponseWriter, req *http.Request) {
			m, err := deps.Registry.Machine(req.Context(), chi.URLParam(req, "machineID"))
			if err != nil {
				writeError(w, registryStatus(err), "Machine not found")
				return
			}
			writeJSON(w, http.StatusOK, m)
		})

		r.Get("/maintenance", func(w http.ResponseWriter, req *http.Request) {
			logs, err := deps.Registry.MaintenanceLogs(req.Context())
			if err != nil {
				zap.L().Error("serve: list maintenance logs", zap.Error(err))
				writeError(w, registryStatus(err), "failed to list maintenance logs")
				return
			}
			writeJSON(w, http.StatusOK, nonNil(logs))
		})

		r.Post("/maintenance", func(w http.ResponseWriter, req *http.Request) {
			var l model.MaintenanceLog
			if err := json.NewDecoder(req.Body).Decode(&l); err != nil {
				writeError(w, http.StatusBadRequest, "invalid maintenance log body")
				return
			}
			created, err := addMaintenanceLog(req.Context(), deps.Registry, l)
			if err != nil {
				writeError(w, registryStatus(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, created)
		})

		r.Get("/fleet", func(w http.ResponseWriter, req *http.Request) {
			snap, err := deps.Fleet.Collect(req.Context(), deps.LookbackDays)
			if err != nil {
				zap.L().Error("serve: fleet health", zap.Error(err))
				writeError(w, http.StatusBadGateway, "failed to collect fleet health")
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})
	})

	return r
}

func viewStatus(s dashboard.State) int {
	if s == dashboard.StateError {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func registryStatus(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, model.ErrMachineNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func workflowStatus(err error) int {
	var verr *prediction.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, prediction.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func intQuery(req *http.Request, name string, def int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
