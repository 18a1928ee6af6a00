// Package plantapi is the client for the plant analytics service: production
// records, dashboard KPIs, machines, model training and predictions, and the
// sample-data triggers. Every call carries the caller's session token.
package plantapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/internal/resilience"
	"github.com/sells-group/plantwatch/internal/session"
)

// Client defines the plant service operations.
type Client interface {
	// Records returns production records for one machine (or all when
	// MachineID is empty) over the trailing Days.
	Records(ctx context.Context, q model.RecordQuery) ([]model.ProductionRecord, error)
	// DashboardSummary returns the KPI payload. model.ErrNoData when the
	// service has nothing to aggregate.
	DashboardSummary(ctx context.Context) (model.DashboardKPIs, error)
	// Machines lists monitored machines.
	Machines(ctx context.Context) ([]model.Machine, error)
	// Machine returns one machine; model.ErrMachineNotFound on 404.
	Machine(ctx context.Context, id string) (model.Machine, error)
	// CreateMachine registers a machine. Never retried.
	CreateMachine(ctx context.Context, m model.Machine) (model.Machine, error)
	// MaintenanceLogs lists the most recent maintenance logs, newest first.
	MaintenanceLogs(ctx context.Context) ([]model.MaintenanceLog, error)
	// CreateMaintenanceLog records a maintenance intervention. Never retried.
	CreateMaintenanceLog(ctx context.Context, log model.MaintenanceLog) (model.MaintenanceLog, error)
	// Train fits the service-side model. Never retried.
	Train(ctx context.Context) (*model.TrainingResult, error)
	// Predict generates daysAhead predictions for machineID. Never retried.
	Predict(ctx context.Context, machineID string, daysAhead int) ([]model.Prediction, error)
	// Predictions returns previously generated predictions for machineID.
	Predictions(ctx context.Context, machineID string) ([]model.Prediction, error)
	// InitSampleData seeds demo machines and records.
	InitSampleData(ctx context.Context) error
	// SimulateDay adds today's record for every machine.
	SimulateDay(ctx context.Context) error
	// Me returns the operator behind the session.
	Me(ctx context.Context) (model.User, error)
}

// DefaultBaseURL is the local development address of the plant service.
const DefaultBaseURL = "http://localhost:8001"

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the service root (without the /api suffix).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithRetry sets the backoff policy used for idempotent reads.
func WithRetry(p resilience.RetryPolicy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithBreaker replaces the circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	sess    *session.Session
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker
}

// NewClient returns a client bound to sess. A 401 from any endpoint
// invalidates sess and every later call fails with session.ErrInvalid
// without reaching the network.
func NewClient(sess *session.Session, opts ...Option) Client {
	return newHTTPClient(sess, opts...)
}

func newHTTPClient(sess *session.Session, opts ...Option) *httpClient {
	c := &httpClient{
		sess:    sess,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(20, 20),
		retry:   resilience.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = NewBreaker(5, 30*time.Second)
	}
	return c
}

// NewBreaker returns a breaker that opens on transient failures and 5xx
// answers. Client errors never trip it.
func NewBreaker(failures int, coolDown time.Duration) *resilience.Breaker {
	return resilience.NewBreaker(resilience.BreakerConfig{
		Name:     "plantapi",
		Failures: failures,
		CoolDown: coolDown,
		Trips:    tripsBreaker,
	})
}

func tripsBreaker(err error) bool {
	if resilience.IsTransient(err) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// idempotent requests are retried on transient failures.
	idempotent bool
	// anonymous requests are sent without a session (login).
	anonymous bool
}

func (c *httpClient) do(ctx context.Context, r request, out any) error {
	var token string
	if !r.anonymous {
		t, err := c.sess.Token()
		if err != nil {
			return err
		}
		token = t
	}

	policy := resilience.NoRetry()
	if r.idempotent {
		policy = c.retry
		policy.OnRetry = resilience.LogRetry(r.method + " " + r.path)
	}

	body, err := resilience.DoVal(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
			return c.roundTrip(ctx, token, r)
		})
	})
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "plantapi: decode %s %s", r.method, r.path)
	}
	return nil
}

func (c *httpClient) roundTrip(ctx context.Context, token string, r request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "plantapi: rate limiter")
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := eris.Wrapf(err, "plantapi: %s %s", r.method, r.path)
		if ctx.Err() != nil {
			return nil, wrapped
		}
		return nil, resilience.Transient(wrapped, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient(eris.Wrap(err, "plantapi: read response body"), resp.StatusCode)
	}

	if resp.StatusCode < http.StatusBadRequest {
		return body, nil
	}

	apiErr := newAPIError(r.method, r.path, resp.StatusCode, body)
	if resp.StatusCode == http.StatusUnauthorized && !r.anonymous {
		c.sess.Invalidate("plant service rejected the session token")
		apiErr.Err = eris.Wrap(session.ErrInvalid, c.sess.Reason())
		return nil, apiErr
	}
	if resilience.IsTransientStatus(resp.StatusCode) {
		return nil, resilience.Transient(apiErr, resp.StatusCode)
	}
	return nil, apiErr
}

func (c *httpClient) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + "/api" + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, eris.Wrapf(err, "plantapi: encode %s body", r.path)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, eris.Wrap(err, "plantapi: create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
