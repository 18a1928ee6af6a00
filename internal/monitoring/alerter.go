package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/config"
	"github.com/sells-group/plantwatch/internal/insight"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertMaintenanceDue      AlertType = "maintenance_due"
	AlertCriticalPerformance AlertType = "critical_performance"
	AlertHighDowntime        AlertType = "high_downtime"
	AlertUnstableOutput      AlertType = "unstable_output"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	MachineID string         `json:"machine_id"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter turns a FleetSnapshot into alerts and delivers them via webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate returns the alerts raised by snap, machine by machine.
func (a *Alerter) Evaluate(snap *FleetSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	for _, m := range snap.Machines {
		if !m.HasData || m.Insights == nil {
			continue
		}
		id, name := m.Machine.ID, m.Machine.Name

		if m.MaintenanceAlerts > 0 {
			alerts = append(alerts, Alert{
				Type:      AlertMaintenanceDue,
				Severity:  "high",
				MachineID: id,
				Message: fmt.Sprintf(
					"%s exceeded %.1fh downtime on %d day(s) in the last %dd (worst %.1fh)",
					name, snap.AlertDowntimeHours, m.MaintenanceAlerts, snap.LookbackDays, m.WorstDowntime,
				),
				Details: map[string]any{
					"days_over_threshold": m.MaintenanceAlerts,
					"threshold_hours":     snap.AlertDowntimeHours,
					"worst_downtime":      m.WorstDowntime,
				},
				Timestamp: now,
			})
		}

		if m.Insights.Performance.Tier == insight.TierCritical {
			alerts = append(alerts, Alert{
				Type:      AlertCriticalPerformance,
				Severity:  "high",
				MachineID: id,
				Message:   fmt.Sprintf("%s average OEE %.1f%% is below %.0f%%", name, m.Summary.AvgOEE, insight.PerformanceScale.Bands[1].Bound),
				Details: map[string]any{
					"avg_oee": m.Summary.AvgOEE,
					"min_oee": m.Summary.MinOEE,
				},
				Timestamp: now,
			})
		}

		if m.Insights.Downtime.Level != insight.LevelGood {
			alerts = append(alerts, Alert{
				Type:      AlertHighDowntime,
				Severity:  m.Insights.Downtime.Level.String(),
				MachineID: id,
				Message:   fmt.Sprintf("%s averages %.1fh downtime per day", name, m.Summary.AvgDowntime),
				Details: map[string]any{
					"avg_downtime":   m.Summary.AvgDowntime,
					"total_downtime": m.Summary.TotalDowntime,
				},
				Timestamp: now,
			})
		}

		if m.Insights.Stability.Tier == insight.TierUnstable {
			alerts = append(alerts, Alert{
				Type:      AlertUnstableOutput,
				Severity:  "low",
				MachineID: id,
				Message:   fmt.Sprintf("%s OEE varied by %.1f points", name, m.Summary.OEEVariation),
				Details: map[string]any{
					"oee_variation": m.Summary.OEEVariation,
				},
				Timestamp: now,
			})
		}
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("machine_id", alert.MachineID),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
			zap.String("machine_id", alert.MachineID),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
