package metrics

import (
	"github.com/sells-group/plantwatch/internal/model"
)

// DefaultAlertDowntimeHours flags a machine-day for maintenance.
const DefaultAlertDowntimeHours = 8.0

// ComputeKPIs builds the dashboard KPI payload over a record window.
// MTBF is operating hours divided by the number of days that saw any
// downtime; a window without downtime reports all operating hours.
func ComputeKPIs(totalMachines int, records []model.ProductionRecord, alertDowntimeHours float64) model.DashboardKPIs {
	kpis := model.DashboardKPIs{TotalMachines: totalMachines}

	stats, ok := Summarize(records)
	if !ok {
		return kpis
	}
	if alertDowntimeHours <= 0 {
		alertDowntimeHours = DefaultAlertDowntimeHours
	}

	failures := 0
	for _, r := range records {
		if r.Downtime > 0 {
			failures++
		}
		if r.Downtime > alertDowntimeHours {
			kpis.MaintenanceAlerts++
		}
	}

	operating := float64(stats.SampleCount)*DefaultPlannedHours - stats.TotalDowntime
	if operating < 0 {
		operating = 0
	}

	kpis.AverageOEE = round2(stats.AvgOEE)
	kpis.AverageEfficiency = round2(stats.AvgEfficiency)
	kpis.TotalDowntime = round2(stats.TotalDowntime)
	kpis.ProductionOutput = round2(stats.TotalOutput)
	kpis.MTBF = round2(operating / float64(max(1, failures)))
	return kpis
}
