package metrics

import (
	"github.com/sells-group/plantwatch/internal/model"
)

// DailyRollup collapses records into one point per calendar day, in the order
// each day first appears. OEE, efficiency and quality are averaged; output and
// downtime are summed. The machine id is kept only when every record belongs
// to the same machine.
func DailyRollup(records []model.ProductionRecord) []model.ProductionRecord {
	if len(records) == 0 {
		return nil
	}

	type acc struct {
		point   model.ProductionRecord
		samples int
	}

	index := make(map[string]int, len(records))
	var days []acc
	machine := records[0].MachineID

	for _, r := range records {
		if r.MachineID != machine {
			machine = ""
		}
		key := r.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, acc{point: model.ProductionRecord{Date: r.Date}})
		}
		a := &days[i]
		a.samples++
		a.point.OEE += r.OEE
		a.point.Efficiency += r.Efficiency
		a.point.QualityRate += r.QualityRate
		a.point.Output += r.Output
		a.point.Downtime += r.Downtime
	}

	out := make([]model.ProductionRecord, len(days))
	for i, a := range days {
		n := float64(a.samples)
		p := a.point
		p.MachineID = machine
		p.OEE /= n
		p.Efficiency /= n
		p.QualityRate /= n
		out[i] = p
	}
	return out
}
