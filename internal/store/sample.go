package store

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/sells-group/plantwatch/internal/metrics"
	"github.com/sells-group/plantwatch/internal/model"
)

// DefaultSampleDays is the history length the bootstrap seeds per machine.
const DefaultSampleDays = 30

// Span is an inclusive uniform range.
type Span struct {
	Min, Max float64
}

// Profile bounds the synthetic values of one generated machine-day.
type Profile struct {
	Output      Span
	Downtime    Span // hours
	Efficiency  Span // percent
	QualityRate Span // fraction
}

var (
	// SampleProfile shapes the bootstrap history.
	SampleProfile = Profile{
		Output:      Span{800, 1200},
		Downtime:    Span{0.5, 8},
		Efficiency:  Span{75, 95},
		QualityRate: Span{0.92, 0.99},
	}
	// SimulateProfile shapes a simulated day; it runs slightly better than
	// the bootstrap history.
	SimulateProfile = Profile{
		Output:      Span{850, 1250},
		Downtime:    Span{0.25, 6},
		Efficiency:  Span{80, 95},
		QualityRate: Span{0.94, 0.99},
	}
)

// SampleMachines lists the demo fleet. IDs are assigned on insert.
func SampleMachines() []model.Machine {
	return []model.Machine{
		{Name: "Conveyor Line A", Type: "Conveyor", Site: "Factory 1", Status: model.MachineOperational},
		{Name: "Assembly Robot B", Type: "Robot", Site: "Factory 1", Status: model.MachineOperational},
		{Name: "Packaging Unit C", Type: "Packaging", Site: "Factory 2", Status: model.MachineOperational},
		{Name: "Quality Checker D", Type: "Inspection", Site: "Factory 2", Status: model.MachineOperational},
	}
}

// Generator produces synthetic production records. It is safe for
// concurrent use.
type Generator struct {
	mu           sync.Mutex
	rnd          *rand.Rand
	plannedHours float64
}

// NewGenerator returns a deterministic generator for seed.
func NewGenerator(seed uint64, plannedHours float64) *Generator {
	if plannedHours <= 0 {
		plannedHours = metrics.DefaultPlannedHours
	}
	return &Generator{
		rnd:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		plannedHours: plannedHours,
	}
}

// Record draws one machine-day within p and derives OEE and its factors.
func (g *Generator) Record(machineID string, day model.Date, p Profile) model.ProductionRecord {
	g.mu.Lock()
	output := round(g.draw(p.Output), 0)
	downtime := round(math.Min(g.draw(p.Downtime), g.plannedHours), 2)
	efficiency := round(g.draw(p.Efficiency), 2)
	quality := round(g.draw(p.QualityRate), 4)
	g.mu.Unlock()

	oee := metrics.ComputeOEE(downtime, efficiency, quality, g.plannedHours)
	return model.ProductionRecord{
		ID:           uuid.NewString(),
		MachineID:    machineID,
		Date:         day,
		Output:       output,
		Downtime:     downtime,
		Efficiency:   efficiency,
		OEE:          oee.OEE,
		QualityRate:  quality,
		Availability: oee.Availability,
		Performance:  oee.Performance,
	}
}

func (g *Generator) draw(s Span) float64 {
	return s.Min + g.rnd.Float64()*(s.Max-s.Min)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
