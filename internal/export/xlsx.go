package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/plantwatch/internal/dashboard"
	"github.com/sells-group/plantwatch/internal/model"
)

// Sheet names in the workbook.
const (
	SheetSummary  = "Summary"
	SheetInsights = "Insights"
	SheetTrend    = "Trend"
)

var trendHeader = []string{"Date", "Machine", "Output", "Downtime (h)", "Efficiency (%)", "OEE (%)", "Quality rate"}

// WriteXLSX writes r as a three-sheet workbook: summary figures, insights and
// the daily trend.
func WriteXLSX(w io.Writer, r Report) error {
	f := xlsx.NewFile()

	if err := writeSummary(f, r); err != nil {
		return err
	}
	if err := writeInsights(f, r); err != nil {
		return err
	}
	if err := writeTrend(f, r.Analytics.Trend); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func writeSummary(f *xlsx.File, r Report) error {
	sheet, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}
	v := r.Analytics
	machine := v.Params.MachineID
	if machine == "" {
		machine = "all"
	}

	textRow(sheet, "Generated at", r.GeneratedAt.UTC().Format(time.RFC3339))
	textRow(sheet, "State", string(v.State))
	textRow(sheet, "Machine", machine)
	numberRow(sheet, "Days", float64(v.Params.Days))
	if v.Message != "" {
		textRow(sheet, "Message", v.Message)
	}
	numberRow(sheet, "Records", float64(v.RecordCount))
	numberRow(sheet, "Machines", float64(v.MachineCount))
	numberRow(sheet, "Average OEE (%)", v.Summary.AvgOEE)
	numberRow(sheet, "Average efficiency (%)", v.Summary.AvgEfficiency)
	numberRow(sheet, "Total output", v.Summary.TotalOutput)
	numberRow(sheet, "Total downtime (h)", v.Summary.TotalDowntime)
	numberRow(sheet, "Average downtime (h)", v.Summary.AvgDowntime)
	numberRow(sheet, "OEE variation", v.Summary.OEEVariation)
	for _, b := range v.Distribution.Buckets() {
		numberRow(sheet, "Downtime "+string(b.Bucket), float64(b.Count))
	}
	return nil
}

func writeInsights(f *xlsx.File, r Report) error {
	sheet, err := f.AddSheet(SheetInsights)
	if err != nil {
		return eris.Wrap(err, "xlsx: add insights sheet")
	}
	header(sheet, "Metric", "Tier", "Value", "Title", "Message")
	if r.Analytics.State != dashboard.AnalyticsReady {
		return nil
	}
	for _, in := range r.Analytics.Insights.All() {
		row := sheet.AddRow()
		row.AddCell().SetString(string(in.Metric))
		row.AddCell().SetString(string(in.Tier))
		row.AddCell().SetFloat(in.Value)
		row.AddCell().SetString(in.Title)
		row.AddCell().SetString(in.Message)
	}
	return nil
}

func writeTrend(f *xlsx.File, trend []model.ProductionRecord) error {
	sheet, err := f.AddSheet(SheetTrend)
	if err != nil {
		return eris.Wrap(err, "xlsx: add trend sheet")
	}
	header(sheet, trendHeader...)
	for _, rec := range trend {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.Date.String())
		row.AddCell().SetString(rec.MachineID)
		row.AddCell().SetFloat(rec.Output)
		row.AddCell().SetFloat(rec.Downtime)
		row.AddCell().SetFloat(rec.Efficiency)
		row.AddCell().SetFloat(rec.OEE)
		row.AddCell().SetFloat(rec.QualityRate)
	}
	return nil
}

func header(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	for _, n := range names {
		row.AddCell().SetString(n)
	}
}

func textRow(sheet *xlsx.Sheet, label, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetString(value)
}

func numberRow(sheet *xlsx.Sheet, label string, value float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(value)
}
