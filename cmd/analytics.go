package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/plantwatch/internal/dashboard"
	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/model"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summarize production for one machine or the whole fleet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		machine, _ := cmd.Flags().GetString("machine")
		days, _ := cmd.Flags().GetInt("days")

		v := dashboard.NewAnalytics(env.Data, cfg.Analytics.DefaultDays, cfg.Locale).
			Recompute(ctx, dashboard.Params{MachineID: machine, Days: days})

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
		formatAnalytics(os.Stdout, v)
		return nil
	},
}

func formatAnalytics(out io.Writer, v dashboard.AnalyticsView) {
	scope := v.Params.MachineID
	if scope == "" {
		scope = "all machines"
	}
	fmt.Fprintf(out, "Analytics for %s, last %d days\n\n", scope, v.Params.Days)

	if v.State != dashboard.AnalyticsReady {
		fmt.Fprintln(out, v.Message)
		return
	}

	s := v.Summary
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	fmt.Fprintln(w, "------\t-----")
	fmt.Fprintf(w, "Records\t%d\n", v.RecordCount)
	fmt.Fprintf(w, "Machines\t%d\n", v.MachineCount)
	fmt.Fprintf(w, "Average OEE\t%.1f%%\n", s.AvgOEE)
	fmt.Fprintf(w, "OEE range\t%.1f%% - %.1f%%\n", s.MinOEE, s.MaxOEE)
	fmt.Fprintf(w, "Average efficiency\t%.1f%%\n", s.AvgEfficiency)
	fmt.Fprintf(w, "Total output\t%.0f\n", s.TotalOutput)
	fmt.Fprintf(w, "Total downtime\t%.1fh\n", s.TotalDowntime)
	fmt.Fprintf(w, "Average downtime\t%.1fh\n", s.AvgDowntime)
	w.Flush() //nolint:errcheck

	d := v.Distribution
	fmt.Fprintf(out, "\nDowntime days (%d): low %d, medium %d, high %d, critical %d\n\n", d.Total(), d.Low, d.Medium, d.High, d.Critical)
	formatInsights(out, v.Insights)
	fmt.Fprintln(out)
	formatTrend(out, v.Trend)
}

// formatTrend writes one row per record.
func formatTrend(out io.Writer, trend []model.ProductionRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tOEE\tEFFICIENCY\tOUTPUT\tDOWNTIME")
	fmt.Fprintln(w, "----\t---\t----------\t------\t--------")
	for _, r := range trend {
		fmt.Fprintf(w, "%s\t%.1f%%\t%.1f%%\t%.0f\t%.1fh\n",
			r.Date, r.OEE, r.Efficiency, r.Output, r.Downtime)
	}
	w.Flush() //nolint:errcheck
}

func formatInsights(out io.Writer, in insight.Insights) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSIGHT\tTIER\tLEVEL\tMESSAGE")
	fmt.Fprintln(w, "-------\t----\t-----\t-------")
	for _, i := range in.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.Title, i.Tier, i.Level, i.Message)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	analyticsCmd.Flags().String("machine", "", "machine ID (default all machines)")
	analyticsCmd.Flags().Int("days", 0, "trailing window in days (default from config)")
	analyticsCmd.Flags().Bool("json", false, "print the view as JSON")
	rootCmd.AddCommand(analyticsCmd)
}
