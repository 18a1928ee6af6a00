package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/plantwatch/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show fleet KPIs, the production trend and insights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		v := newCoordinator(env).Load(ctx)
		return renderView(cmd, os.Stdout, v)
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create sample machines and production history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		v, err := newCoordinator(env).InitializeSampleData(ctx)
		if err != nil {
			formatDashboard(os.Stdout, v)
			return err
		}
		return renderView(cmd, os.Stdout, v)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Add today's production record for every machine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Data.SimulateDay(ctx); err != nil {
			return err
		}
		v := newCoordinator(env).Load(ctx)
		return renderView(cmd, os.Stdout, v)
	},
}

func newCoordinator(env *appEnv) *dashboard.Coordinator {
	return dashboard.NewCoordinator(env.Data, env.Data,
		dashboard.WithTrendDays(cfg.Dashboard.TrendDays),
		dashboard.WithLocale(cfg.Locale),
	)
}

func renderView(cmd *cobra.Command, out io.Writer, v dashboard.View) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	formatDashboard(out, v)
	return nil
}

// formatDashboard writes a dashboard view as text tables.
func formatDashboard(out io.Writer, v dashboard.View) {
	switch v.State {
	case dashboard.StateBootstrap:
		fmt.Fprintln(out, "No production data yet. Run `plantwatch bootstrap` to create sample data.")
		return
	case dashboard.StateError:
		fmt.Fprintln(out, v.Message)
		return
	}

	k := v.KPIs
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KPI\tVALUE")
	fmt.Fprintln(w, "---\t-----")
	fmt.Fprintf(w, "Machines\t%d\n", k.TotalMachines)
	fmt.Fprintf(w, "Average OEE\t%.1f%%\n", k.AverageOEE)
	fmt.Fprintf(w, "Average efficiency\t%.1f%%\n", k.AverageEfficiency)
	fmt.Fprintf(w, "Total downtime\t%.1fh\n", k.TotalDowntime)
	fmt.Fprintf(w, "Production output\t%.0f\n", k.ProductionOutput)
	fmt.Fprintf(w, "MTBF\t%.1fh\n", k.MTBF)
	fmt.Fprintf(w, "Maintenance alerts\t%d\n", k.MaintenanceAlerts)
	w.Flush() //nolint:errcheck

	if v.ShowMaintenanceAlert {
		fmt.Fprintf(out, "\n! %s\n", v.MaintenanceMessage)
	}

	if len(v.Trend) > 0 {
		fmt.Fprintln(out)
		formatTrend(out, v.Trend)
	}

	d := v.Distribution
	fmt.Fprintf(out, "\nDowntime days (%d): low %d, medium %d, high %d, critical %d\n", d.Total(), d.Low, d.Medium, d.High, d.Critical)

	if v.Insights != nil {
		fmt.Fprintln(out)
		formatInsights(out, *v.Insights)
	}
}

func init() {
	for _, c := range []*cobra.Command{dashboardCmd, bootstrapCmd, simulateCmd} {
		c.Flags().Bool("json", false, "print the view as JSON")
		rootCmd.AddCommand(c)
	}
}
