package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/plantwatch/internal/monitoring"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Check fleet health and send alerts",
	Long:  "Collects per-machine health over the lookback window, raises maintenance and performance alerts, and posts them to the configured webhook. Runs until interrupted unless --once is set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "monitor")
		if err != nil {
			return err
		}
		defer env.Close()

		collector := newCollector(env)
		alerter := monitoring.NewAlerter(cfg.Monitoring)

		if once, _ := cmd.Flags().GetBool("once"); once {
			snap, err := collector.Collect(ctx, cfg.Monitoring.LookbackDays)
			if err != nil {
				return eris.Wrap(err, "monitor")
			}
			alerts := alerter.Evaluate(snap)
			alerter.SendAlerts(ctx, alerts)
			formatFleet(os.Stdout, snap)
			fmt.Println()
			formatAlerts(os.Stdout, alerts)
			return nil
		}

		monitoring.NewChecker(collector, alerter, cfg.Monitoring).Run(ctx)
		return nil
	},
}

func newCollector(env *appEnv) *monitoring.Collector {
	return monitoring.NewCollector(env.Data, cfg.Monitoring.Concurrency, cfg.Monitoring.AlertDowntimeHours, cfg.Locale)
}

func formatFleet(out io.Writer, snap *monitoring.FleetSnapshot) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MACHINE\tNAME\tAVG OEE\tAVG DOWNTIME\tWORST DAY\tALERT DAYS")
	fmt.Fprintln(w, "-------\t----\t-------\t------------\t---------\t----------")
	for _, h := range snap.Machines {
		if !h.HasData {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\n", h.Machine.ID, h.Machine.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%.1fh\t%.1fh\t%d\n",
			h.Machine.ID, h.Machine.Name, h.Summary.AvgOEE, h.Summary.AvgDowntime,
			h.WorstDowntime, h.MaintenanceAlerts)
	}
	w.Flush() //nolint:errcheck
	fmt.Fprintf(out, "\n%d machine(s), %d critical, last %d days\n", len(snap.Machines), snap.Critical(), snap.LookbackDays)
}

func formatAlerts(out io.Writer, alerts []monitoring.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(out, "No alerts.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tTYPE\tMACHINE\tMESSAGE")
	fmt.Fprintln(w, "--------\t----\t-------\t-------")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Severity, a.Type, a.MachineID, a.Message)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	monitorCmd.Flags().Bool("once", false, "run a single check and print the result")
	rootCmd.AddCommand(monitorCmd)
}
