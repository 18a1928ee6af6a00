package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/plantwatch/internal/model"
)

var machinesCmd = &cobra.Command{
	Use:   "machines",
	Short: "List monitored machines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		if id, _ := cmd.Flags().GetString("id"); id != "" {
			m, err := env.Registry.Machine(ctx, id)
			if err != nil {
				return err
			}
			return renderJSONOr(cmd, os.Stdout, m, func(w io.Writer) { formatMachines(w, []model.Machine{m}) })
		}

		machines, err := env.Registry.Machines(ctx)
		if err != nil {
			return eris.Wrap(err, "list machines")
		}
		return renderJSONOr(cmd, os.Stdout, machines, func(w io.Writer) { formatMachines(w, machines) })
	},
}

var machinesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a machine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		name, _ := cmd.Flags().GetString("name")
		kind, _ := cmd.Flags().GetString("type")
		site, _ := cmd.Flags().GetString("site")
		status, _ := cmd.Flags().GetString("status")

		m, err := addMachine(ctx, env.Registry, model.Machine{
			Name:   name,
			Type:   kind,
			Site:   site,
			Status: model.MachineStatus(status),
		})
		if err != nil {
			return err
		}
		formatMachines(os.Stdout, []model.Machine{m})
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "List recent maintenance logs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		logs, err := env.Registry.MaintenanceLogs(ctx)
		if err != nil {
			return eris.Wrap(err, "list maintenance logs")
		}
		return renderJSONOr(cmd, os.Stdout, logs, func(w io.Writer) { formatMaintenance(w, logs) })
	},
}

var maintenanceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a maintenance intervention",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		machine, _ := cmd.Flags().GetString("machine")
		kind, _ := cmd.Flags().GetString("type")
		hours, _ := cmd.Flags().GetFloat64("duration")
		tech, _ := cmd.Flags().GetString("technician")
		notes, _ := cmd.Flags().GetString("notes")
		date, _ := cmd.Flags().GetString("date")

		log, err := parseMaintenanceLog(machine, kind, hours, tech, notes, date, time.Now())
		if err != nil {
			return err
		}
		log, err = addMaintenanceLog(ctx, env.Registry, log)
		if err != nil {
			return err
		}
		formatMaintenance(os.Stdout, []model.MaintenanceLog{log})
		return nil
	},
}

// addMachine validates m before handing it to the registry.
func addMachine(ctx context.Context, reg registry, m model.Machine) (model.Machine, error) {
	if err := model.Validate(m); err != nil {
		return model.Machine{}, eris.Wrap(err, "add machine: name, type and site are required")
	}
	created, err := reg.CreateMachine(ctx, m)
	if err != nil {
		return model.Machine{}, eris.Wrapf(err, "add machine %s", m.Name)
	}
	return created, nil
}

// parseMaintenanceLog builds a log from flag values. An empty date means
// today.
func parseMaintenanceLog(machine, kind string, hours float64, tech, notes, date string, now time.Time) (model.MaintenanceLog, error) {
	log := model.MaintenanceLog{
		MachineID:  machine,
		Type:       kind,
		Duration:   hours,
		Technician: tech,
		Notes:      notes,
		Date:       model.NewDate(now),
	}
	if date != "" {
		d, err := model.ParseDate(date)
		if err != nil {
			return model.MaintenanceLog{}, eris.Wrapf(err, "invalid --date %q", date)
		}
		log.Date = d
	}
	return log, nil
}

func addMaintenanceLog(ctx context.Context, reg registry, log model.MaintenanceLog) (model.MaintenanceLog, error) {
	if err := model.Validate(log); err != nil {
		return model.MaintenanceLog{}, eris.Wrap(err, "add maintenance log: machine, type and technician are required")
	}
	created, err := reg.CreateMaintenanceLog(ctx, log)
	if err != nil {
		return model.MaintenanceLog{}, eris.Wrapf(err, "add maintenance log for %s", log.MachineID)
	}
	return created, nil
}

func renderJSONOr(cmd *cobra.Command, out io.Writer, v any, table func(io.Writer)) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	table(out)
	return nil
}

func formatMachines(out io.Writer, machines []model.Machine) {
	if len(machines) == 0 {
		fmt.Fprintln(out, "No machines.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSITE\tSTATUS")
	fmt.Fprintln(w, "--\t----\t----\t----\t------")
	for _, m := range machines {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Type, m.Site, m.Status)
	}
	w.Flush() //nolint:errcheck
}

func formatMaintenance(out io.Writer, logs []model.MaintenanceLog) {
	if len(logs) == 0 {
		fmt.Fprintln(out, "No maintenance logs.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMACHINE\tTYPE\tDURATION\tTECHNICIAN\tNOTES")
	fmt.Fprintln(w, "----\t-------\t----\t--------\t----------\t-----")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fh\t%s\t%s\n", l.Date, l.MachineID, l.Type, l.Duration, l.Technician, l.Notes)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	machinesCmd.Flags().String("id", "", "show a single machine")
	machinesCmd.Flags().Bool("json", false, "print machines as JSON")
	machinesAddCmd.Flags().String("name", "", "machine name (unique)")
	machinesAddCmd.Flags().String("type", "", "machine type")
	machinesAddCmd.Flags().String("site", "", "site or plant")
	machinesAddCmd.Flags().String("status", "", "operational, maintenance or offline (default operational)")
	machinesCmd.AddCommand(machinesAddCmd)

	maintenanceCmd.Flags().Bool("json", false, "print logs as JSON")
	maintenanceAddCmd.Flags().String("machine", "", "machine ID")
	maintenanceAddCmd.Flags().String("type", "", "intervention type, e.g. preventive or corrective")
	maintenanceAddCmd.Flags().Float64("duration", 0, "duration in hours")
	maintenanceAddCmd.Flags().String("technician", "", "technician name")
	maintenanceAddCmd.Flags().String("notes", "", "free-form notes")
	maintenanceAddCmd.Flags().String("date", "", "intervention date YYYY-MM-DD (default today)")
	maintenanceCmd.AddCommand(maintenanceAddCmd)

	rootCmd.AddCommand(machinesCmd, maintenanceCmd)
}
