package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/dashboard"
	"github.com/sells-group/plantwatch/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an analytics report to an .xlsx or .yaml file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		format, err := export.FormatFromPath(out)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		machine, _ := cmd.Flags().GetString("machine")
		days, _ := cmd.Flags().GetInt("days")

		v := dashboard.NewAnalytics(env.Data, cfg.Analytics.DefaultDays, cfg.Locale).
			Recompute(ctx, dashboard.Params{MachineID: machine, Days: days})
		if v.State == dashboard.AnalyticsError {
			return eris.New(v.Message)
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		defer f.Close() //nolint:errcheck

		if err := export.Write(f, format, export.Report{GeneratedAt: time.Now().UTC(), Analytics: v}); err != nil {
			return err
		}

		zap.L().Info("export: report written",
			zap.String("path", out),
			zap.String("state", string(v.State)),
			zap.Int("records", v.RecordCount),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("machine", "", "machine ID (default all machines)")
	exportCmd.Flags().Int("days", 0, "trailing window in days (default from config)")
	exportCmd.Flags().String("out", "plantwatch-report.xlsx", "output file; the extension selects the format")
	rootCmd.AddCommand(exportCmd)
}
