package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/plantwatch/internal/insight"
	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/internal/prediction"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the efficiency prediction model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := newWorkflow(env).Train(ctx)
		if err != nil {
			return err
		}
		formatTraining(os.Stdout, res)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast efficiency and OEE for a machine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		machine, _ := cmd.Flags().GetString("machine")
		days, _ := cmd.Flags().GetInt("days")
		if days == 0 {
			days = cfg.Predict.DefaultDaysAhead
		}

		preds, err := newWorkflow(env).Predict(ctx, machine, days)
		if err != nil {
			return err
		}
		return renderPredictions(cmd, os.Stdout, preds)
	},
}

var predictionsCmd = &cobra.Command{
	Use:   "predictions",
	Short: "List stored predictions for a machine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "data")
		if err != nil {
			return err
		}
		defer env.Close()

		machine, _ := cmd.Flags().GetString("machine")
		preds, err := listPredictions(ctx, env.Models, machine)
		if err != nil {
			return err
		}
		if len(preds) == 0 {
			fmt.Fprintln(os.Stderr, "No predictions found.")
			return nil
		}
		return renderPredictions(cmd, os.Stdout, preds)
	},
}

func newWorkflow(env *appEnv) *prediction.Workflow {
	return prediction.New(env.Models, prediction.WithLocale(cfg.Locale))
}

// listPredictions loads the stored set for machine. Unlike the workflow's
// background load, failures are returned to the operator.
func listPredictions(ctx context.Context, svc prediction.Service, machine string) ([]model.Prediction, error) {
	if machine == "" {
		return nil, eris.New("--machine is required")
	}
	preds, err := svc.Predictions(ctx, machine)
	if err != nil {
		return nil, eris.Wrapf(err, "load predictions for %s", machine)
	}
	return preds, nil
}

// predictionRow is a prediction with its confidence display tier.
type predictionRow struct {
	model.Prediction
	ConfidenceTier insight.Confidence `json:"confidence_tier"`
}

func predictionRows(preds []model.Prediction, locale string) []predictionRow {
	c := insight.NewClassifier(locale)
	rows := make([]predictionRow, len(preds))
	for i, p := range preds {
		rows[i] = predictionRow{Prediction: p, ConfidenceTier: c.Confidence(p.Confidence)}
	}
	return rows
}

func renderPredictions(cmd *cobra.Command, out io.Writer, preds []model.Prediction) error {
	rows := predictionRows(preds, cfg.Locale)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	formatPredictions(out, rows)
	return nil
}

func formatTraining(out io.Writer, res *model.TrainingResult) {
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Efficiency R²\t%.3f\n", res.EfficiencyR2Score)
	if res.OEER2Score != 0 {
		fmt.Fprintf(w, "OEE R²\t%.3f\n", res.OEER2Score)
	}
	if res.EfficiencyMSE != 0 {
		fmt.Fprintf(w, "Efficiency MSE\t%.3f\n", res.EfficiencyMSE)
	}
	fmt.Fprintf(w, "Training samples\t%d\n", res.TrainingSamples)
	w.Flush() //nolint:errcheck
}

func formatPredictions(out io.Writer, rows []predictionRow) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMACHINE\tEFFICIENCY\tOEE\tCONFIDENCE\tTIER")
	fmt.Fprintln(w, "----\t-------\t----------\t---\t----------\t----")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%.1f%%\t%.0f%%\t%s (%s)\n",
			r.Date, r.MachineID, r.PredictedEfficiency, r.PredictedOEE, r.Confidence*100,
			r.ConfidenceTier.Label, r.ConfidenceTier.Color)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	predictCmd.Flags().String("machine", "", "machine ID")
	predictCmd.Flags().Int("days", 0, "days ahead to forecast (default from config)")
	predictCmd.Flags().Bool("json", false, "print predictions as JSON")

	predictionsCmd.Flags().String("machine", "", "machine ID")
	predictionsCmd.Flags().Bool("json", false, "print predictions as JSON")

	rootCmd.AddCommand(trainCmd, predictCmd, predictionsCmd)
}
