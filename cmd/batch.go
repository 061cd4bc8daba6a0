package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/report"
	"github.com/fairwork-tools/holidaycheck/internal/resolve"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve holidays for a CSV of employee addresses",
	Long:  "Reads employee rows (employee_id, office_address, home_address, work_mode, year, start_date, end_date), resolves each concurrently, and writes a findings file. Bad rows are reported, never fatal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(batchInput)
		if err != nil {
			return eris.Wrapf(err, "open batch input %s", batchInput)
		}
		rows, err := resolve.ReadRows(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.Concurrency
		}

		result := env.Service.RunBatch(cmd.Context(), rows, concurrency)
		if err := report.Write(batchOutput, result); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.String("run_id", result.RunID),
			zap.String("output", batchOutput),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "input CSV path (required)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "findings.csv", "output path (.csv or .xlsx)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel lookups (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
