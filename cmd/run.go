// =============================================================================
// Trade Reconciliation - Run Command
// =============================================================================
//
// This file defines the 'run' command, which executes one reconciliation.
//
// COMMAND USAGE:
//   reconciler run [--config config.yaml] [--verbose]
//
// RUN STEPS:
//   1. Load and validate configuration
//   2. Build the logger and tag it with a fresh run id
//   3. Run the pipeline (reference data, trades, outputs)
//   4. Log the metrics summary
//   5. Write the optional metrics textfile and summary workbook
//
// =============================================================================

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trade-reconciliation/internal/config"
	"github.com/ginjaninja78/trade-reconciliation/internal/logging"
	"github.com/ginjaninja78/trade-reconciliation/internal/metrics"
	"github.com/ginjaninja78/trade-reconciliation/internal/pipeline"
	"github.com/ginjaninja78/trade-reconciliation/internal/report"
	"github.com/ginjaninja78/trade-reconciliation/pkg/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile the trades file against the reference data",
	Long: `The run command loads the symbol master and the counterparty fills, then
streams the trades file through validation and reconciliation.

Outputs:
  - write.cleaned_trades_file     accepted trades
  - write.exceptions_report_file  rejected rows with their reason
  - write.summary_workbook        optional XLSX run summary
  - metrics.textfile              optional Prometheus textfile

Malformed or rejected rows never stop a run; they go to the exception report.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconciliation(cfgFile, verbose)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runReconciliation executes one run. Failures after the logger exists are
// logged once and reported as errReported.
func runReconciliation(configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runID := utils.NewRunID()
	logger = logger.With(zap.String("run_id", runID))
	startedAt := time.Now()

	logger.Info("Starting reconciliation",
		zap.String("config", configPath),
		zap.String("price_discrepancy_threshold", cfg.Threshold().String()))

	m := metrics.New()
	p := pipeline.New(pipeline.Options{
		SymbolsFile:          cfg.Read.SymbolsRefFile,
		FillsFile:            cfg.Read.FillsFile,
		TradesFile:           cfg.Read.TradesFile,
		CleanedTradesFile:    cfg.Write.CleanedTradesFile,
		ExceptionsReportFile: cfg.Write.ExceptionsReportFile,
		Threshold:            cfg.Threshold(),
	}, m, logger)

	runErr := p.Run()
	m.LogSummary(logger)

	if cfg.Metrics.Textfile != "" {
		if err := writeTextfile(m, cfg.Metrics.Textfile); err != nil {
			logger.Warn("Failed to export metrics", zap.Error(err))
		}
	}

	if cfg.Write.SummaryWorkbook != "" {
		run := report.RunInfo{
			RunID:       runID,
			StartedAt:   startedAt,
			SymbolsFile: cfg.Read.SymbolsRefFile,
			FillsFile:   cfg.Read.FillsFile,
			TradesFile:  cfg.Read.TradesFile,
			Threshold:   cfg.Threshold().String(),
		}
		if err := report.WriteWorkbook(cfg.Write.SummaryWorkbook, run, m.Summary()); err != nil {
			logger.Warn("Failed to write summary workbook", zap.Error(err))
		} else {
			logger.Info("Wrote summary workbook", zap.String("file", cfg.Write.SummaryWorkbook))
		}
	}

	if runErr != nil {
		logger.Error("Reconciliation failed", zap.Error(runErr))
		return errReported
	}

	logger.Info("Reconciliation complete")
	return nil
}

func writeTextfile(m *metrics.Metrics, path string) error {
	if err := utils.EnsureParentDir(path); err != nil {
		return err
	}
	return m.WriteTextfile(path)
}
