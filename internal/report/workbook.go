// =============================================================================
// Trade Reconciliation - Run Summary Workbook
// =============================================================================
//
// This module writes an optional XLSX summary of a run for operations staff.
//
// WORKBOOK LAYOUT:
//   Summary     run id, timing, input files, threshold and trade outcomes
//   Sources     rows read and parse failures per input file
//   Exceptions  exception record count per exception type
//
// =============================================================================

package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/trade-reconciliation/internal/metrics"
	"github.com/ginjaninja78/trade-reconciliation/internal/types"
	"github.com/ginjaninja78/trade-reconciliation/pkg/utils"
)

// Sheet names.
const (
	SummarySheet    = "Summary"
	SourcesSheet    = "Sources"
	ExceptionsSheet = "Exceptions"
)

// RunInfo describes the run a workbook summarizes.
type RunInfo struct {
	RunID       string
	StartedAt   time.Time
	SymbolsFile string
	FillsFile   string
	TradesFile  string
	Threshold   string
}

// WriteWorkbook saves the run summary to path, creating parent directories.
//
// PARAMETERS:
//   - path: The .xlsx file to write.
//   - run: Identification of the run.
//   - summary: The counters collected during the run.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func WriteWorkbook(path string, run RunInfo, summary metrics.Summary) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SourcesSheet, ExceptionsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	sheets := map[string][][]interface{}{
		SummarySheet:    summaryRows(run, summary),
		SourcesSheet:    sourceRows(summary),
		ExceptionsSheet: exceptionRows(summary),
	}
	for name, rows := range sheets {
		if err := writeRows(f, name, rows, headerStyle); err != nil {
			return err
		}
	}

	if err := utils.EnsureParentDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func summaryRows(run RunInfo, s metrics.Summary) [][]interface{} {
	return [][]interface{}{
		{"Field", "Value"},
		{"Run ID", run.RunID},
		{"Started (UTC)", run.StartedAt.UTC().Format(time.RFC3339)},
		{"Run time (s)", s.Duration.Seconds()},
		{"Symbols file", run.SymbolsFile},
		{"Fills file", run.FillsFile},
		{"Trades file", run.TradesFile},
		{"Price discrepancy threshold", run.Threshold},
		{"Trades cancelled", s.TradesCancelled},
		{"Trades cleaned", s.TradesCleaned},
		{"Trades excepted", s.TradesExcepted},
		{"Trades confirmed", s.Confirmed},
		{"Trades with discrepancy", s.Discrepancies},
	}
}

func sourceRows(s metrics.Summary) [][]interface{} {
	rows := [][]interface{}{{"Source", "Rows read", "Parse failed"}}
	for _, source := range []string{metrics.SourceSymbols, metrics.SourceFills, metrics.SourceTrades} {
		c := s.Sources[source]
		rows = append(rows, []interface{}{source, c.Read, c.ParseFailed})
	}
	return rows
}

func exceptionRows(s metrics.Summary) [][]interface{} {
	rows := [][]interface{}{{"Exception type", "Count"}}
	for _, t := range types.ExceptionTypes {
		rows = append(rows, []interface{}{string(t), s.Exceptions[t]})
	}
	return rows
}

// writeRows writes rows from A1 down and bolds the first one.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}

	return f.SetColWidth(sheet, "A", "A", 30)
}
