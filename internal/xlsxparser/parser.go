// =============================================================================
// Trade Reconciliation - XLSX Parser Module
// =============================================================================
//
// This module reads reference or trade data exported as an Excel workbook.
// It yields the same line-numbered raw rows as the CSV parser so the rest of
// the pipeline does not care which format a source was delivered in.
//
// SHEET LAYOUT:
//   - The first sheet is used; other sheets are ignored.
//   - Row 1 holds the column headers (same names as the CSV files).
//   - Data starts on row 2. Empty rows are skipped but keep their row number.
//
// LIMITATIONS:
//   Cell values are read as formatted text via excelize, so numeric cells
//   should be formatted as plain numbers in the workbook.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/trade-reconciliation/internal/csvparser"
	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

// =============================================================================
// SHEET SOURCE
// =============================================================================

// SheetSource iterates over the data rows of the first sheet of a workbook.
// It follows the same Next/Row/Err/Close protocol as csvparser.StreamingParser.
type SheetSource struct {
	path       string
	sheetName  string
	headers    []string
	rows       [][]string
	index      int
	currentRow types.RawRow
}

// NewSheetSource opens an XLSX file and reads its header row.
//
// PARAMETERS:
//   - filePath: The path to the XLSX file.
//
// RETURNS:
//   - A pointer to the SheetSource positioned before the first data row.
//   - An error wrapping csvparser.ErrEmptyFile if the sheet has no header row.
func NewSheetSource(filePath string) (*SheetSource, error) {
	// Open the XLSX file.
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	// Get the first sheet name.
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", csvparser.ErrEmptyFile, filePath)
	}

	// Get all rows from the sheet. GetRows keeps interior empty rows, so the
	// slice index plus one is the sheet row number.
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", csvparser.ErrEmptyFile, filePath)
	}

	return &SheetSource{
		path:      filePath,
		sheetName: sheetName,
		headers:   cleanCells(rows[0]),
		rows:      rows,
		index:     0,
	}, nil
}

// Next advances to the next non-empty row.
func (s *SheetSource) Next() bool {
	for s.index+1 < len(s.rows) {
		s.index++
		row := s.rows[s.index]

		// Skip empty rows.
		if isRowEmpty(row) {
			continue
		}

		s.currentRow = types.RawRow{
			Line:   s.index + 1,
			Fields: toFields(s.headers, cleanCells(row)),
		}
		return true
	}
	return false
}

// Row returns the current row.
func (s *SheetSource) Row() types.RawRow {
	return s.currentRow
}

// Headers returns the header row.
func (s *SheetSource) Headers() []string {
	return s.headers
}

// SheetName returns the name of the sheet being read.
func (s *SheetSource) SheetName() string {
	return s.sheetName
}

// Err always returns nil; the whole sheet is read when the source is opened.
func (s *SheetSource) Err() error {
	return nil
}

// Close releases the buffered rows.
func (s *SheetSource) Close() error {
	s.rows = nil
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanCells trims every cell of a row.
func cleanCells(row []string) []string {
	cleaned := make([]string, len(row))
	for i, cell := range row {
		cleaned[i] = strings.TrimSpace(cell)
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// toFields pairs cells with headers; missing or empty cells become nil.
func toFields(headers, cells []string) types.RawFields {
	fields := make(types.RawFields, len(headers))
	for i, header := range headers {
		if i < len(cells) && cells[i] != "" {
			value := cells[i]
			fields[header] = &value
		} else {
			fields[header] = nil
		}
	}
	return fields
}
