// =============================================================================
// Trade Reconciliation - Reference Loaders
// =============================================================================
//
// This module materializes the two lookup tables the reconciliation engine
// consults for every trade:
//   - the symbol master, keyed by upper-cased symbol
//   - the counterparty fills, keyed by our_trade_id
//
// Both files are read in full before the trades file is opened. Rows that
// fail to map are counted and logged at debug level; they never reach the
// exception report. When a key appears more than once the last row wins.
//
// =============================================================================

package reference

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ginjaninja78/trade-reconciliation/internal/metrics"
	"github.com/ginjaninja78/trade-reconciliation/internal/source"
	"github.com/ginjaninja78/trade-reconciliation/internal/types"
	"github.com/ginjaninja78/trade-reconciliation/internal/validation"
)

// Loader reads reference files through an Opener.
type Loader struct {
	open    source.Opener
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewLoader creates a Loader. A nil opener defaults to source.Open.
func NewLoader(open source.Opener, m *metrics.Metrics, logger *zap.Logger) *Loader {
	if open == nil {
		open = source.Open
	}
	return &Loader{open: open, metrics: m, logger: logger}
}

// LoadSymbols reads the symbol master into a table keyed by symbol.
func (l *Loader) LoadSymbols(path string) (map[string]types.SymbolReference, error) {
	return load[types.SymbolReference](l, path, metrics.SourceSymbols, validation.MapSymbol,
		func(ref types.SymbolReference) string { return ref.Symbol })
}

// LoadFills reads the counterparty fills into a table keyed by our_trade_id.
func (l *Loader) LoadFills(path string) (map[string]types.FillRecord, error) {
	return load[types.FillRecord](l, path, metrics.SourceFills, validation.MapFill,
		func(fill types.FillRecord) string { return fill.OurTradeID })
}

// load drains a source through a mapper into a keyed table.
//
// PARAMETERS:
//   - path: The reference file to read.
//   - sourceName: The metrics label of the file.
//   - mapRow: Converts a raw row into a typed record.
//   - key: Extracts the lookup key of a record.
//
// RETURNS:
//   - The lookup table.
//   - An error if the file cannot be opened or read.
func load[T any](l *Loader, path, sourceName string, mapRow validation.Mapper[T], key func(T) string) (map[string]T, error) {
	src, err := l.open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", sourceName, err)
	}
	defer src.Close()

	fileName := filepath.Base(path)
	table := make(map[string]T)

	for src.Next() {
		row := src.Row()
		l.metrics.RowRead(sourceName)

		result := mapRow(row, fileName)
		record, ok := result.Value()
		if !ok {
			l.metrics.ParseFailed(sourceName)
			if exc, hasExc := result.Exception(); hasExc {
				l.logger.Debug("Skipping unparsable reference row",
					zap.String("file", fileName),
					zap.Int("line", row.Line),
					zap.String("details", exc.Details))
			}
			continue
		}

		k := key(record)
		if _, exists := table[k]; exists {
			l.logger.Debug("Duplicate reference key, keeping last row",
				zap.String("file", fileName),
				zap.String("key", k),
				zap.Int("line", row.Line))
		}
		table[k] = record
	}

	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", sourceName, err)
	}

	l.logger.Info("Loaded reference data",
		zap.String("source", sourceName),
		zap.String("file", path),
		zap.Int("records", len(table)))

	return table, nil
}
