// =============================================================================
// Trade Reconciliation - Reconciliation Engine
// =============================================================================
//
// This module decides the destiny of every executed trade. A Transformer
// holds the read-only reference tables and the set of trade ids seen so far,
// and runs an ordered list of checks where the first hit wins:
//
//   1. DUPLICATE_TRADE_ID      trade id seen before (the id is then marked seen)
//   2. INVALID_SYMBOL          symbol missing from the symbol master
//   3. INACTIVE_SYMBOL         symbol present but inactive
//   4. no fill                 clean, not confirmed, no discrepancy
//   5. FILL_SYMBOL_MISMATCH    fill symbol differs from the trade symbol
//   6. FILL_TIMESTAMP_INVALID  fill not strictly after the trade
//   7. clean                   confirmed; discrepancy when price or quantity differ
//
// A trade id is marked seen before any other check, so a trade that fails a
// later check still blocks its duplicates.
//
// CONCURRENCY:
//   A Transformer is not safe for concurrent use. Running several would need
//   the seen set sharded by trade id or guarded by a lock.
//
// =============================================================================

package transform

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

// ErrReconcileFault marks an unexpected internal failure while reconciling a
// trade. It aborts the run and is never turned into an exception record.
var ErrReconcileFault = errors.New("reconciliation fault")

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of reconciling one trade: exactly one of Clean or
// Exception is set.
type Result struct {
	Clean     *types.CleanedTradeRecord
	Exception *types.ExceptionRecord
}

// IsClean reports whether the trade was accepted.
func (r Result) IsClean() bool {
	return r.Clean != nil
}

func clean(rec types.CleanedTradeRecord) Result {
	return Result{Clean: &rec}
}

func exception(trade types.TradeRecord, sourceFile string, t types.ExceptionType, details string) Result {
	return Result{Exception: &types.ExceptionRecord{
		RecordID:      trade.TradeID,
		SourceFile:    sourceFile,
		ExceptionType: t,
		Details:       details,
		RawData:       trade.RawFields,
	}}
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer reconciles trades against the symbol master and counterparty fills.
type Transformer struct {
	symbols   map[string]types.SymbolReference
	fills     map[string]types.FillRecord
	threshold decimal.Decimal
	seen      map[string]struct{}
}

// New creates a Transformer with an empty seen set.
//
// PARAMETERS:
//   - symbols: Symbol master keyed by upper-cased symbol.
//   - fills: Counterparty fills keyed by our_trade_id.
//   - threshold: Largest absolute price difference that is not a discrepancy.
//
// RETURNS:
//   - A new Transformer, or an error if the threshold is negative.
func New(symbols map[string]types.SymbolReference, fills map[string]types.FillRecord, threshold decimal.Decimal) (*Transformer, error) {
	if threshold.IsNegative() {
		return nil, fmt.Errorf("price discrepancy threshold must not be negative: %s", threshold)
	}
	if symbols == nil {
		symbols = map[string]types.SymbolReference{}
	}
	if fills == nil {
		fills = map[string]types.FillRecord{}
	}

	return &Transformer{
		symbols:   symbols,
		fills:     fills,
		threshold: threshold,
		seen:      make(map[string]struct{}),
	}, nil
}

// Seen reports how many distinct trade ids have been reconciled.
func (t *Transformer) Seen() int {
	return len(t.seen)
}

// Reconcile runs the ordered checks against one trade.
//
// PARAMETERS:
//   - trade: A parsed, non-cancelled trade.
//   - sourceFile: The trades file name, used in exception records.
//
// RETURNS:
//   - The clean record or exception record for the trade.
//   - An error wrapping ErrReconcileFault if reconciliation panicked.
func (t *Transformer) Reconcile(trade types.TradeRecord, sourceFile string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{}
			err = fmt.Errorf("%w: trade %s: %v", ErrReconcileFault, trade.TradeID, r)
		}
	}()

	return t.reconcile(trade, sourceFile), nil
}

func (t *Transformer) reconcile(trade types.TradeRecord, sourceFile string) Result {
	// =========================================================================
	// CHECK 1: DUPLICATES
	// =========================================================================

	if _, dup := t.seen[trade.TradeID]; dup {
		return exception(trade, sourceFile, types.ExceptionDuplicateTradeID,
			fmt.Sprintf("Duplicate trade_id: %s", trade.TradeID))
	}
	t.seen[trade.TradeID] = struct{}{}

	// =========================================================================
	// CHECKS 2-3: SYMBOL MASTER
	// =========================================================================

	ref, ok := t.symbols[trade.Symbol]
	if !ok {
		return exception(trade, sourceFile, types.ExceptionInvalidSymbol,
			fmt.Sprintf("Symbol in trade record not found in reference data: %s", trade.Symbol))
	}
	if !ref.IsActive {
		return exception(trade, sourceFile, types.ExceptionInactiveSymbol,
			fmt.Sprintf("Symbol in trade record is inactive: %s", trade.Symbol))
	}

	// =========================================================================
	// CHECKS 4-7: COUNTERPARTY FILL
	// =========================================================================

	fill, confirmed := t.fills[trade.TradeID]
	if !confirmed {
		return clean(cleanedRecord(trade, false, false))
	}

	if fill.Symbol != trade.Symbol {
		return exception(trade, sourceFile, types.ExceptionFillSymbolMismatch,
			fmt.Sprintf("Fill symbol %s does not match trade symbol %s", fill.Symbol, trade.Symbol))
	}
	if !fill.Timestamp.After(trade.Timestamp) {
		return exception(trade, sourceFile, types.ExceptionFillTimestampInvalid,
			fmt.Sprintf("Fill timestamp %s is not after trade timestamp %s",
				formatInstant(fill.Timestamp), formatInstant(trade.Timestamp)))
	}

	return clean(cleanedRecord(trade, true, t.isDiscrepancy(trade, fill)))
}

// isDiscrepancy reports whether a fill differs from its trade in price by
// more than the threshold, or in quantity at all.
func (t *Transformer) isDiscrepancy(trade types.TradeRecord, fill types.FillRecord) bool {
	priceDiff := trade.Price.Sub(fill.Price).Abs()
	return priceDiff.GreaterThan(t.threshold) || trade.Quantity != fill.Quantity
}

func cleanedRecord(trade types.TradeRecord, confirmed, discrepancy bool) types.CleanedTradeRecord {
	return types.CleanedTradeRecord{
		TradeID:               trade.TradeID,
		TimestampUTC:          trade.Timestamp.UTC(),
		Symbol:                trade.Symbol,
		Quantity:              trade.Quantity,
		Price:                 trade.Price,
		BuyerID:               trade.BuyerID,
		SellerID:              trade.SellerID,
		CounterpartyConfirmed: confirmed,
		DiscrepancyFlag:       discrepancy,
	}
}

// formatInstant renders a timestamp as an ISO-8601 instant in UTC.
func formatInstant(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}
