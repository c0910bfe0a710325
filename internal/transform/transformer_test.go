package transform

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

const tradesFile = "trades.csv"

var (
	tradeTime = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	threshold = decimal.RequireFromString("0.01")
)

func symbols() map[string]types.SymbolReference {
	return map[string]types.SymbolReference{
		"AAPL": {Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: types.SectorTechnology, IsActive: true},
		"MSFT": {Symbol: "MSFT", CompanyName: "Microsoft", Sector: types.SectorTechnology, IsActive: false},
		"TSLA": {Symbol: "TSLA", CompanyName: "Tesla", Sector: types.SectorAutomotive, IsActive: true},
	}
}

func trade(id, symbol, price string, qty int64) types.TradeRecord {
	raw := id
	return types.TradeRecord{
		TradeID:   id,
		Timestamp: tradeTime,
		Symbol:    symbol,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
		BuyerID:   "BUY1",
		SellerID:  "SEL1",
		Status:    types.TradeStatusExecuted,
		RawFields: types.RawFields{"trade_id": &raw},
	}
}

func fill(tradeID, symbol, price string, qty int64, ts time.Time) types.FillRecord {
	return types.FillRecord{
		ExternalRefID:  "EXT-" + tradeID,
		OurTradeID:     tradeID,
		Timestamp:      ts,
		Symbol:         symbol,
		Quantity:       qty,
		Price:          decimal.RequireFromString(price),
		CounterpartyID: "CP1",
	}
}

func newTransformer(t *testing.T, fills ...types.FillRecord) *Transformer {
	t.Helper()
	table := make(map[string]types.FillRecord, len(fills))
	for _, f := range fills {
		table[f.OurTradeID] = f
	}
	tr, err := New(symbols(), table, threshold)
	require.NoError(t, err)
	return tr
}

func reconcile(t *testing.T, tr *Transformer, rec types.TradeRecord) Result {
	t.Helper()
	result, err := tr.Reconcile(rec, tradesFile)
	require.NoError(t, err)
	require.True(t, (result.Clean == nil) != (result.Exception == nil), "exactly one outcome")
	return result
}

func TestNewRejectsNegativeThreshold(t *testing.T) {
	_, err := New(nil, nil, decimal.RequireFromString("-0.01"))
	assert.Error(t, err)
}

func TestCleanTradeWithoutFill(t *testing.T) {
	tr := newTransformer(t)

	result := reconcile(t, tr, trade("T1", "AAPL", "150.00", 100))
	require.True(t, result.IsClean())

	want := types.CleanedTradeRecord{
		TradeID:               "T1",
		TimestampUTC:          tradeTime,
		Symbol:                "AAPL",
		Quantity:              100,
		Price:                 decimal.RequireFromString("150.00"),
		BuyerID:               "BUY1",
		SellerID:              "SEL1",
		CounterpartyConfirmed: false,
		DiscrepancyFlag:       false,
	}
	if diff := cmp.Diff(want, *result.Clean, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("clean record mismatch (-want +got):\n%s", diff)
	}
}

func TestFillWithinAndBeyondThreshold(t *testing.T) {
	later := tradeTime.Add(time.Minute)

	tests := []struct {
		name        string
		fillPrice   string
		fillQty     int64
		discrepancy bool
	}{
		{name: "exact match", fillPrice: "150.00", fillQty: 100, discrepancy: false},
		{name: "diff equal to threshold", fillPrice: "150.01", fillQty: 100, discrepancy: false},
		{name: "diff above threshold", fillPrice: "150.02", fillQty: 100, discrepancy: true},
		{name: "diff below fill", fillPrice: "149.98", fillQty: 100, discrepancy: true},
		{name: "quantity differs", fillPrice: "150.00", fillQty: 99, discrepancy: true},
		{name: "both differ", fillPrice: "151.00", fillQty: 1, discrepancy: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTransformer(t, fill("T1", "AAPL", tt.fillPrice, tt.fillQty, later))

			result := reconcile(t, tr, trade("T1", "AAPL", "150.00", 100))
			require.True(t, result.IsClean())
			assert.True(t, result.Clean.CounterpartyConfirmed)
			assert.Equal(t, tt.discrepancy, result.Clean.DiscrepancyFlag)
		})
	}
}

func TestZeroThresholdFlagsAnyPriceDifference(t *testing.T) {
	tr, err := New(symbols(), map[string]types.FillRecord{
		"T1": fill("T1", "AAPL", "150.01", 100, tradeTime.Add(time.Second)),
	}, decimal.Zero)
	require.NoError(t, err)

	result := reconcile(t, tr, trade("T1", "AAPL", "150.00", 100))
	assert.True(t, result.Clean.DiscrepancyFlag)
}

func TestExceptions(t *testing.T) {
	later := tradeTime.Add(time.Minute)

	tests := []struct {
		name    string
		fills   []types.FillRecord
		trade   types.TradeRecord
		excType types.ExceptionType
		details string
	}{
		{
			name:    "unknown symbol",
			trade:   trade("T1", "ZZZZ", "10.00", 1),
			excType: types.ExceptionInvalidSymbol,
			details: "Symbol in trade record not found in reference data: ZZZZ",
		},
		{
			name:    "inactive symbol",
			trade:   trade("T1", "MSFT", "300.00", 10),
			excType: types.ExceptionInactiveSymbol,
			details: "Symbol in trade record is inactive: MSFT",
		},
		{
			name:    "fill symbol mismatch",
			fills:   []types.FillRecord{fill("T1", "TSLA", "150.00", 100, later)},
			trade:   trade("T1", "AAPL", "150.00", 100),
			excType: types.ExceptionFillSymbolMismatch,
			details: "Fill symbol TSLA does not match trade symbol AAPL",
		},
		{
			name:    "fill at trade time",
			fills:   []types.FillRecord{fill("T1", "AAPL", "150.00", 100, tradeTime)},
			trade:   trade("T1", "AAPL", "150.00", 100),
			excType: types.ExceptionFillTimestampInvalid,
			details: "Fill timestamp 2024-01-15T10:00:00Z is not after trade timestamp 2024-01-15T10:00:00Z",
		},
		{
			name:    "fill before trade",
			fills:   []types.FillRecord{fill("T1", "AAPL", "150.00", 100, tradeTime.Add(-time.Second))},
			trade:   trade("T1", "AAPL", "150.00", 100),
			excType: types.ExceptionFillTimestampInvalid,
			details: "Fill timestamp 2024-01-15T09:59:59Z is not after trade timestamp 2024-01-15T10:00:00Z",
		},
		{
			name:    "symbol mismatch wins over timestamp",
			fills:   []types.FillRecord{fill("T1", "TSLA", "150.00", 100, tradeTime.Add(-time.Hour))},
			trade:   trade("T1", "AAPL", "150.00", 100),
			excType: types.ExceptionFillSymbolMismatch,
			details: "Fill symbol TSLA does not match trade symbol AAPL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTransformer(t, tt.fills...)

			result := reconcile(t, tr, tt.trade)
			require.False(t, result.IsClean())

			want := types.ExceptionRecord{
				RecordID:      tt.trade.TradeID,
				SourceFile:    tradesFile,
				ExceptionType: tt.excType,
				Details:       tt.details,
				RawData:       tt.trade.RawFields,
			}
			assert.Equal(t, want, *result.Exception)
		})
	}
}

func TestDuplicateTradeID(t *testing.T) {
	tr := newTransformer(t)

	first := reconcile(t, tr, trade("T1", "AAPL", "150.00", 100))
	assert.True(t, first.IsClean())

	second := reconcile(t, tr, trade("T1", "AAPL", "150.00", 100))
	require.False(t, second.IsClean())
	assert.Equal(t, types.ExceptionDuplicateTradeID, second.Exception.ExceptionType)
	assert.Equal(t, "Duplicate trade_id: T1", second.Exception.Details)
}

func TestDuplicateAfterFailedCheckIsStillDuplicate(t *testing.T) {
	tr := newTransformer(t)

	first := reconcile(t, tr, trade("T1", "MSFT", "300.00", 10))
	assert.Equal(t, types.ExceptionInactiveSymbol, first.Exception.ExceptionType)

	// Same id, now with a valid symbol: the id was already claimed.
	second := reconcile(t, tr, trade("T1", "AAPL", "150.00", 100))
	assert.Equal(t, types.ExceptionDuplicateTradeID, second.Exception.ExceptionType)

	assert.Equal(t, 1, tr.Seen())
}

func TestInstancesDoNotShareSeenSet(t *testing.T) {
	a, b := newTransformer(t), newTransformer(t)

	reconcile(t, a, trade("T1", "AAPL", "150.00", 100))
	result := reconcile(t, b, trade("T1", "AAPL", "150.00", 100))
	assert.True(t, result.IsClean())
}

func TestEveryTradeGetsOneOutcome(t *testing.T) {
	later := tradeTime.Add(time.Minute)
	tr := newTransformer(t,
		fill("T2", "AAPL", "150.02", 100, later),
		fill("T3", "TSLA", "1.00", 1, later),
	)

	var accepted, excepted int
	for i := 0; i < 50; i++ {
		symbol := []string{"AAPL", "MSFT", "TSLA", "NOPE"}[i%4]
		id := fmt.Sprintf("T%d", i%7)

		result := reconcile(t, tr, trade(id, symbol, "150.00", 100))
		if result.IsClean() {
			accepted++
		} else {
			excepted++
		}
	}
	assert.Equal(t, 50, accepted+excepted)
	assert.LessOrEqual(t, accepted, 7)
}

func TestReconcileRecoversFromPanic(t *testing.T) {
	// A zero Transformer has no seen set; marking an id panics.
	tr := &Transformer{}

	result, err := tr.Reconcile(trade("T1", "AAPL", "150.00", 100), tradesFile)
	require.ErrorIs(t, err, ErrReconcileFault)
	assert.Contains(t, err.Error(), "T1")
	assert.Nil(t, result.Clean)
	assert.Nil(t, result.Exception)
}
