package validation

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

const sourceFile = "test.csv"

// row builds a raw row from column/value pairs; an empty value is absent.
func row(line int, pairs ...string) types.RawRow {
	fields := make(types.RawFields, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fields[pairs[i]] = nil
			continue
		}
		v := pairs[i+1]
		fields[pairs[i]] = &v
	}
	return types.RawRow{Line: line, Fields: fields}
}

func tradeRow(line int, overrides ...string) types.RawRow {
	base := map[string]string{
		"trade_id":     "TRD001",
		"symbol":       "aapl",
		"buyer_id":     "BUY1",
		"seller_id":    "SEL1",
		"timestamp":    "2024-01-15T10:00:00Z",
		"price":        "150.005",
		"quantity":     "100",
		"trade_status": "executed",
	}
	for i := 0; i+1 < len(overrides); i += 2 {
		base[overrides[i]] = overrides[i+1]
	}
	var pairs []string
	for k, v := range base {
		pairs = append(pairs, k, v)
	}
	return row(line, pairs...)
}

func TestMapTradeValidRow(t *testing.T) {
	r := tradeRow(2)

	result := MapTrade(r, sourceFile)
	require.True(t, result.IsParsed())

	trade, ok := result.Value()
	require.True(t, ok)

	want := types.TradeRecord{
		TradeID:   "TRD001",
		Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Symbol:    "AAPL",
		Quantity:  100,
		Price:     decimal.RequireFromString("150.01"),
		BuyerID:   "BUY1",
		SellerID:  "SEL1",
		Status:    types.TradeStatusExecuted,
		RawFields: r.Fields,
	}
	if diff := cmp.Diff(want, trade, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("MapTrade() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "150.01", trade.Price.StringFixed(2))

	_, hasException := result.Exception()
	assert.False(t, hasException)
}

func TestMapTradeMissingPrice(t *testing.T) {
	result := MapTrade(tradeRow(7, "price", ""), sourceFile)
	require.False(t, result.IsParsed())

	exc, ok := result.Exception()
	require.True(t, ok)
	assert.Equal(t, types.ExceptionParseError, exc.ExceptionType)
	assert.Equal(t, "TRD001", exc.RecordID)
	assert.Equal(t, sourceFile, exc.SourceFile)
	assert.Equal(t, "Row 7: Missing required field: price", exc.Details)
	assert.Contains(t, exc.RawData, "price")
}

func TestMapTradeCollectsAllErrors(t *testing.T) {
	result := MapTrade(tradeRow(3,
		"trade_id", "",
		"timestamp", "yesterday",
		"price", "-1",
		"quantity", "ten",
		"trade_status", "PENDING",
	), sourceFile)

	exc, ok := result.Exception()
	require.True(t, ok)
	assert.Equal(t, types.UnknownRecordID, exc.RecordID)
	assert.Equal(t,
		"Row 3: Missing required field: trade_id; "+
			"Field timestamp contains unparsable timestamp: yesterday; "+
			"Price must be positive: -1; "+
			"Field quantity contains unparsable integer: ten; "+
			"Field trade_status contains unparsable trade status: PENDING",
		exc.Details)
}

func TestMapTradeNonPositiveQuantity(t *testing.T) {
	exc, ok := MapTrade(tradeRow(2, "quantity", "0"), sourceFile).Exception()
	require.True(t, ok)
	assert.Equal(t, "Row 2: Integer must be positive: 0", exc.Details)
}

func TestMapTradePriceRoundingToZero(t *testing.T) {
	exc, ok := MapTrade(tradeRow(2, "price", "0.004"), sourceFile).Exception()
	require.True(t, ok)
	assert.Equal(t, "Row 2: Price must be positive: 0.004", exc.Details)
}

func TestMapTradeUnparsablePrice(t *testing.T) {
	exc, ok := MapTrade(tradeRow(2, "price", "abc"), sourceFile).Exception()
	require.True(t, ok)
	assert.Equal(t, "Row 2: Field price contains unparsable price: abc", exc.Details)
}

func TestMapFill(t *testing.T) {
	result := MapFill(row(2,
		"external_ref_id", "EXT001",
		"our_trade_id", "TRD001",
		"symbol", "msft",
		"counterparty_id", "CP1",
		"timestamp", "1705312800",
		"price", "299.99",
		"quantity", "50",
	), sourceFile)

	fill, ok := result.Value()
	require.True(t, ok)
	assert.Equal(t, "EXT001", fill.ExternalRefID)
	assert.Equal(t, "TRD001", fill.OurTradeID)
	assert.Equal(t, "MSFT", fill.Symbol)
	assert.Equal(t, "CP1", fill.CounterpartyID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), fill.Timestamp)
	assert.True(t, fill.Price.Equal(decimal.RequireFromString("299.99")))
	assert.Equal(t, int64(50), fill.Quantity)
}

func TestMapFillMissingQuantity(t *testing.T) {
	result := MapFill(row(4,
		"external_ref_id", "EXT009",
		"our_trade_id", "TRD009",
		"symbol", "MSFT",
		"counterparty_id", "CP1",
		"timestamp", "1705312800",
		"price", "299.99",
	), sourceFile)

	exc, ok := result.Exception()
	require.True(t, ok)
	assert.Equal(t, "EXT009", exc.RecordID)
	assert.Contains(t, exc.Details, "quantity")
	assert.Contains(t, exc.Details, "Row 4")
}

func TestMapSymbol(t *testing.T) {
	result := MapSymbol(row(2,
		"symbol", "googl",
		"company_name", "Alphabet Inc.",
		"is_active", "TRUE",
		"sector", "technology",
	), sourceFile)

	ref, ok := result.Value()
	require.True(t, ok)
	assert.Equal(t, types.SymbolReference{
		Symbol:      "GOOGL",
		CompanyName: "Alphabet Inc.",
		Sector:      types.SectorTechnology,
		IsActive:    true,
	}, ref)
}

func TestMapSymbolLenientBoolean(t *testing.T) {
	for _, raw := range []string{"false", "yes", "1", "maybe"} {
		t.Run(raw, func(t *testing.T) {
			ref, ok := MapSymbol(row(2,
				"symbol", "TSLA",
				"company_name", "Tesla",
				"is_active", raw,
				"sector", "Automotive",
			), sourceFile).Value()
			require.True(t, ok)
			assert.False(t, ref.IsActive)
		})
	}
}

func TestMapSymbolMissingSector(t *testing.T) {
	exc, ok := MapSymbol(row(5,
		"symbol", "TSLA",
		"company_name", "Tesla",
		"is_active", "true",
	), sourceFile).Exception()
	require.True(t, ok)
	assert.Equal(t, "TSLA", exc.RecordID)
	assert.Equal(t, "Row 5: Missing required field: sector", exc.Details)
}

func TestMapSymbolMissingIsActive(t *testing.T) {
	exc, ok := MapSymbol(row(2,
		"symbol", "TSLA",
		"company_name", "Tesla",
		"sector", "Automotive",
	), sourceFile).Exception()
	require.True(t, ok)
	assert.Equal(t, "Row 2: Missing required field: is_active", exc.Details)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "epoch", raw: "1705312800", want: want},
		{name: "iso utc", raw: "2024-01-15T10:00:00Z", want: want},
		{name: "iso offset", raw: "2024-01-15T12:00:00+02:00", want: want},
		{name: "us format", raw: "1/15/2024 10:0:0", want: want},
		{name: "us padded", raw: "01/15/2024 10:00:00", want: want},
		{name: "us single digit hour", raw: "1/15/2024 9:05:07", want: time.Date(2024, 1, 15, 9, 5, 7, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseTimestamp("2024-01-15")
	assert.Error(t, err)
}

func TestParsePriceRoundsHalfUp(t *testing.T) {
	tests := map[string]string{
		"150":     "150.00",
		"150.005": "150.01",
		"150.004": "150.00",
		" 9.999 ": "10.00",
	}
	for raw, want := range tests {
		got, err := ParsePrice(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.StringFixed(2), raw)
	}
}

func TestMissingColumns(t *testing.T) {
	assert.Empty(t, MissingColumns(append([]string{"extra"}, TradeColumns...), TradeColumns))
	assert.Equal(t, []string{"company_name", "sector"},
		MissingColumns([]string{"symbol", "is_active"}, SymbolColumns))
}
