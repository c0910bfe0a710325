// =============================================================================
// Trade Reconciliation - Shared Types
// =============================================================================
//
// This package contains the value objects shared across the pipeline stages
// to avoid import cycles. Types defined here are used by:
//   - csvparser / xlsxparser (RawRow)
//   - validation (typed records, exception records)
//   - transform (reconciliation inputs and outputs)
//   - jsonwriter (JSON serialization of outputs)
//
// All records are immutable once built. Nothing in this package holds state.
//
// =============================================================================

package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW ROWS
// =============================================================================

// RawFields maps a column header to its raw value. A nil value means the
// column was absent or blank in the source row; it serializes as JSON null.
type RawFields map[string]*string

// Get returns the value for a column and whether it was present.
func (f RawFields) Get(column string) (string, bool) {
	v, ok := f[column]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// RawRow is a single data row read from a source file.
type RawRow struct {
	// Line is the 1-based line (or sheet row) number in the source file.
	// The header is line 1, so data rows start at 2.
	Line int

	// Fields contains the column values keyed by header.
	Fields RawFields
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// SymbolReference is one row of the active-symbol master.
type SymbolReference struct {
	Symbol      string
	CompanyName string
	Sector      Sector
	IsActive    bool
}

// FillRecord is a counterparty fill confirmation, keyed by OurTradeID.
type FillRecord struct {
	ExternalRefID  string
	OurTradeID     string
	Timestamp      time.Time
	Symbol         string
	Quantity       int64
	Price          decimal.Decimal
	CounterpartyID string
}

// =============================================================================
// TRADES
// =============================================================================

// TradeRecord is a parsed row of the trades file.
type TradeRecord struct {
	TradeID   string
	Timestamp time.Time
	Symbol    string
	Quantity  int64
	Price     decimal.Decimal
	BuyerID   string
	SellerID  string
	Status    TradeStatus

	// RawFields keeps the original column values for exception reporting.
	RawFields RawFields
}

// CleanedTradeRecord is an accepted trade as written to the cleaned-trades output.
type CleanedTradeRecord struct {
	TradeID               string          `json:"trade_id"`
	TimestampUTC          time.Time       `json:"timestamp_utc"`
	Symbol                string          `json:"symbol"`
	Quantity              int64           `json:"quantity"`
	Price                 decimal.Decimal `json:"price"`
	BuyerID               string          `json:"buyer_id"`
	SellerID              string          `json:"seller_id"`
	CounterpartyConfirmed bool            `json:"counterparty_confirmed"`
	DiscrepancyFlag       bool            `json:"discrepancy_flag"`
}

// MarshalJSON writes the price as a JSON number with exactly two fraction digits.
func (r CleanedTradeRecord) MarshalJSON() ([]byte, error) {
	type plain CleanedTradeRecord
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{
		plain: plain(r),
		Price: json.Number(r.Price.StringFixed(2)),
	})
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

// UnknownRecordID is used as the record id when the identifying field of a
// row could not be parsed.
const UnknownRecordID = "UNKNOWN"

// ExceptionRecord describes a row that could not be accepted as a clean trade.
type ExceptionRecord struct {
	RecordID      string        `json:"record_id"`
	SourceFile    string        `json:"source_file"`
	ExceptionType ExceptionType `json:"exception_type"`
	Details       string        `json:"details"`
	RawData       RawFields     `json:"raw_data"`
}
