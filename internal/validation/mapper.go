package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

// =============================================================================
// ROW RESULT
// =============================================================================

// RowResult is the outcome of mapping one raw row: either a parsed record or
// a PARSE_ERROR exception record, never both.
type RowResult[T any] struct {
	value     T
	exception *types.ExceptionRecord
}

// Parsed wraps a successfully mapped record.
func Parsed[T any](value T) RowResult[T] {
	return RowResult[T]{value: value}
}

// Failed wraps the exception record of a row that could not be mapped.
func Failed[T any](exception types.ExceptionRecord) RowResult[T] {
	return RowResult[T]{exception: &exception}
}

// IsParsed reports whether the row mapped successfully.
func (r RowResult[T]) IsParsed() bool {
	return r.exception == nil
}

// Value returns the parsed record, if any.
func (r RowResult[T]) Value() (T, bool) {
	return r.value, r.exception == nil
}

// Exception returns the exception record, if any.
func (r RowResult[T]) Exception() (types.ExceptionRecord, bool) {
	if r.exception == nil {
		return types.ExceptionRecord{}, false
	}
	return *r.exception, true
}

// Mapper converts a raw row read from sourceFile into a typed record.
type Mapper[T any] func(row types.RawRow, sourceFile string) RowResult[T]

// Expected header columns of each input file.
var (
	SymbolColumns = []string{"symbol", "company_name", "is_active", "sector"}
	FillColumns   = []string{"external_ref_id", "our_trade_id", "symbol", "counterparty_id", "timestamp", "price", "quantity"}
	TradeColumns  = []string{"trade_id", "symbol", "buyer_id", "seller_id", "timestamp", "price", "quantity", "trade_status"}
)

// MissingColumns returns the expected columns absent from headers.
func MissingColumns(headers, expected []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range expected {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// =============================================================================
// ROW MAPPERS
// =============================================================================

// MapTrade maps a row of the trades file.
func MapTrade(row types.RawRow, sourceFile string) RowResult[types.TradeRecord] {
	r := newFieldReader(row.Fields)

	tradeID := r.requiredString("trade_id")
	symbol := r.requiredUpper("symbol")
	buyerID := r.requiredString("buyer_id")
	sellerID := r.requiredString("seller_id")
	timestamp := r.requiredTimestamp("timestamp")
	price := r.requiredPrice("price")
	quantity := r.requiredInteger("quantity")
	status := r.requiredTradeStatus("trade_status")

	if r.failed() {
		return Failed[types.TradeRecord](parseError(tradeID, sourceFile, row, r.errors))
	}

	return Parsed(types.TradeRecord{
		TradeID:   tradeID,
		Timestamp: timestamp,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Status:    status,
		RawFields: row.Fields,
	})
}

// MapFill maps a row of the counterparty fills file.
func MapFill(row types.RawRow, sourceFile string) RowResult[types.FillRecord] {
	r := newFieldReader(row.Fields)

	externalRefID := r.requiredString("external_ref_id")
	ourTradeID := r.requiredString("our_trade_id")
	symbol := r.requiredUpper("symbol")
	counterpartyID := r.requiredString("counterparty_id")
	timestamp := r.requiredTimestamp("timestamp")
	price := r.requiredPrice("price")
	quantity := r.requiredInteger("quantity")

	if r.failed() {
		return Failed[types.FillRecord](parseError(externalRefID, sourceFile, row, r.errors))
	}

	return Parsed(types.FillRecord{
		ExternalRefID:  externalRefID,
		OurTradeID:     ourTradeID,
		Timestamp:      timestamp,
		Symbol:         symbol,
		Quantity:       quantity,
		Price:          price,
		CounterpartyID: counterpartyID,
	})
}

// MapSymbol maps a row of the symbol reference file.
func MapSymbol(row types.RawRow, sourceFile string) RowResult[types.SymbolReference] {
	r := newFieldReader(row.Fields)

	symbol := r.requiredUpper("symbol")
	companyName := r.requiredString("company_name")
	isActive := r.requiredBool("is_active")
	sector := r.requiredSector("sector")

	if r.failed() {
		return Failed[types.SymbolReference](parseError(symbol, sourceFile, row, r.errors))
	}

	return Parsed(types.SymbolReference{
		Symbol:      symbol,
		CompanyName: companyName,
		Sector:      sector,
		IsActive:    isActive,
	})
}

// parseError collapses the field errors of a row into one exception record.
// recordID is the row's identifying value, or "" when it did not parse.
func parseError(recordID, sourceFile string, row types.RawRow, errs []string) types.ExceptionRecord {
	if recordID == "" {
		recordID = types.UnknownRecordID
	}

	return types.ExceptionRecord{
		RecordID:      recordID,
		SourceFile:    sourceFile,
		ExceptionType: types.ExceptionParseError,
		Details:       fmt.Sprintf("Row %d: %s", row.Line, strings.Join(errs, "; ")),
		RawData:       row.Fields,
	}
}
