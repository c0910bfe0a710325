package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// TRADE STATUS
// =============================================================================

// TradeStatus is the lifecycle state reported for a trade.
type TradeStatus string

const (
	TradeStatusExecuted  TradeStatus = "EXECUTED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
)

// ParseTradeStatus matches a raw status case-insensitively.
func ParseTradeStatus(raw string) (TradeStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(TradeStatusExecuted):
		return TradeStatusExecuted, nil
	case string(TradeStatusCancelled):
		return TradeStatusCancelled, nil
	}
	return "", fmt.Errorf("unknown trade status: %q", raw)
}

// =============================================================================
// SECTOR
// =============================================================================

// Sector is the industry classification of a listed symbol.
// Values are the display names used in the reference file.
type Sector string

const (
	SectorTechnology        Sector = "Technology"
	SectorConsumerCyclical  Sector = "Consumer Cyclical"
	SectorAutomotive        Sector = "Automotive"
	SectorFinancialServices Sector = "Financial Services"
	SectorIndustrial        Sector = "Industrial"
)

// Sectors lists every known sector in declaration order.
var Sectors = []Sector{
	SectorTechnology,
	SectorConsumerCyclical,
	SectorAutomotive,
	SectorFinancialServices,
	SectorIndustrial,
}

// ParseSector matches a raw sector display name case-insensitively.
func ParseSector(raw string) (Sector, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range Sectors {
		if strings.EqualFold(string(s), trimmed) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown sector: %q", raw)
}

// =============================================================================
// EXCEPTION TAXONOMY
// =============================================================================

// ExceptionType is the machine-readable reason a trade row was rejected.
type ExceptionType string

const (
	ExceptionParseError           ExceptionType = "PARSE_ERROR"
	ExceptionDuplicateTradeID     ExceptionType = "DUPLICATE_TRADE_ID"
	ExceptionInvalidSymbol        ExceptionType = "INVALID_SYMBOL"
	ExceptionInactiveSymbol       ExceptionType = "INACTIVE_SYMBOL"
	ExceptionFillSymbolMismatch   ExceptionType = "FILL_SYMBOL_MISMATCH"
	ExceptionFillTimestampInvalid ExceptionType = "FILL_TIMESTAMP_INVALID"
)

// ExceptionTypes is the closed set of exception types, in check order.
var ExceptionTypes = []ExceptionType{
	ExceptionParseError,
	ExceptionDuplicateTradeID,
	ExceptionInvalidSymbol,
	ExceptionInactiveSymbol,
	ExceptionFillSymbolMismatch,
	ExceptionFillTimestampInvalid,
}
