// =============================================================================
// Trade Reconciliation - Field Validation
// =============================================================================
//
// This module validates and converts the raw string values of a row into
// typed values. It backs the row mappers in mapper.go.
//
// VALIDATION STRATEGY:
//   - Every declared field of a row is validated, even after one has failed
//   - Errors are collected in column order, not returned on first failure
//   - A row with any error becomes a single PARSE_ERROR exception record
//
// SUPPORTED FIELD KINDS:
//   - string          : required, trimmed
//   - upper string    : required, trimmed and upper-cased (symbol columns)
//   - timestamp       : epoch seconds, ISO-8601 instant, or M/d/yyyy H:m:s (UTC)
//   - price           : decimal, rounded half-up to 2 places, must be > 0
//   - integer         : whole number, must be > 0
//   - trade status    : EXECUTED | CANCELLED, case-insensitive
//   - sector          : closed vocabulary, case-insensitive
//   - boolean         : "true" (case-insensitive) is true, anything else false
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

// PriceScale is the number of fraction digits prices are rounded to.
const PriceScale = 2

// usTimestampLayout matches M/d/yyyy H:m:s with one- or two-digit components.
const usTimestampLayout = "1/2/2006 15:4:5"

var (
	errNotPositive = errors.New("not positive")
	errUnparsable  = errors.New("unparsable")
)

// =============================================================================
// FIELD READER
// =============================================================================

// fieldReader reads typed values out of a raw row and collects the error
// message of every field that fails.
type fieldReader struct {
	fields types.RawFields
	errors []string
}

func newFieldReader(fields types.RawFields) *fieldReader {
	return &fieldReader{fields: fields}
}

// failed reports whether any field failed so far.
func (r *fieldReader) failed() bool {
	return len(r.errors) > 0
}

func (r *fieldReader) fail(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

// raw returns the trimmed value of a column, recording a missing-field
// error when it is absent or blank.
func (r *fieldReader) raw(name string) (string, bool) {
	value, ok := r.fields.Get(name)
	if !ok || strings.TrimSpace(value) == "" {
		r.fail("Missing required field: %s", name)
		return "", false
	}
	return strings.TrimSpace(value), true
}

// requiredString reads a required, trimmed string. Returns "" on failure.
func (r *fieldReader) requiredString(name string) string {
	value, _ := r.raw(name)
	return value
}

// requiredUpper reads a required string and upper-cases it.
func (r *fieldReader) requiredUpper(name string) string {
	return strings.ToUpper(r.requiredString(name))
}

func (r *fieldReader) requiredTimestamp(name string) time.Time {
	value, ok := r.raw(name)
	if !ok {
		return time.Time{}
	}

	ts, err := ParseTimestamp(value)
	if err != nil {
		r.fail("Field %s contains unparsable timestamp: %s", name, value)
	}
	return ts
}

func (r *fieldReader) requiredPrice(name string) decimal.Decimal {
	value, ok := r.raw(name)
	if !ok {
		return decimal.Zero
	}

	price, err := ParsePrice(value)
	switch {
	case errors.Is(err, errNotPositive):
		r.fail("Price must be positive: %s", value)
	case err != nil:
		r.fail("Field %s contains unparsable price: %s", name, value)
	}
	return price
}

func (r *fieldReader) requiredInteger(name string) int64 {
	value, ok := r.raw(name)
	if !ok {
		return 0
	}

	n, err := ParsePositiveInt(value)
	switch {
	case errors.Is(err, errNotPositive):
		r.fail("Integer must be positive: %s", value)
	case err != nil:
		r.fail("Field %s contains unparsable integer: %s", name, value)
	}
	return n
}

func (r *fieldReader) requiredTradeStatus(name string) types.TradeStatus {
	value, ok := r.raw(name)
	if !ok {
		return ""
	}

	status, err := types.ParseTradeStatus(value)
	if err != nil {
		r.fail("Field %s contains unparsable trade status: %s", name, value)
	}
	return status
}

func (r *fieldReader) requiredSector(name string) types.Sector {
	value, ok := r.raw(name)
	if !ok {
		return ""
	}

	sector, err := types.ParseSector(value)
	if err != nil {
		r.fail("Field %s contains unparsable sector: %s", name, value)
	}
	return sector
}

// requiredBool reads a required column leniently: only "true" is true.
// Any other text is false and is not an error.
func (r *fieldReader) requiredBool(name string) bool {
	value, ok := r.raw(name)
	if !ok {
		return false
	}
	return ParseLenientBool(value)
}

// =============================================================================
// VALUE PARSERS
// =============================================================================

// timestampParsers are tried in order; the first success wins.
var timestampParsers = []func(string) (time.Time, error){
	parseEpochSeconds,
	parseISOInstant,
	parseUSTimestamp,
}

// ParseTimestamp parses epoch seconds, an ISO-8601 instant, or a
// M/d/yyyy H:m:s timestamp interpreted as UTC. The result is always in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, parse := range timestampParsers {
		if ts, err := parse(value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w timestamp: %q", errUnparsable, raw)
}

func parseEpochSeconds(value string) (time.Time, error) {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}

func parseISOInstant(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func parseUSTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(usTimestampLayout, value, time.UTC)
}

// ParsePrice parses a base-10 decimal and rounds it half-up to two places.
// The rounded value must be strictly positive.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w price %q: %v", errUnparsable, raw, err)
	}

	price := d.Round(PriceScale)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price %q: %w", raw, errNotPositive)
	}
	return price, nil
}

// ParsePositiveInt parses a whole number that must be strictly positive.
func ParsePositiveInt(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w integer %q: %v", errUnparsable, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("integer %q: %w", raw, errNotPositive)
	}
	return n, nil
}

// ParseLenientBool returns true only for "true", ignoring case and spaces.
func ParseLenientBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}
