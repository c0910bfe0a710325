// Package source picks the row reader for an input file by its extension.
package source

import (
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/trade-reconciliation/internal/csvparser"
	"github.com/ginjaninja78/trade-reconciliation/internal/types"
	"github.com/ginjaninja78/trade-reconciliation/internal/xlsxparser"
)

// Source is a forward-only, single-pass sequence of raw rows.
type Source interface {
	Next() bool
	Row() types.RawRow
	Headers() []string
	Err() error
	Close() error
}

// Opener opens a Source for a path. Loaders take an Opener so tests can
// feed rows without touching the filesystem.
type Opener func(path string) (Source, error)

// Open returns an XLSX sheet source for .xlsx files and a streaming CSV
// parser for everything else.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		sheet, err := xlsxparser.NewSheetSource(path)
		if err != nil {
			return nil, err
		}
		return sheet, nil
	}

	parser, err := csvparser.NewStreamingParser(path)
	if err != nil {
		return nil, err
	}
	return parser, nil
}
