package jsonwriter

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

// Router sends each reconciled trade to one of two outputs: the cleaned
// trades array or the exception report array.
type Router struct {
	clean      *ArrayWriter
	exceptions *ArrayWriter
}

// Open creates both outputs. If the exception report cannot be created the
// cleaned trades file is finalized before the error is returned.
func Open(cleanPath, exceptionsPath string) (*Router, error) {
	clean, err := Create(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cleaned trades output: %w", err)
	}

	exceptions, err := Create(exceptionsPath)
	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("failed to open exceptions output: %w", err),
			clean.Close())
	}

	return &Router{clean: clean, exceptions: exceptions}, nil
}

// EmitClean appends a record to the cleaned trades output.
func (r *Router) EmitClean(rec types.CleanedTradeRecord) error {
	return r.clean.Write(rec)
}

// EmitException appends a record to the exception report.
func (r *Router) EmitException(rec types.ExceptionRecord) error {
	return r.exceptions.Write(rec)
}

// Counts returns the number of clean and exception records written.
func (r *Router) Counts() (clean, exceptions int) {
	return r.clean.Count(), r.exceptions.Count()
}

// Close finalizes both outputs, even when the first one fails, and returns
// the combined error.
func (r *Router) Close() error {
	return multierr.Combine(r.clean.Close(), r.exceptions.Close())
}
