// =============================================================================
// Trade Reconciliation - Pipeline
// =============================================================================
//
// This module orchestrates one reconciliation run from input files to the
// two JSON outputs.
//
// PIPELINE:
//   1. Load the symbol master and the counterparty fills in full
//   2. Open the trades file
//   3. Open the cleaned trades and exception report outputs
//   4. Stream every trade row:
//        parse failure  -> exception report (PARSE_ERROR)
//        CANCELLED      -> dropped
//        otherwise      -> reconciliation engine -> cleaned trades or exceptions
//   5. Finalize both outputs
//
// Row-level problems never stop a run. Setup failures, output write failures
// and reconciliation faults abort it with an error.
//
// =============================================================================

package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trade-reconciliation/internal/jsonwriter"
	"github.com/ginjaninja78/trade-reconciliation/internal/metrics"
	"github.com/ginjaninja78/trade-reconciliation/internal/reference"
	"github.com/ginjaninja78/trade-reconciliation/internal/source"
	"github.com/ginjaninja78/trade-reconciliation/internal/transform"
	"github.com/ginjaninja78/trade-reconciliation/internal/types"
	"github.com/ginjaninja78/trade-reconciliation/internal/validation"
)

// Options lists the files and tolerance of a run.
type Options struct {
	SymbolsFile          string
	FillsFile            string
	TradesFile           string
	CleanedTradesFile    string
	ExceptionsReportFile string
	Threshold            decimal.Decimal
}

// Pipeline runs a single reconciliation.
type Pipeline struct {
	opts    Options
	open    source.Opener
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Pipeline that reads inputs through source.Open.
func New(opts Options, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		opts:    opts,
		open:    source.Open,
		metrics: m,
		logger:  logger,
	}
}

// WithOpener replaces the input opener.
func (p *Pipeline) WithOpener(open source.Opener) *Pipeline {
	p.open = open
	return p
}

// Run executes the pipeline. The run duration is recorded even on failure.
func (p *Pipeline) Run() (err error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveDuration(time.Since(start))
	}()

	// =========================================================================
	// STEP 1: REFERENCE DATA
	// =========================================================================

	loader := reference.NewLoader(p.open, p.metrics, p.logger)

	symbols, err := loader.LoadSymbols(p.opts.SymbolsFile)
	if err != nil {
		return err
	}
	fills, err := loader.LoadFills(p.opts.FillsFile)
	if err != nil {
		return err
	}

	transformer, err := transform.New(symbols, fills, p.opts.Threshold)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2-3: OPEN TRADES AND OUTPUTS
	// =========================================================================

	trades, err := p.open(p.opts.TradesFile)
	if err != nil {
		return fmt.Errorf("failed to open trades file: %w", err)
	}
	defer trades.Close()

	router, err := jsonwriter.Open(p.opts.CleanedTradesFile, p.opts.ExceptionsReportFile)
	if err != nil {
		return err
	}
	defer func() {
		multierr.AppendInto(&err, router.Close())
	}()

	p.logger.Info("Streaming trades",
		zap.String("trades_file", p.opts.TradesFile),
		zap.String("cleaned_trades_file", p.opts.CleanedTradesFile),
		zap.String("exceptions_report_file", p.opts.ExceptionsReportFile))

	// =========================================================================
	// STEP 4: STREAM TRADES
	// =========================================================================

	sourceFile := filepath.Base(p.opts.TradesFile)
	for trades.Next() {
		if err := p.processRow(trades.Row(), sourceFile, transformer, router); err != nil {
			return err
		}
	}
	if err := trades.Err(); err != nil {
		return fmt.Errorf("failed to read trades file: %w", err)
	}

	clean, exceptions := router.Counts()
	p.logger.Info("Finished streaming trades",
		zap.Int("cleaned", clean),
		zap.Int("exceptions", exceptions))

	return nil
}

// processRow routes one trade row to its destination.
func (p *Pipeline) processRow(row types.RawRow, sourceFile string, transformer *transform.Transformer, router *jsonwriter.Router) error {
	p.metrics.RowRead(metrics.SourceTrades)

	parsed := validation.MapTrade(row, sourceFile)
	trade, ok := parsed.Value()
	if !ok {
		p.metrics.ParseFailed(metrics.SourceTrades)
		exc, _ := parsed.Exception()
		p.logger.Debug("Trade row failed to parse",
			zap.Int("line", row.Line),
			zap.String("details", exc.Details))
		return p.emitException(router, exc)
	}

	if trade.Status == types.TradeStatusCancelled {
		p.metrics.TradeCancelled()
		p.logger.Debug("Skipping cancelled trade", zap.String("trade_id", trade.TradeID))
		return nil
	}

	result, err := transformer.Reconcile(trade, sourceFile)
	if err != nil {
		return err
	}

	if result.IsClean() {
		if err := router.EmitClean(*result.Clean); err != nil {
			return err
		}
		p.metrics.TradeCleaned(*result.Clean)
		return nil
	}

	p.logger.Debug("Trade rejected",
		zap.String("trade_id", trade.TradeID),
		zap.String("exception_type", string(result.Exception.ExceptionType)))
	return p.emitException(router, *result.Exception)
}

func (p *Pipeline) emitException(router *jsonwriter.Router, exc types.ExceptionRecord) error {
	if err := router.EmitException(exc); err != nil {
		return err
	}
	p.metrics.TradeExcepted(exc.ExceptionType)
	return nil
}
