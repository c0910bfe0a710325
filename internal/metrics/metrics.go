// =============================================================================
// Trade Reconciliation - Run Metrics
// =============================================================================
//
// This module counts what happened during one reconciliation run. Counters
// live in a private Prometheus registry so a run can be exported as a
// node_exporter textfile and tests never touch the global registry.
//
// COUNTERS:
//   - rows read and parse failures, per source (symbols, fills, trades)
//   - trades cancelled, cleaned and excepted
//   - exceptions per exception type
//   - cleaned trades confirmed by a fill, and flagged for discrepancy
//   - run duration (gauge, seconds)
//
// =============================================================================

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

const namespace = "reconciler"

// Source labels.
const (
	SourceSymbols = "symbols"
	SourceFills   = "fills"
	SourceTrades  = "trades"
)

// Metrics holds the counters of a single run.
type Metrics struct {
	registry *prometheus.Registry

	rowsRead        *prometheus.CounterVec
	parseFailed     *prometheus.CounterVec
	tradesCancelled prometheus.Counter
	tradesCleaned   prometheus.Counter
	tradesExcepted  prometheus.Counter
	exceptions      *prometheus.CounterVec
	confirmed       prometheus.Counter
	discrepancies   prometheus.Counter
	runDuration     prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Data rows read from an input file.",
		}, []string{"source"}),
		parseFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parse_failed_total",
			Help:      "Input rows that could not be mapped to a record.",
		}, []string{"source"}),
		tradesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_cancelled_total",
			Help:      "Trades skipped because their status is CANCELLED.",
		}),
		tradesCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_cleaned_total",
			Help:      "Trades written to the cleaned output.",
		}),
		tradesExcepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_excepted_total",
			Help:      "Trade rows written to the exception report.",
		}),
		exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exceptions_total",
			Help:      "Exception records written, by exception type.",
		}, []string{"type"}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_confirmed_total",
			Help:      "Cleaned trades matched by a counterparty fill.",
		}),
		discrepancies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_discrepancy_total",
			Help:      "Cleaned trades whose fill differs in price or quantity.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the run.",
		}),
	}

	m.registry.MustRegister(
		m.rowsRead,
		m.parseFailed,
		m.tradesCancelled,
		m.tradesCleaned,
		m.tradesExcepted,
		m.exceptions,
		m.confirmed,
		m.discrepancies,
		m.runDuration,
	)

	// Pre-create labelled series so the export lists zero counts too.
	for _, source := range []string{SourceSymbols, SourceFills, SourceTrades} {
		m.rowsRead.WithLabelValues(source)
		m.parseFailed.WithLabelValues(source)
	}
	for _, t := range types.ExceptionTypes {
		m.exceptions.WithLabelValues(string(t))
	}

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// =============================================================================
// RECORDING
// =============================================================================

func (m *Metrics) RowRead(source string) {
	m.rowsRead.WithLabelValues(source).Inc()
}

func (m *Metrics) ParseFailed(source string) {
	m.parseFailed.WithLabelValues(source).Inc()
}

func (m *Metrics) TradeCancelled() {
	m.tradesCancelled.Inc()
}

// TradeCleaned records a cleaned trade and its fill outcome.
func (m *Metrics) TradeCleaned(rec types.CleanedTradeRecord) {
	m.tradesCleaned.Inc()
	if rec.CounterpartyConfirmed {
		m.confirmed.Inc()
	}
	if rec.DiscrepancyFlag {
		m.discrepancies.Inc()
	}
}

// TradeExcepted records a trade row sent to the exception report.
func (m *Metrics) TradeExcepted(t types.ExceptionType) {
	m.tradesExcepted.Inc()
	m.exceptions.WithLabelValues(string(t)).Inc()
}

// ObserveDuration sets the run duration gauge.
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.runDuration.Set(d.Seconds())
}

// =============================================================================
// SUMMARY
// =============================================================================

// SourceCounts holds the row counters of one input file.
type SourceCounts struct {
	Read        int64
	ParseFailed int64
}

// Summary is a point-in-time copy of every counter.
type Summary struct {
	Sources         map[string]SourceCounts
	TradesCancelled int64
	TradesCleaned   int64
	TradesExcepted  int64
	Confirmed       int64
	Discrepancies   int64
	Exceptions      map[types.ExceptionType]int64
	Duration        time.Duration
}

// Summary reads the current counter values.
func (m *Metrics) Summary() Summary {
	s := Summary{
		Sources:         make(map[string]SourceCounts, 3),
		TradesCancelled: counterValue(m.tradesCancelled),
		TradesCleaned:   counterValue(m.tradesCleaned),
		TradesExcepted:  counterValue(m.tradesExcepted),
		Confirmed:       counterValue(m.confirmed),
		Discrepancies:   counterValue(m.discrepancies),
		Exceptions:      make(map[types.ExceptionType]int64, len(types.ExceptionTypes)),
	}

	for _, source := range []string{SourceSymbols, SourceFills, SourceTrades} {
		s.Sources[source] = SourceCounts{
			Read:        counterValue(m.rowsRead.WithLabelValues(source)),
			ParseFailed: counterValue(m.parseFailed.WithLabelValues(source)),
		}
	}
	for _, t := range types.ExceptionTypes {
		s.Exceptions[t] = counterValue(m.exceptions.WithLabelValues(string(t)))
	}

	var g dto.Metric
	if err := m.runDuration.Write(&g); err == nil {
		s.Duration = time.Duration(g.GetGauge().GetValue() * float64(time.Second))
	}

	return s
}

func counterValue(c prometheus.Counter) int64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return int64(pb.GetCounter().GetValue())
}

// LogSummary writes the run summary at info level.
func (m *Metrics) LogSummary(logger *zap.Logger) {
	s := m.Summary()

	fields := []zap.Field{
		zap.Duration("run_time", s.Duration),
		zap.Int64("trades_cancelled", s.TradesCancelled),
		zap.Int64("trades_cleaned", s.TradesCleaned),
		zap.Int64("trades_excepted", s.TradesExcepted),
		zap.Int64("trades_confirmed", s.Confirmed),
		zap.Int64("trades_discrepancy", s.Discrepancies),
	}
	for _, source := range []string{SourceSymbols, SourceFills, SourceTrades} {
		c := s.Sources[source]
		fields = append(fields,
			zap.Int64(source+"_read", c.Read),
			zap.Int64(source+"_parse_failed", c.ParseFailed),
		)
	}
	for _, t := range types.ExceptionTypes {
		if n := s.Exceptions[t]; n > 0 {
			fields = append(fields, zap.Int64("exceptions_"+string(t), n))
		}
	}

	logger.Info("Run summary", fields...)
}

// WriteTextfile exports the registry in the Prometheus text format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
