package store

import (
	"time"

	"PatternScanner/internal/model"
)

// Store is the narrow persistence interface the cache and scan layers use.
// Implementations must make UpsertDailyBars idempotent on (symbol, date):
// writing the same bar twice leaves stored state unchanged.
type Store interface {
	// UpsertDailyBars inserts or replaces daily bars, returning the number
	// of rows affected.
	UpsertDailyBars(symbol string, bars []model.Bar) (int64, error)

	// ReadDailyBars returns the stored daily bars for [start, end] in date
	// order. The result may be incomplete; callers judge sufficiency.
	ReadDailyBars(symbol string, start, end time.Time) ([]model.Bar, error)

	// ReadAggregatedBars is an optional fast path over cached weekly or
	// monthly bars. Correctness never depends on it hitting.
	ReadAggregatedBars(symbol string, tf model.Timeframe, start, end time.Time) ([]model.Bar, error)

	// SaveAggregatedBars caches aggregated bars, keyed on
	// (symbol, timeframe, period date).
	SaveAggregatedBars(symbol string, tf model.Timeframe, bars []model.Bar) (int64, error)

	// SaveMatches records detected patterns from a scheduled scan.
	SaveMatches(matches []model.Match) error

	Close() error
}
