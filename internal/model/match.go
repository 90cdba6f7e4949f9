package model

import "time"

// Direction indicates the polarity of a detected pattern.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// BarSnapshot is the immutable copy of a bar carried inside a Match.
type BarSnapshot struct {
	Date        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	BodyPct     float64
	BodyMovePct float64
}

// Snapshot captures a bar's values and derived metrics.
func Snapshot(b Bar) BarSnapshot {
	return BarSnapshot{
		Date:        b.Date,
		Open:        b.Open,
		High:        b.High,
		Low:         b.Low,
		Close:       b.Close,
		Volume:      b.Volume,
		BodyPct:     b.BodyPct(),
		BodyMovePct: b.BodyMovePct(),
	}
}

// Match is one detected Marubozu→Doji occurrence. It carries no identity;
// repeated scans over the same window produce equal matches, and callers
// deduplicate if they need to.
type Match struct {
	Symbol            string
	Timeframe         Timeframe
	Direction         Direction
	Marubozu          BarSnapshot
	Doji              BarSnapshot
	BreakoutAmount    float64
	RejectionStrength float64
	ScannedAt         time.Time
}

// ScanStats summarizes one scan run.
type ScanStats struct {
	SymbolsScanned  int
	SymbolsWithData int
	PatternsFound   int
	FailedScans     int
	SkippedNoData   int
	DurationSeconds float64

	// Parameter echo so consumers can tell which scan produced the result.
	Timeframe      Timeframe
	HistoryPeriods int
	MinBodyMovePct float64
}

// ScanResponse is the in-process result shape consumed by collaborators
// (dashboard, CLI reporting).
type ScanResponse struct {
	Results        []Match
	Stats          ScanStats
	FailedSymbols  []string
	SkippedSymbols []string
}
