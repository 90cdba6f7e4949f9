package model

import (
	"fmt"
	"math"
	"time"
)

// Bar represents a single OHLCV candlestick for one period (day, week, or month).
// For aggregated bars, Date is the last trading day of the period, PeriodStart
// the first, and TradingDays the number of daily bars that formed it.
type Bar struct {
	Date        time.Time
	PeriodStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	TradingDays int
}

// Range returns high minus low.
func (b Bar) Range() float64 { return b.High - b.Low }

// Body returns the absolute distance between open and close.
func (b Bar) Body() float64 { return math.Abs(b.Close - b.Open) }

// BodyPct returns the body as a percentage of the range. A zero-range bar
// reports 0, so it can never qualify as a dominant bar.
func (b Bar) BodyPct() float64 {
	r := b.Range()
	if r == 0 {
		return 0
	}
	return b.Body() / r * 100
}

// BodyMovePct returns the body as a percentage of the open price.
func (b Bar) BodyMovePct() float64 {
	if b.Open == 0 {
		return 0
	}
	return b.Body() / b.Open * 100
}

func (b Bar) IsBullish() bool { return b.Close > b.Open }
func (b Bar) IsBearish() bool { return b.Close < b.Open }

// Validate checks OHLC sanity: low <= open <= high and low <= close <= high.
func (b Bar) Validate() error {
	day := b.Date.Format("2006-01-02")
	if b.Low > b.High {
		return fmt.Errorf("bar %s: low %.4f above high %.4f", day, b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("bar %s: open %.4f outside range [%.4f, %.4f]", day, b.Open, b.Low, b.High)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("bar %s: close %.4f outside range [%.4f, %.4f]", day, b.Close, b.Low, b.High)
	}
	return nil
}
