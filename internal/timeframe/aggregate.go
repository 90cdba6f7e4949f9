package timeframe

import (
	"log"
	"sort"

	"PatternScanner/internal/model"
)

// Aggregate collapses ordered daily bars into bars of the requested
// granularity using TradingView-style rules: open is the first member's open,
// close the last member's close, high/low the extrema, volume the sum. The
// emitted bar's Date is the last trading day of the period. Partitions with
// fewer than minTradingDays members are dropped, as is any candidate that
// fails OHLC validation. Daily input passes through untouched.
func Aggregate(daily []model.Bar, tf model.Timeframe, minTradingDays int) []model.Bar {
	if tf == model.Daily || len(daily) == 0 {
		return daily
	}
	if minTradingDays < 1 {
		minTradingDays = 1
	}

	ordered := make([]model.Bar, len(daily))
	copy(ordered, daily)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	var result []model.Bar
	var current model.Bar
	var currentKey model.PeriodKey
	started := false

	flush := func() {
		if !started || current.TradingDays < minTradingDays {
			return
		}
		if err := current.Validate(); err != nil {
			log.Printf("[WARN] dropping aggregated %s bar: %v", tf, err)
			return
		}
		result = append(result, current)
	}

	for _, d := range ordered {
		key := model.PeriodKeyFor(tf, d.Date)
		if !started || key != currentKey {
			flush()
			current = model.Bar{
				Date:        d.Date,
				PeriodStart: d.Date,
				Open:        d.Open,
				High:        d.High,
				Low:         d.Low,
				Close:       d.Close,
				Volume:      d.Volume,
				TradingDays: 1,
			}
			currentKey = key
			started = true
			continue
		}
		if d.High > current.High {
			current.High = d.High
		}
		if d.Low < current.Low {
			current.Low = d.Low
		}
		current.Close = d.Close
		current.Volume += d.Volume
		current.Date = d.Date
		current.TradingDays++
	}
	flush()

	return result
}
