package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"PatternScanner/internal/model"
	"PatternScanner/internal/store"
	"PatternScanner/internal/timeframe"
	"PatternScanner/internal/upstream"
)

// Roughly 250 trading days per 365 calendar days.
const tradingDayRatio = 250.0 / 365.0

const dateLayout = "2006-01-02"

// DataManager serves bar history store-first and backfills gaps from the
// upstream fetcher. It owns the decision of when the network is touched;
// callers never invoke the fetcher directly. Concurrent calls for different
// symbols are safe; calls for the same symbol must be serialized by the
// caller.
type DataManager struct {
	store   store.Store
	fetcher upstream.Fetcher

	// CompletenessRatio scales the expected trading-day count when judging
	// whether local data is sufficient. Empirical tunable, not a constant.
	CompletenessRatio float64

	// ProbeDays bounds the recent-weekday window inspected for holes before
	// a backfill is considered.
	ProbeDays int

	// MinTradingDays is the aggregation threshold for weekly/monthly bars.
	MinTradingDays int

	// Now is replaceable in tests. Nil means time.Now.
	Now func() time.Time
}

func NewDataManager(st store.Store, fetcher upstream.Fetcher) *DataManager {
	return &DataManager{
		store:             st,
		fetcher:           fetcher,
		CompletenessRatio: 0.8,
		ProbeDays:         10,
		MinTradingDays:    1,
	}
}

func (m *DataManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// GetBars returns bars for the trailing lookbackDays window at the given
// granularity. Weekly and monthly output always goes through aggregation, so
// downstream logic is indifferent to whether the dailies came from the store
// or the network. Upstream problems degrade to whatever is locally available
// (possibly nothing); only a local read failure is an error.
func (m *DataManager) GetBars(ctx context.Context, symbol string, lookbackDays int, tf model.Timeframe) ([]model.Bar, error) {
	end := m.now()
	start := end.AddDate(0, 0, -lookbackDays)

	daily, err := m.store.ReadDailyBars(symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("read %s from store: %w", symbol, err)
	}

	if !m.sufficient(daily, start, end) {
		if missing := m.missingDates(daily, start, end); len(missing) > 0 {
			m.backfill(ctx, symbol, missing)
			if refreshed, err := m.store.ReadDailyBars(symbol, start, end); err == nil {
				daily = refreshed
			} else {
				log.Printf("[WARN] re-read %s after backfill: %v", symbol, err)
			}
		}
	}

	if tf == model.Daily {
		return daily, nil
	}

	// Fast path: cached aggregates are valid only when they end on the same
	// trading day as the freshest daily row.
	if len(daily) > 0 {
		cached, err := m.store.ReadAggregatedBars(symbol, tf, start, end)
		if err == nil && len(cached) > 0 && cached[len(cached)-1].Date.Equal(daily[len(daily)-1].Date) {
			return cached, nil
		}
	}

	aggregated := timeframe.Aggregate(daily, tf, m.MinTradingDays)
	if len(aggregated) > 0 {
		if _, err := m.store.SaveAggregatedBars(symbol, tf, aggregated); err != nil {
			log.Printf("[WARN] cache %s aggregates for %s: %v", tf, symbol, err)
		}
	}
	return aggregated, nil
}

// sufficient applies the completeness heuristic: local data serves the span
// when the row count reaches CompletenessRatio of the expected trading days,
// tolerating weekends and holidays without a network call for every small gap.
func (m *DataManager) sufficient(bars []model.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	calendarDays := int(end.Sub(start).Hours() / 24)
	required := int(float64(calendarDays) * tradingDayRatio * m.CompletenessRatio)
	return len(bars) >= required
}

// missingDates walks back from the end of the span over the most recent
// ProbeDays weekdays and collects those with no stored bar. An empty store
// makes the whole span the gap.
func (m *DataManager) missingDates(existing []model.Bar, start, end time.Time) []time.Time {
	if len(existing) == 0 {
		return []time.Time{start, end}
	}
	have := make(map[string]bool, len(existing))
	for _, b := range existing {
		have[b.Date.Format(dateLayout)] = true
	}

	var missing []time.Time
	checked := 0
	for cur := end; !cur.Before(start) && checked < m.ProbeDays; cur = cur.AddDate(0, 0, -1) {
		if wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if !have[cur.Format(dateLayout)] {
			missing = append(missing, cur)
		}
		checked++
	}
	return missing
}

// backfill resolves the symbol and issues exactly one bounded fetch covering
// the missing dates, then upserts whatever came back. Any failure leaves the
// cache stale and is logged; the caller proceeds with local data.
func (m *DataManager) backfill(ctx context.Context, symbol string, missing []time.Time) {
	earliest := missing[0]
	for _, d := range missing[1:] {
		if d.Before(earliest) {
			earliest = d
		}
	}
	days := int(m.now().Sub(earliest).Hours()/24) + 1

	securityID, err := m.fetcher.ResolveSecurityID(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] resolve %s: %v", symbol, err)
		return
	}
	bars, err := m.fetcher.FetchDailyBars(ctx, securityID, days)
	if err != nil {
		log.Printf("[WARN] fetch %s: %v", symbol, err)
		return
	}
	if len(bars) == 0 {
		log.Printf("[INFO] no upstream data for %s", symbol)
		return
	}
	if n, err := m.store.UpsertDailyBars(symbol, bars); err != nil {
		log.Printf("[ERROR] persist %s: %v", symbol, err)
	} else {
		log.Printf("[INFO] backfilled %s: %d rows over %d days", symbol, n, days)
	}
}
