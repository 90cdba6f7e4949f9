package store

import (
	"path/filepath"
	"testing"
	"time"

	"PatternScanner/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBars() []model.Bar {
	return []model.Bar{
		{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Open: 100, High: 104, Low: 99, Close: 103, Volume: 1000},
		{Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), Open: 103, High: 108, Low: 102, Close: 107, Volume: 1500},
		{Date: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), Open: 107, High: 110, Low: 105, Close: 106, Volume: 1200},
	}
}

func TestUpsertDailyBars_Idempotent(t *testing.T) {
	s := openTestStore(t)
	bars := testBars()

	if _, err := s.UpsertDailyBars("RELIANCE", bars); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Writing the identical rows again must not create duplicates or drift.
	if _, err := s.UpsertDailyBars("RELIANCE", bars); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	got, err := s.ReadDailyBars("RELIANCE", start, end)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows after double upsert, got %d", len(got))
	}
	if got[0].Open != 100 || got[2].Close != 106 {
		t.Errorf("stored values drifted: first open %.2f, last close %.2f", got[0].Open, got[2].Close)
	}
}

func TestUpsertDailyBars_UpdatesExistingRow(t *testing.T) {
	s := openTestStore(t)
	bars := testBars()
	if _, err := s.UpsertDailyBars("TCS", bars); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// A corrected close for an existing date replaces the row in place.
	revised := bars[1]
	revised.Close = 106.5
	if _, err := s.UpsertDailyBars("TCS", []model.Bar{revised}); err != nil {
		t.Fatalf("revised upsert: %v", err)
	}

	got, err := s.ReadDailyBars("TCS", bars[0].Date, bars[2].Date)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[1].Close != 106.5 {
		t.Errorf("revised close = %.2f, want 106.5", got[1].Close)
	}
}

func TestReadDailyBars_OrderedAndBounded(t *testing.T) {
	s := openTestStore(t)
	bars := testBars()
	// Insert out of order; reads must come back chronological.
	if _, err := s.UpsertDailyBars("INFY", []model.Bar{bars[2], bars[0], bars[1]}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.ReadDailyBars("INFY", bars[0].Date, bars[1].Date)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected window of 2 rows, got %d", len(got))
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Error("rows not in date order")
	}

	// Unknown symbol reads empty, not an error.
	none, err := s.ReadDailyBars("UNKNOWN", bars[0].Date, bars[2].Date)
	if err != nil {
		t.Fatalf("read unknown: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no rows for unknown symbol, got %d", len(none))
	}
}

func TestAggregatedBars_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	weekly := []model.Bar{
		{
			Date:        time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC),
			PeriodStart: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			Open:        100, High: 110, Low: 99, Close: 106, Volume: 5700, TradingDays: 5,
		},
	}
	if _, err := s.SaveAggregatedBars("RELIANCE", model.Weekly, weekly); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Idempotent on the period key.
	if _, err := s.SaveAggregatedBars("RELIANCE", model.Weekly, weekly); err != nil {
		t.Fatalf("second save: %v", err)
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	got, err := s.ReadAggregatedBars("RELIANCE", model.Weekly, start, end)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 aggregated row, got %d", len(got))
	}
	if got[0].TradingDays != 5 || !got[0].PeriodStart.Equal(weekly[0].PeriodStart) {
		t.Errorf("aggregated row lost fields: %+v", got[0])
	}

	// A different timeframe key is a separate namespace.
	other, err := s.ReadAggregatedBars("RELIANCE", model.Monthly, start, end)
	if err != nil {
		t.Fatalf("read monthly: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no monthly rows, got %d", len(other))
	}
}

func TestSaveMatches(t *testing.T) {
	s := openTestStore(t)
	m := model.Match{
		Symbol:            "RELIANCE",
		Timeframe:         model.Daily,
		Direction:         model.Bullish,
		Marubozu:          model.BarSnapshot{Date: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)},
		Doji:              model.BarSnapshot{Date: time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)},
		BreakoutAmount:    1.0,
		RejectionStrength: 62.5,
		ScannedAt:         time.Now(),
	}
	if err := s.SaveMatches([]model.Match{m}); err != nil {
		t.Fatalf("save matches: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM detected_patterns WHERE symbol = ?`, "RELIANCE").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 stored pattern, got %d", count)
	}
}
