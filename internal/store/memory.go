package store

import (
	"sort"
	"sync"
	"time"

	"PatternScanner/internal/model"
)

// MemoryStore is a map-backed Store used in tests and local development.
type MemoryStore struct {
	mu         sync.Mutex
	daily      map[string]map[string]model.Bar // symbol -> date -> bar
	aggregated map[string]map[string]model.Bar // symbol|timeframe -> period date -> bar
	matches    []model.Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		daily:      make(map[string]map[string]model.Bar),
		aggregated: make(map[string]map[string]model.Bar),
	}
}

func (s *MemoryStore) UpsertDailyBars(symbol string, bars []model.Bar) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.daily[symbol] == nil {
		s.daily[symbol] = make(map[string]model.Bar)
	}
	for _, b := range bars {
		s.daily[symbol][b.Date.Format(dateLayout)] = b
	}
	return int64(len(bars)), nil
}

func (s *MemoryStore) ReadDailyBars(symbol string, start, end time.Time) ([]model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bars []model.Bar
	for day, b := range s.daily[symbol] {
		if day >= start.Format(dateLayout) && day <= end.Format(dateLayout) {
			b.TradingDays = 1
			bars = append(bars, b)
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (s *MemoryStore) ReadAggregatedBars(symbol string, tf model.Timeframe, start, end time.Time) ([]model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bars []model.Bar
	for day, b := range s.aggregated[symbol+"|"+string(tf)] {
		if day >= start.Format(dateLayout) && day <= end.Format(dateLayout) {
			bars = append(bars, b)
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (s *MemoryStore) SaveAggregatedBars(symbol string, tf model.Timeframe, bars []model.Bar) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := symbol + "|" + string(tf)
	if s.aggregated[key] == nil {
		s.aggregated[key] = make(map[string]model.Bar)
	}
	for _, b := range bars {
		s.aggregated[key][b.Date.Format(dateLayout)] = b
	}
	return int64(len(bars)), nil
}

func (s *MemoryStore) SaveMatches(matches []model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, matches...)
	return nil
}

// Matches returns a copy of everything recorded through SaveMatches.
func (s *MemoryStore) Matches() []model.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Match, len(s.matches))
	copy(out, s.matches)
	return out
}

func (s *MemoryStore) Close() error { return nil }
