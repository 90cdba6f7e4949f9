package upstream

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"PatternScanner/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Bars are keyed by symbol; FetchDailyBars trims to the requested window.
type MockFetcher struct {
	Bars map[string][]model.Bar
	Err  error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) ResolveSecurityID(_ context.Context, symbol string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "SEC-" + symbol, nil
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, securityID string, lookbackDays int) ([]model.Bar, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	symbol := strings.TrimPrefix(securityID, "SEC-")
	bars := m.Bars[symbol]
	if len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}
	return bars, nil
}

// FetchCalls reports how many bar fetches were issued.
func (m *MockFetcher) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// NewMockFetcher generates a deterministic random walk of weekday bars per
// symbol, for running without an upstream endpoint configured.
func NewMockFetcher(symbols []string, days int) *MockFetcher {
	bars := make(map[string][]model.Bar, len(symbols))
	for _, symbol := range symbols {
		bars[symbol] = generateMockBars(symbol, days)
	}
	return &MockFetcher{Bars: bars}
}

func generateMockBars(symbol string, days int) []model.Bar {
	var seed int64
	for _, r := range symbol {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	price := 100 + rng.Float64()*900
	now := time.Now()
	var bars []model.Bar
	for d := now.AddDate(0, 0, -days); !d.After(now); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		open := price
		move := price * (rng.Float64() - 0.48) * 0.03
		close := open + move
		high := open
		if close > high {
			high = close
		}
		high += price * rng.Float64() * 0.01
		low := open
		if close < low {
			low = close
		}
		low -= price * rng.Float64() * 0.01

		bars = append(bars, model.Bar{
			Date:        time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			PeriodStart: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Open:        open,
			High:        high,
			Low:         low,
			Close:       close,
			Volume:      float64(100000 + rng.Intn(900000)),
			TradingDays: 1,
		})
		price = close
	}
	return bars
}
