package upstream

import (
	"context"

	"PatternScanner/internal/model"
)

// Fetcher defines the interface for the upstream market-data source.
// Implementations enforce their own rate ceiling and retry budget; a fetch
// that exhausts its budget surfaces as empty data, not as an error.
type Fetcher interface {
	// ResolveSecurityID maps a trading symbol to the upstream's internal
	// security identifier. Bar fetches take the identifier, not the symbol.
	ResolveSecurityID(ctx context.Context, symbol string) (string, error)

	// FetchDailyBars returns up to lookbackDays of daily bars for the
	// security, oldest first. Empty means "no data".
	FetchDailyBars(ctx context.Context, securityID string, lookbackDays int) ([]model.Bar, error)

	Name() string
}
