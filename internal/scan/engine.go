package scan

import (
	"context"
	"log"
	"sync"
	"time"

	"PatternScanner/internal/cache"
	"PatternScanner/internal/model"
	"PatternScanner/internal/pattern"
	"PatternScanner/internal/timeframe"
)

// Engine drives pattern scans across many symbols. Each symbol runs its full
// pipeline independently: cache-first history, aggregation, adjacency
// validation, then matching over validated pairs only. Symbols are dispatched
// in batches to a fixed worker pool with a pause between batches, so the
// upstream rate ceiling holds even when every symbol needs a backfill.
type Engine struct {
	data     *cache.DataManager
	detector *pattern.Detector

	Workers    int
	BatchSize  int
	BatchPause time.Duration
}

func NewEngine(data *cache.DataManager, detector *pattern.Detector) *Engine {
	return &Engine{
		data:       data,
		detector:   detector,
		Workers:    3,
		BatchSize:  10,
		BatchPause: 2 * time.Second,
	}
}

type symbolResult struct {
	symbol  string
	matches []model.Match
	skipped bool
	err     error
}

// Scan runs the pipeline for every symbol and aggregates matches and
// statistics. One symbol's failure is recorded and never aborts the batch.
// Cancelling the context stops dispatch of new symbols; in-flight work
// finishes and its partial upserts remain valid.
func (e *Engine) Scan(ctx context.Context, symbols []string, tf model.Timeframe, historyPeriods int, minBodyMovePct float64) model.ScanResponse {
	start := time.Now()
	log.Printf("[INFO] starting scan: %d symbols, timeframe %s, history %d, min body move %.1f%%",
		len(symbols), tf, historyPeriods, minBodyMovePct)

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	batchSize := e.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	jobs := make(chan string)
	results := make(chan symbolResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				results <- e.scanSymbol(ctx, symbol, tf, historyPeriods, minBodyMovePct)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, symbol := range symbols {
			if i > 0 && i%batchSize == 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(e.BatchPause):
				}
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- symbol:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resp := model.ScanResponse{}
	withData := 0
	for r := range results {
		switch {
		case r.err != nil:
			log.Printf("[ERROR] scan %s(%s): %v", r.symbol, tf, r.err)
			resp.FailedSymbols = append(resp.FailedSymbols, r.symbol)
		case r.skipped:
			resp.SkippedSymbols = append(resp.SkippedSymbols, r.symbol)
		default:
			withData++
			resp.Results = append(resp.Results, r.matches...)
		}
	}

	elapsed := time.Since(start)
	resp.Stats = model.ScanStats{
		SymbolsScanned:  len(symbols),
		SymbolsWithData: withData,
		PatternsFound:   len(resp.Results),
		FailedScans:     len(resp.FailedSymbols),
		SkippedNoData:   len(resp.SkippedSymbols),
		DurationSeconds: elapsed.Seconds(),
		Timeframe:       tf,
		HistoryPeriods:  historyPeriods,
		MinBodyMovePct:  minBodyMovePct,
	}
	log.Printf("[INFO] scan complete: %d patterns, %d with data, %d skipped, %d failed in %.2fs",
		resp.Stats.PatternsFound, withData, resp.Stats.SkippedNoData, resp.Stats.FailedScans, elapsed.Seconds())
	return resp
}

func (e *Engine) scanSymbol(ctx context.Context, symbol string, tf model.Timeframe, historyPeriods int, minBodyMovePct float64) symbolResult {
	bars, err := e.data.GetBars(ctx, symbol, tf.LookbackDays(historyPeriods), tf)
	if err != nil {
		return symbolResult{symbol: symbol, err: err}
	}
	if len(bars) < 2 {
		return symbolResult{symbol: symbol, skipped: true}
	}

	scannedAt := time.Now()
	var matches []model.Match
	for _, pair := range timeframe.AdjacentPairs(bars, tf) {
		if m, ok := e.detector.Match(symbol, tf, bars[pair[0]], bars[pair[1]], minBodyMovePct); ok {
			m.ScannedAt = scannedAt
			matches = append(matches, m)
		}
	}
	return symbolResult{symbol: symbol, matches: matches}
}
