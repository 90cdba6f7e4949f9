package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PatternScanner/internal/cache"
	"PatternScanner/internal/config"
	"PatternScanner/internal/model"
	"PatternScanner/internal/pattern"
	"PatternScanner/internal/scan"
	"PatternScanner/internal/scheduler"
	"PatternScanner/internal/store"
	"PatternScanner/internal/upstream"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PatternScanner starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init store
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init sqlite store: %v", err)
	}
	defer st.Close()

	// Init fetcher
	retry := upstream.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	retry.BaseDelay = time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second
	retry.Multiplier = cfg.Retry.Multiplier

	var fetcher upstream.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = upstream.NewClient(cfg.DataSource.BaseURL, cfg.DataSource.ClientID,
			cfg.DataSource.AccessToken, cfg.Proxy, cfg.RateLimit.CallsPerSecond, retry)
	} else {
		fetcher = upstream.NewMockFetcher(cfg.Scan.Symbols, 400)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init data manager
	dm := cache.NewDataManager(st, fetcher)
	dm.CompletenessRatio = cfg.Scan.CompletenessRatio

	// Init scan engine
	engine := scan.NewEngine(dm, pattern.NewDetector(cfg.Scan.MarubozuPct, cfg.Scan.DojiPct))
	engine.Workers = cfg.Scan.Workers
	engine.BatchSize = cfg.Scan.BatchSize
	engine.BatchPause = time.Duration(cfg.Scan.BatchPauseSeconds) * time.Second

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, engine, st)
	sched.Symbols = cfg.Scan.Symbols
	for _, tf := range cfg.Scan.Timeframes {
		sched.Timeframes = append(sched.Timeframes, model.Timeframe(tf))
	}
	sched.HistoryPeriods = cfg.Scan.HistoryPeriods
	sched.MinBodyMovePct = cfg.Scan.MinBodyMovePct
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go sched.RunNow()
	}

	log.Println("[INFO] PatternScanner is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] PatternScanner stopped")
}
