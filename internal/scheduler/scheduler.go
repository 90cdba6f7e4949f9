package scheduler

import (
	"context"
	"fmt"
	"log"

	"PatternScanner/internal/model"
	"PatternScanner/internal/scan"
	"PatternScanner/internal/store"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the recurring scan task.
type Scheduler struct {
	Cron   *cron.Cron
	Engine *scan.Engine
	Store  store.Store
	Ctx    context.Context

	Symbols        []string
	Timeframes     []model.Timeframe
	HistoryPeriods int
	MinBodyMovePct float64
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, engine *scan.Engine, st store.Store) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Engine: engine,
		Store:  st,
		Ctx:    ctx,
	}
}

// Register registers the daily scan task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.scanTask); err != nil {
		return fmt.Errorf("register daily scan: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the scan task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	for _, tf := range s.Timeframes {
		if s.Ctx.Err() != nil {
			return
		}
		resp := s.Engine.Scan(s.Ctx, s.Symbols, tf, s.HistoryPeriods, s.MinBodyMovePct)
		if len(resp.Results) == 0 {
			continue
		}
		if err := s.Store.SaveMatches(resp.Results); err != nil {
			log.Printf("[ERROR] save %s matches: %v", tf, err)
		}
	}
}
