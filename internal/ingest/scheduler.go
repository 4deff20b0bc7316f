package ingest

import (
	"context"
	"sync"
	"time"

	"catalog-sync/internal/domain"

	"go.uber.org/zap"
)

// CycleRunner runs one sync cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) domain.SyncOutcome
}

// Scheduler serializes sync cycles. A trigger that arrives while a cycle is
// running is deferred and replayed once the running cycle finishes; several
// deferred triggers collapse into one rerun.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	running  bool
	deferred bool
	wg       sync.WaitGroup
}

func NewScheduler(runner CycleRunner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// TryStart claims the cycle slot. When a cycle is already running it
// records a deferred run and returns false.
func (s *Scheduler) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.deferred = true
		return false
	}
	s.running = true
	return true
}

// OnComplete releases the slot, or keeps it and returns true when a
// deferred run is pending and must start now.
func (s *Scheduler) OnComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deferred {
		s.deferred = false
		return true
	}
	s.running = false
	return false
}

// Trigger runs a cycle now, or defers it behind the cycle in progress.
// It returns the outcomes of the cycles it ran itself.
func (s *Scheduler) Trigger(ctx context.Context) []domain.SyncOutcome {
	if !s.TryStart() {
		s.logger.Info("Sync cycle still running, deferring scheduled run")
		return nil
	}

	var outcomes []domain.SyncOutcome
	for {
		outcomes = append(outcomes, s.runner.RunCycle(ctx))
		if !s.OnComplete() {
			return outcomes
		}
		if ctx.Err() != nil {
			s.release()
			return outcomes
		}
	}
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.deferred = false
	s.mu.Unlock()
}

// Run optionally fires one eager cycle and then triggers a cycle every
// interval until ctx is cancelled. Ticks never block the ticker loop.
func (s *Scheduler) Run(ctx context.Context, eager bool) {
	s.logger.Info("Sync scheduler started",
		zap.Duration("interval", s.interval),
		zap.Bool("eager", eager),
	)

	if eager {
		s.spawn(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopping, waiting for running cycle")
			s.wg.Wait()
			return
		case <-ticker.C:
			s.spawn(ctx)
		}
	}
}

func (s *Scheduler) spawn(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Trigger(ctx)
	}()
}
