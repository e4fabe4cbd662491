// Package scheduler runs the leadership refresh on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Task is one scheduled unit of work. It receives the scheduler's context.
type Task func(ctx context.Context) error

// Scheduler manages the cron entries of a long-running command.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *log.Logger

	mu      sync.Mutex
	running map[string]bool
	runs    map[string]int
}

// New creates a scheduler whose specs carry a seconds field ("0 30 16 * * 1-5").
func New(ctx context.Context, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
		logger:  logger,
		running: make(map[string]bool),
		runs:    make(map[string]int),
	}
}

// Register adds a named task. A tick that arrives while the previous run of the same task is
// still going is skipped.
func (s *Scheduler) Register(name, spec string, task Task) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(name, task) }); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}
	s.logger.Info().Str("task", name).Str("spec", spec).Msg("task registered")
	return nil
}

// RunNow executes a task immediately, outside the schedule.
func (s *Scheduler) RunNow(name string, task Task) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		s.logger.Warn().Str("task", name).Msg("previous run still in progress, skipping")
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[name] = false
		s.runs[name]++
		s.mu.Unlock()
	}()

	started := time.Now()
	s.logger.Info().Str("task", name).Msg("running task")
	if err := task(s.ctx); err != nil {
		s.logger.Error().Str("task", name).Err(err).Dur("elapsed", time.Since(started)).Msg("task failed")
		return
	}
	s.logger.Info().Str("task", name).Dur("elapsed", time.Since(started)).Msg("task finished")
}

// Runs returns how many times a task has completed
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[name]
}

// Next returns the next activation time across all entries, zero when none are scheduled.
// Before Start the activation is computed from the schedule itself.
func (s *Scheduler) Next() time.Time {
	now := time.Now()
	var next time.Time
	for _, e := range s.cron.Entries() {
		at := e.Next
		if at.IsZero() {
			at = e.Schedule.Next(now)
		}
		if next.IsZero() || (!at.IsZero() && at.Before(next)) {
			next = at
		}
	}
	return next
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}
