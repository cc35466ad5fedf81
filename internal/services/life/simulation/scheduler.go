package simulation

import (
	"context"
	"time"
)

// DefaultInterval is the generation cadence when none is configured.
const DefaultInterval = 40 * time.Millisecond

// Scheduler decides when generations are due from accumulated elapsed time.
// Elapsed time left over after a due generation carries into the next tick so
// that jitter in the driving clock never drops a generation.
type Scheduler struct {
	interval time.Duration
	pending  time.Duration
}

// NewScheduler creates a scheduler. A non-positive interval pauses it.
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{interval: interval}
}

// Interval returns the configured cadence.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Paused reports whether the scheduler never fires.
func (s *Scheduler) Paused() bool {
	return s.interval <= 0
}

// Tick adds elapsed time and returns how many generations are now due.
func (s *Scheduler) Tick(elapsed time.Duration) int {
	if s.Paused() || elapsed <= 0 {
		return 0
	}
	s.pending += elapsed
	due := int(s.pending / s.interval)
	s.pending -= time.Duration(due) * s.interval
	return due
}

// Run calls step for every due generation until ctx is done.
//
// now supplies the clock used to measure elapsed time between ticker fires;
// nil means time.Now.
func (s *Scheduler) Run(ctx context.Context, now func() time.Time, step func(context.Context)) error {
	if now == nil {
		now = time.Now
	}
	if s.Paused() {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current := now()
			due := s.Tick(current.Sub(last))
			last = current
			for i := 0; i < due; i++ {
				if ctx.Err() != nil {
					return nil
				}
				step(ctx)
			}
		}
	}
}
