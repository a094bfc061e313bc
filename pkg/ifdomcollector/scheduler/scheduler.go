// Package scheduler dispatches collection jobs at each device's configured
// poll interval.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/worker"
)

// ─────────────────────────────────────────────────────────────────────────────
// JobSubmitter — interface for dependency injection
// ─────────────────────────────────────────────────────────────────────────────

// JobSubmitter is the subset of worker.WorkerPool consumed by the scheduler.
// Using an interface lets tests inject a mock without importing the full pool.
type JobSubmitter interface {
	Submit(worker.CollectJob)
	TrySubmit(worker.CollectJob) bool
}

// ─────────────────────────────────────────────────────────────────────────────
// Scheduler
// ─────────────────────────────────────────────────────────────────────────────

// entry tracks the next-fire time for a single device.
type entry struct {
	hostname string
	interval time.Duration
	nextRun  time.Time
	job      worker.CollectJob
}

// Scheduler dispatches CollectJob values into a JobSubmitter at each device's
// configured PollInterval.
type Scheduler struct {
	pool   JobSubmitter
	logger *slog.Logger

	mu      sync.Mutex
	entries []entry

	// reload wakes the Start loop when the entry set changes.
	reload chan struct{}

	done chan struct{}
}

// New creates a Scheduler over the given jobs. The scheduler does NOT start
// automatically — call Start to begin dispatching.
func New(jobs []worker.CollectJob, pool JobSubmitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	s := &Scheduler{
		pool:   pool,
		logger: logger,
		reload: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.entries = buildEntries(jobs)
	return s
}

// Start runs the scheduling loop. It blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.Lock()
		if len(s.entries) == 0 {
			s.mu.Unlock()
			// Nothing to schedule — wait for context cancellation or a Reload.
			select {
			case <-ctx.Done():
				return
			case <-s.reload:
				continue
			}
		}

		// Sort by next run time.
		sort.Slice(s.entries, func(i, j int) bool {
			return s.entries[i].nextRun.Before(s.entries[j].nextRun)
		})
		next := s.entries[0].nextRun
		s.mu.Unlock()

		delay := time.Until(next)
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.reload:
			// Entry set changed; re-evaluate the earliest next-run time.
			timer.Stop()
			continue
		case <-timer.C:
		}

		now := time.Now()
		s.mu.Lock()
		for i := range s.entries {
			if s.entries[i].nextRun.After(now) {
				break
			}
			s.fireEntry(&s.entries[i])
			s.entries[i].nextRun = now.Add(s.entries[i].interval)
		}
		s.mu.Unlock()
	}
}

// Stop waits for the scheduling loop to exit. The caller must cancel the
// context passed to Start before calling Stop.
func (s *Scheduler) Stop() {
	<-s.done
}

// Reload atomically replaces the scheduled jobs. New devices are polled
// immediately; removed devices stop; changed intervals take effect on the
// next cycle.
func (s *Scheduler) Reload(jobs []worker.CollectJob) {
	newEntries := buildEntries(jobs)
	s.mu.Lock()
	s.entries = newEntries
	s.mu.Unlock()

	// Wake the loop so it does not sleep out a stale timer. Non-blocking:
	// a pending signal already guarantees a re-evaluation.
	select {
	case s.reload <- struct{}{}:
	default:
	}

	s.logger.Info("scheduler: jobs reloaded", "devices", len(newEntries))
}

// Entries returns the number of active entries (for monitoring / tests).
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

// buildEntries creates one entry per job.
func buildEntries(jobs []worker.CollectJob) []entry {
	now := time.Now()
	entries := make([]entry, 0, len(jobs))
	for _, job := range jobs {
		interval := time.Duration(job.Device.PollInterval) * time.Second
		if interval <= 0 {
			interval = 60 * time.Second
		}
		entries = append(entries, entry{
			hostname: job.Device.Hostname,
			interval: interval,
			nextRun:  now, // Poll immediately on start / reload.
			job:      job,
		})
	}
	return entries
}

// fireEntry dispatches one entry's job using TrySubmit (non-blocking).
func (s *Scheduler) fireEntry(e *entry) {
	if !s.pool.TrySubmit(e.job) {
		s.logger.Warn("scheduler: job queue full, dropping cycle",
			"hostname", e.hostname,
		)
		return
	}
	s.logger.Debug("scheduler: fired job", "hostname", e.hostname)
}

// ─────────────────────────────────────────────────────────────────────────────
// noopWriter — discard log output when no logger is provided
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
