// Package worker provides the fan-out worker pool that executes DOM
// collection jobs against monitored devices.
//
// Pipeline position:
//
//	scheduler → worker → format/json → transport
//
// Each job runs one full collection cycle for one device and produces one
// models.MetricBatch on the shared output channel.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vpbank/ifdom_collector/models"
	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/config"
)

// ─────────────────────────────────────────────────────────────────────────────
// Job
// ─────────────────────────────────────────────────────────────────────────────

// Source is one device's collection strategy. ifdom.Collector and the
// entsensor collector both satisfy it.
type Source interface {
	// Dialect names the vendor output shape this source decodes.
	Dialect() string

	// Collect runs one poll cycle. Transport and decode failures are logged
	// by the source and surface as an empty result.
	Collect(ctx context.Context, device models.Device, ts time.Time, cfg models.CollectorConfig) []models.Metric
}

// CollectJob is one scheduled collection cycle for one device.
type CollectJob struct {
	Device config.DeviceConfig
	Source Source
}

// ─────────────────────────────────────────────────────────────────────────────
// WorkerPool — fan-out dispatcher for CollectJobs
// ─────────────────────────────────────────────────────────────────────────────

// WorkerPool fans collection jobs out to N worker goroutines and collects the
// resulting batches into a shared output channel.
type WorkerPool struct {
	numWorkers  int
	collectorID string
	output      chan<- *models.MetricBatch
	logger      *slog.Logger

	jobs chan CollectJob
	wg   sync.WaitGroup

	// now is swappable for tests.
	now func() time.Time
}

// NewWorkerPool creates a pool of numWorkers goroutines that execute
// collection jobs and send batches to output.
func NewWorkerPool(numWorkers int, collectorID string, output chan<- *models.MetricBatch, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &WorkerPool{
		numWorkers:  numWorkers,
		collectorID: collectorID,
		output:      output,
		logger:      logger,
		jobs:        make(chan CollectJob, numWorkers*2),
		now:         time.Now,
	}
}

// Start launches the worker goroutines. They run until ctx is cancelled or
// Stop is called.
func (w *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}
}

// Submit enqueues a job. It blocks if the internal job channel is full.
func (w *WorkerPool) Submit(job CollectJob) {
	w.jobs <- job
}

// TrySubmit enqueues a job without blocking. Returns false if the channel is
// full, allowing the caller to drop the cycle rather than pile up.
func (w *WorkerPool) TrySubmit(job CollectJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop closes the job channel and waits for all workers to drain.
func (w *WorkerPool) Stop() {
	close(w.jobs)
	w.wg.Wait()
}

// worker is the per-goroutine loop.
func (w *WorkerPool) worker(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			batch := w.run(ctx, job)
			select {
			case w.output <- batch:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// run executes one collection cycle and wraps the result in a batch envelope.
func (w *WorkerPool) run(ctx context.Context, job CollectJob) *models.MetricBatch {
	device := models.Device{
		Hostname: job.Device.Hostname,
		IP:       job.Device.IP,
		Dialect:  job.Source.Dialect(),
	}
	cfg := models.CollectorConfig{IncludeLinkdown: job.Device.IncludeLinkdown}

	start := w.now()
	metrics := job.Source.Collect(ctx, device, start, cfg)
	elapsed := w.now().Sub(start)

	status := "success"
	if len(metrics) == 0 {
		status = "empty"
		w.logger.Debug("worker: empty cycle",
			"device", device.Hostname, "dialect", device.Dialect)
	}

	return &models.MetricBatch{
		Timestamp: start,
		Device:    device,
		Metrics:   metrics,
		Metadata: models.BatchMetadata{
			CollectorID:    w.collectorID,
			PollDurationMs: elapsed.Milliseconds(),
			PollStatus:     status,
		},
	}
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(b []byte) (int, error) { return len(b), nil }
