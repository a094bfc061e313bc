// Package app wires the Interface DOM Collector pipeline stages together and
// manages their lifecycle.
//
// Pipeline:
//
//	Scheduler → WorkerPool → [batchCh] → Formatter → [formattedCh] → Transport
//	                                   ↘ InfluxDB sink (optional)
//
// One collection source is built per configured device according to its
// dialect; the worker pool runs the cycles and the app ships the resulting
// batches downstream.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/driver/snmp"
	jsonformat "github.com/vpbank/ifdom_collector/format/json"
	"github.com/vpbank/ifdom_collector/ifdom"
	"github.com/vpbank/ifdom_collector/models"
	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/config"
	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/scheduler"
	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/worker"
	filetransport "github.com/vpbank/ifdom_collector/transport/file"
	"github.com/vpbank/ifdom_collector/transport/influx"
	"github.com/vpbank/ifdom_collector/vendors/ciscossh"
	"github.com/vpbank/ifdom_collector/vendors/entsensor"
	"github.com/vpbank/ifdom_collector/vendors/eos"
	"github.com/vpbank/ifdom_collector/vendors/nxapi"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// RunnerFactory builds the command transport for one CLI/API device. The
// returned runner executes the dialect's commands over eAPI, NXAPI, or SSH.
type RunnerFactory func(dev config.DeviceConfig) (driver.Runner, error)

// Config holds the top-level settings for the collector application.
// Zero-value fields fall back to documented defaults.
type Config struct {
	// ConfigPath is the YAML configuration file.
	ConfigPath string

	// Runners builds command transports for the CLI/API dialects. Devices
	// whose dialect needs a runner are skipped (with a warning) when nil.
	Runners RunnerFactory

	// SSHParsers are the screen-scrape parsers for the nxos-ssh and ios-ssh
	// dialects. Devices using those dialects are skipped when unset.
	SSHParsers ciscossh.Parsers

	// BufferSize is the capacity of each inter-stage channel. Default: 1000.
	BufferSize int

	// PrettyPrint enables indented JSON output.
	PrettyPrint bool

	// DebugDump logs every batch as naturally-sorted per-metric lines.
	DebugDump bool

	// TransportWriter is the io.Writer for file transport. nil = os.Stdout.
	TransportWriter io.Writer

	// Influx enables the InfluxDB sink when non-nil.
	Influx *influx.Config
}

func (c *Config) withDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// App
// ─────────────────────────────────────────────────────────────────────────────

// App orchestrates the full collector pipeline. Create one with New, start it
// with Start, and stop it with Stop (or cancel the context).
type App struct {
	cfg    Config
	logger *slog.Logger

	// Loaded configuration (populated in Start).
	loadedCfg *config.LoadedConfig

	// Pipeline components.
	workerPool *worker.WorkerPool
	sched      *scheduler.Scheduler
	formatter  *jsonformat.JSONFormatter
	transport  filetransport.Transport
	sink       *influx.Sink

	// Inter-stage channels.
	batchCh     chan *models.MetricBatch
	formattedCh chan []byte

	// Lifecycle.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an App. It does not start anything — call Start for that.
func New(cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	cfg.withDefaults()
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Start loads configuration, constructs all pipeline stages, and launches the
// goroutines that connect them.
//
// The caller must eventually call Stop (or cancel the passed-in context's
// parent) to release resources.
func (a *App) Start(ctx context.Context) error {
	// ── 1. Load configuration ───────────────────────────────────────────
	a.logger.Info("app: loading configuration", "file", a.cfg.ConfigPath)
	loadedCfg, err := config.Load(a.cfg.ConfigPath, a.logger)
	if err != nil {
		return fmt.Errorf("app: load config: %w", err)
	}
	a.loadedCfg = loadedCfg
	a.logger.Info("app: configuration loaded",
		"collector_id", loadedCfg.CollectorID,
		"devices", len(loadedCfg.Devices),
	)

	// ── 2. Create inter-stage channels ──────────────────────────────────
	a.batchCh = make(chan *models.MetricBatch, a.cfg.BufferSize)
	a.formattedCh = make(chan []byte, a.cfg.BufferSize)

	// ── 3. Build pipeline components (reverse order: transport → sources) ──
	a.transport = filetransport.New(filetransport.Config{
		Writer: a.cfg.TransportWriter,
	}, a.logger)

	a.formatter = jsonformat.New(jsonformat.Config{
		PrettyPrint: a.cfg.PrettyPrint,
	}, a.logger)

	if a.cfg.Influx != nil {
		sink, err := influx.New(*a.cfg.Influx, a.logger)
		if err != nil {
			return fmt.Errorf("app: influx sink: %w", err)
		}
		a.sink = sink
		a.logger.Info("app: influx sink enabled", "database", a.cfg.Influx.Database)
	}

	a.workerPool = worker.NewWorkerPool(loadedCfg.Workers, loadedCfg.CollectorID, a.batchCh, a.logger)

	jobs := a.buildJobs(loadedCfg)
	a.sched = scheduler.New(jobs, a.workerPool, a.logger)

	// ── 4. Create a cancellable context for all goroutines ──────────────
	pipeCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// ── 5. Start pipeline goroutines (transport first, sources last) ─────
	a.startTransportStage(pipeCtx)
	a.startFormatStage(pipeCtx)
	a.workerPool.Start(pipeCtx)

	// Scheduler blocks in its own goroutine.
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sched.Start(pipeCtx)
	}()
	a.logger.Info("app: scheduler started", "entries", a.sched.Entries())

	a.logger.Info("app: pipeline running",
		"workers", loadedCfg.Workers,
		"buffer_size", a.cfg.BufferSize,
	)
	return nil
}

// Stop performs a graceful shutdown.
//
// Shutdown order:
//  1. Cancel the pipeline context (stops scheduler + worker pool producers).
//  2. Wait for the scheduler goroutine to exit.
//  3. Drain the worker pool (waits for in-flight cycles to complete).
//  4. Close batchCh → format stage drains → closes formattedCh → transport
//     stage drains → exits.
//  5. Close transport and sink.
func (a *App) Stop() {
	a.logger.Info("app: shutting down")

	// 1. Signal all goroutines to stop.
	if a.cancel != nil {
		a.cancel()
	}

	// 2. Wait for the scheduler to return.
	if a.sched != nil {
		a.sched.Stop()
	}

	// 3. Drain the worker pool (waits for in-flight cycles).
	if a.workerPool != nil {
		a.workerPool.Stop()
	}

	// 4. Close batchCh to cascade channel closes through the pipeline.
	if a.batchCh != nil {
		close(a.batchCh)
	}

	// 5. Wait for all pipeline goroutines to drain.
	a.wg.Wait()

	// 6. Release resources.
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			a.logger.Error("app: transport close error", "error", err.Error())
		}
	}
	if a.sink != nil {
		_ = a.sink.Close()
	}

	a.logger.Info("app: shutdown complete")
}

// Reload atomically replaces the running configuration. New devices are
// polled immediately; removed devices stop; changed intervals take effect on
// the next cycle. Returns an error if the new configuration fails to load.
func (a *App) Reload() error {
	a.logger.Info("app: reloading configuration")
	newCfg, err := config.Load(a.cfg.ConfigPath, a.logger)
	if err != nil {
		return fmt.Errorf("app: reload config: %w", err)
	}

	a.sched.Reload(a.buildJobs(newCfg))
	a.loadedCfg = newCfg

	a.logger.Info("app: configuration reloaded", "devices", len(newCfg.Devices))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Source construction
// ─────────────────────────────────────────────────────────────────────────────

// buildJobs constructs one collection job per usable device. Devices whose
// dialect cannot be served with the injected collaborators are skipped with a
// warning rather than failing the whole application.
func (a *App) buildJobs(cfg *config.LoadedConfig) []worker.CollectJob {
	// Deterministic job order.
	hostnames := make([]string, 0, len(cfg.Devices))
	for hostname := range cfg.Devices {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	jobs := make([]worker.CollectJob, 0, len(cfg.Devices))
	for _, hostname := range hostnames {
		dev := cfg.Devices[hostname]
		source, err := a.buildSource(dev)
		if err != nil {
			a.logger.Warn("app: skipping device",
				"device", hostname, "dialect", dev.Dialect, "error", err.Error())
			continue
		}
		jobs = append(jobs, worker.CollectJob{Device: dev, Source: source})
	}
	return jobs
}

// buildSource picks the collection strategy for one device by dialect.
func (a *App) buildSource(dev config.DeviceConfig) (worker.Source, error) {
	if dev.Dialect == "entsensor" {
		snmpCfg := dev.SNMP
		connect := func(context.Context) (entsensor.Session, error) {
			return snmp.Connect(snmpCfg)
		}
		return entsensor.New(connect, a.logger), nil
	}

	var adapter ifdom.Adapter
	switch dev.Dialect {
	case "eos":
		adapter = eos.New(a.logger)
	case "nxapi":
		adapter = nxapi.New(a.logger)
	case "nxos-ssh":
		nxos, err := ciscossh.NewNXOS(a.cfg.SSHParsers, a.logger)
		if err != nil {
			return nil, err
		}
		adapter = nxos
	case "ios-ssh":
		ios, err := ciscossh.NewIOS(a.cfg.SSHParsers, a.logger)
		if err != nil {
			return nil, err
		}
		adapter = ios
	default:
		return nil, fmt.Errorf("unknown dialect %q", dev.Dialect)
	}

	if a.cfg.Runners == nil {
		return nil, fmt.Errorf("no runner factory for dialect %q", dev.Dialect)
	}
	runner, err := a.cfg.Runners(dev)
	if err != nil {
		return nil, fmt.Errorf("build runner: %w", err)
	}
	return ifdom.New(adapter, runner, a.logger), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline stage goroutines
// ─────────────────────────────────────────────────────────────────────────────

// startFormatStage reads batches from batchCh, ships them to the optional
// sink, formats them to JSON, and sends the bytes to formattedCh. When
// batchCh is closed (shutdown) it closes formattedCh to cascade the shutdown
// downstream.
func (a *App) startFormatStage(_ context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(a.formattedCh)

		for batch := range a.batchCh {
			if a.cfg.DebugDump && len(batch.Metrics) > 0 {
				a.dumpBatch(batch)
			}

			if a.sink != nil {
				if err := a.sink.WriteBatch(batch); err != nil {
					a.logger.Error("app: influx write error",
						"device", batch.Device.Hostname, "error", err.Error())
				}
			}

			data, err := a.formatter.Format(batch)
			if err != nil {
				a.logger.Warn("app: format error",
					"device", batch.Device.Hostname, "error", err.Error())
				continue
			}
			a.formattedCh <- data
		}
	}()
}

// startTransportStage reads formatted bytes from formattedCh and writes them
// via the transport.
func (a *App) startTransportStage(_ context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		for data := range a.formattedCh {
			if err := a.transport.Send(data); err != nil {
				a.logger.Error("app: transport send error",
					"error", err.Error(), "bytes", len(data))
			}
		}
	}()
}

// dumpBatch logs the batch as one naturally-sorted line per metric, so
// Ethernet2 sorts before Ethernet10.
func (a *App) dumpBatch(batch *models.MetricBatch) {
	lines := make([]string, 0, len(batch.Metrics))
	for _, m := range batch.Metrics {
		lines = append(lines, m.String())
	}
	sort.Sort(natural.StringSlice(lines))
	a.logger.Debug("app: batch dump",
		"device", batch.Device.Hostname,
		"metrics", "\n"+strings.Join(lines, "\n"),
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// Utilities
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
