package ifdom

import (
	"context"
	"log/slog"
	"time"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Collector registration surface
// ─────────────────────────────────────────────────────────────────────────────

// CollectorName is the name this collector registers under.
const CollectorName = "interface-dom"

// Option describes one configuration option of the collector.
type Option struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

// CollectorDefinition is the static registration surface: the collector name,
// its configuration options, and the metric kinds it can emit.
type CollectorDefinition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []Option `json:"options"`
	Metrics     []string `json:"metrics"`
}

// Definition returns the collector's registration surface.
func Definition() CollectorDefinition {
	return CollectorDefinition{
		Name:        CollectorName,
		Description: "Collects interface transceiver optic metric values and status indicators",
		Options: []Option{
			{
				Name:        "include_linkdown",
				Type:        "boolean",
				Default:     "false",
				Description: "Report interfaces with optics installed even when the link is down",
			},
		},
		Metrics: models.MetricNames(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Adapter contract
// ─────────────────────────────────────────────────────────────────────────────

// Adapter is the per-vendor-dialect extraction contract: given the raw output
// of the dialect's commands, produce normalized per-interface readings.
//
// Implementations must:
//   - consider only interfaces that actually report optic values (this also
//     de-duplicates secondary lanes of breakout transceivers),
//   - apply the eligibility policy before producing a reading,
//   - substitute models.MissingDescription for an absent description,
//   - silently drop interfaces present in only one of two correlated
//     command outputs (an expected steady-state condition, not a fault).
type Adapter interface {
	// Dialect names the vendor output shape, e.g. "eos".
	Dialect() string

	// Commands returns the device commands to execute, in order. The first
	// command is the primary (optics) command: when it fails the whole cycle
	// is abandoned.
	Commands() []string

	// Extract converts raw command results into normalized readings. results
	// holds one entry per command, in Commands() order. A nil, empty return
	// with nil error means the device has no reportable optics this cycle.
	Extract(results []driver.Result, cfg models.CollectorConfig) ([]Reading, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Collector — generic per-device orchestration
// ─────────────────────────────────────────────────────────────────────────────

// Collector binds one vendor adapter to one device transport. The four
// CLI/API dialects differ only in the adapter bound here; there is a single
// orchestration path.
//
// Collector holds no per-cycle state: every Collect call operates on its own
// freshly fetched output, so a single Collector is safe to invoke
// concurrently (the usual arrangement is one Collector per device anyway).
type Collector struct {
	adapter Adapter
	runner  driver.Runner
	logger  *slog.Logger
}

// New constructs a Collector. Pass nil for a no-op logger.
func New(adapter Adapter, runner driver.Runner, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Collector{adapter: adapter, runner: runner, logger: logger}
}

// Dialect names the vendor output shape of the bound adapter.
func (c *Collector) Dialect() string { return c.adapter.Dialect() }

// Collect runs one poll cycle for device and returns the classified metric
// batch, every metric stamped with ts.
//
// This is the one place a hard transport failure is converted into "no data
// this cycle": errors are logged and a nil slice is returned, never
// propagated, so one device's failure cannot affect any other device's poll.
func (c *Collector) Collect(ctx context.Context, device models.Device, ts time.Time, cfg models.CollectorConfig) []models.Metric {
	results, err := c.runner.Execute(ctx, c.adapter.Commands())
	if err != nil {
		c.logger.Error("dom collection failed",
			"device", device.Hostname,
			"dialect", c.adapter.Dialect(),
			"error", err.Error(),
		)
		return nil
	}

	if len(results) == 0 || !results[0].OK {
		errText := "no command results"
		if len(results) > 0 {
			errText = results[0].Err
		}
		c.logger.Error("dom command failed, aborting cycle",
			"device", device.Hostname,
			"dialect", c.adapter.Dialect(),
			"error", errText,
		)
		return nil
	}

	readings, err := c.adapter.Extract(results, cfg)
	if err != nil {
		c.logger.Error("dom extraction failed",
			"device", device.Hostname,
			"dialect", c.adapter.Dialect(),
			"error", err.Error(),
		)
		return nil
	}

	if len(readings) == 0 {
		c.logger.Debug("no optics found", "device", device.Hostname)
		return nil
	}

	var metrics []models.Metric
	for _, r := range readings {
		metrics = append(metrics, r.Metrics(ts)...)
	}

	c.logger.Debug("dom cycle complete",
		"device", device.Hostname,
		"interfaces", len(readings),
		"metrics", len(metrics),
	)
	return metrics
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
