// Package influx implements an InfluxDB 1.x sink for classified DOM metric
// batches.
//
// Pipeline position:
//
//	ifdom collectors → transport/influx
//
// Unlike transport/file, which ships the JSON-formatted envelope, this sink
// consumes the structured models.MetricBatch directly: each metric becomes one
// point whose measurement is the metric kind, tagged with the device hostname
// and the per-interface dimension tags.
package influx

import (
	"fmt"
	"log/slog"
	"net/url"

	client "github.com/influxdata/influxdb1-client"

	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config controls the InfluxDB sink.
type Config struct {
	// URL of the InfluxDB HTTP endpoint, e.g. "http://localhost:8086".
	URL string

	// Database to write into (required).
	Database string

	// Username/Password for HTTP basic auth. Both empty disables auth.
	Username string
	Password string

	// RetentionPolicy selects a non-default retention policy when set.
	RetentionPolicy string
}

// ─────────────────────────────────────────────────────────────────────────────
// Sink
// ─────────────────────────────────────────────────────────────────────────────

// pointsWriter is the subset of *client.Client used by the sink; tests inject
// a fake.
type pointsWriter interface {
	Write(bp client.BatchPoints) (*client.Response, error)
}

// Sink writes metric batches to InfluxDB. It is safe for concurrent use; the
// underlying client serialises nothing and each WriteBatch is one HTTP call.
type Sink struct {
	cfg    Config
	writer pointsWriter
	logger *slog.Logger
}

// New connects a sink to the configured InfluxDB endpoint. The connection is
// lazy; a wrong URL surfaces on the first WriteBatch.
func New(cfg Config, logger *slog.Logger) (*Sink, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("transport/influx: Database is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("transport/influx: parse URL %q: %w", cfg.URL, err)
	}

	c, err := client.NewClient(client.Config{
		URL:      *u,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("transport/influx: new client: %w", err)
	}

	return newSink(cfg, c, logger), nil
}

func newSink(cfg Config, w pointsWriter, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Sink{cfg: cfg, writer: w, logger: logger}
}

// WriteBatch converts every metric in the batch into a point and writes them
// in a single request. An empty batch is a no-op.
func (s *Sink) WriteBatch(batch *models.MetricBatch) error {
	if batch == nil || len(batch.Metrics) == 0 {
		return nil
	}

	points := make([]client.Point, 0, len(batch.Metrics))
	for _, m := range batch.Metrics {
		points = append(points, client.Point{
			Measurement: m.Name,
			Tags: map[string]string{
				"hostname": batch.Device.Hostname,
				"dialect":  batch.Device.Dialect,
				"if_name":  m.Tags.IfName,
				"if_desc":  m.Tags.IfDesc,
				"media":    m.Tags.Media,
			},
			Time: m.Timestamp,
			Fields: map[string]interface{}{
				"value": m.Value,
			},
		})
	}

	bp := client.BatchPoints{
		Points:          points,
		Database:        s.cfg.Database,
		RetentionPolicy: s.cfg.RetentionPolicy,
	}

	resp, err := s.writer.Write(bp)
	if err != nil {
		s.logger.Error("transport/influx: write failed",
			"hostname", batch.Device.Hostname, "points", len(points), "error", err.Error())
		return fmt.Errorf("transport/influx: write: %w", err)
	}
	if resp != nil && resp.Error() != nil {
		s.logger.Error("transport/influx: server rejected write",
			"hostname", batch.Device.Hostname, "error", resp.Error().Error())
		return fmt.Errorf("transport/influx: server: %w", resp.Error())
	}

	s.logger.Debug("transport/influx: wrote batch",
		"hostname", batch.Device.Hostname, "points", len(points))
	return nil
}

// Close releases the sink. The HTTP client holds no persistent connection
// state worth tearing down, so this is a no-op kept for Transport symmetry.
func (s *Sink) Close() error { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
