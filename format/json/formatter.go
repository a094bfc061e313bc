// Package json implements the JSON output formatter for the Interface DOM
// Collector pipeline. It is the primary (and currently only) serialisation
// format.
//
// Pipeline position:
//
//	ifdom collectors → format/json → transport/file | transport/influx
//
// The formatter converts a models.MetricBatch into a JSON byte slice. All
// json struct tags are already declared on the model types themselves, so
// serialisation is a single json.Marshal call with optional indentation.
package json

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Formatter interface
// ─────────────────────────────────────────────────────────────────────────────

// Formatter serialises a models.MetricBatch into a byte slice.
// Alternative formatters (protobuf, line protocol, …) can be added by
// implementing this interface without touching any other package.
type Formatter interface {
	Format(batch *models.MetricBatch) ([]byte, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config controls JSONFormatter behaviour.
type Config struct {
	// PrettyPrint emits indented, human-readable JSON when true.
	// Use false (default) in production to minimise byte count on the wire.
	PrettyPrint bool

	// Indent is the indent string used when PrettyPrint=true.
	// Defaults to two spaces when empty and PrettyPrint=true.
	Indent string
}

// ─────────────────────────────────────────────────────────────────────────────
// JSONFormatter
// ─────────────────────────────────────────────────────────────────────────────

// JSONFormatter implements Formatter using encoding/json from the standard
// library. It is safe for concurrent use by multiple goroutines; all fields
// are immutable after construction.
type JSONFormatter struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs a JSONFormatter. If logger is nil, a no-op logger is
// substituted so the formatter never panics on a nil receiver.
func New(cfg Config, logger *slog.Logger) *JSONFormatter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.PrettyPrint && cfg.Indent == "" {
		cfg.Indent = "  "
	}
	return &JSONFormatter{cfg: cfg, logger: logger}
}

// Format serialises batch to JSON. It returns a non-nil error only when
// json.Marshal itself fails (e.g. an un-serialisable value entered the
// pipeline upstream). The returned byte slice is always non-nil on success.
//
//	{
//	  "timestamp": "2026-02-26T10:30:00.123Z",
//	  "device": { … },
//	  "metrics": [ { "name": …, "value": …, "tags": { … }, … } ],
//	  "metadata": { "collector_id": …, "poll_duration_ms": …, "poll_status": … }
//	}
func (f *JSONFormatter) Format(batch *models.MetricBatch) ([]byte, error) {
	if batch == nil {
		return nil, fmt.Errorf("format/json: batch must not be nil")
	}

	var (
		data []byte
		err  error
	)

	if f.cfg.PrettyPrint {
		data, err = json.MarshalIndent(batch, "", f.cfg.Indent)
	} else {
		data, err = json.Marshal(batch)
	}

	if err != nil {
		f.logger.Error("format/json: marshal failed",
			"collector_id", batch.Metadata.CollectorID,
			"hostname", batch.Device.Hostname,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("format/json: marshal: %w", err)
	}

	f.logger.Debug("format/json: formatted batch",
		"collector_id", batch.Metadata.CollectorID,
		"hostname", batch.Device.Hostname,
		"metric_count", len(batch.Metrics),
		"bytes", len(data),
	)

	return data, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

// noopWriter discards all log output when no logger is provided.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
