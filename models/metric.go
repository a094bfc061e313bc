// Package models defines the core data structures shared across all layers of
// the Interface DOM Collector. These types represent the canonical
// vendor-neutral form of all collected telemetry; every other package depends
// on this package and nothing here depends on any other internal package.
package models

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status — ordinal health classification
// ─────────────────────────────────────────────────────────────────────────────

// Status is the ordinal health classification of a DOM measurement against
// its vendor thresholds. Encoded in status metrics as 0=OK, 1=WARN, 2=ALERT.
type Status int

const (
	StatusOK    Status = 0
	StatusWarn  Status = 1
	StatusAlert Status = 2
)

// String returns the conventional label for the status value.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusAlert:
		return "alert"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Canonical metric kinds
// ─────────────────────────────────────────────────────────────────────────────

// The eight metric kinds the collector can emit. The *Status kinds carry a
// Status value; the others carry a floating-point measurement.
const (
	MetricTxPower       = "ifdom_txpower"
	MetricRxPower       = "ifdom_rxpower"
	MetricTemp          = "ifdom_temp"
	MetricVoltage       = "ifdom_voltage"
	MetricTxPowerStatus = "ifdom_txpower_status"
	MetricRxPowerStatus = "ifdom_rxpower_status"
	MetricTempStatus    = "ifdom_temp_status"
	MetricVoltageStatus = "ifdom_voltage_status"
)

// MetricNames lists every metric kind, value kinds first.
func MetricNames() []string {
	return []string{
		MetricTxPower,
		MetricRxPower,
		MetricTemp,
		MetricVoltage,
		MetricTxPowerStatus,
		MetricRxPowerStatus,
		MetricTempStatus,
		MetricVoltageStatus,
	}
}

// MissingDescription is the placeholder written into the if_desc tag when the
// device reports no description for an interface. The tag is never empty.
const MissingDescription = "MISSING-DESCRIPTION"

// ─────────────────────────────────────────────────────────────────────────────
// Metric
// ─────────────────────────────────────────────────────────────────────────────

// Tags carries the dimension attributes shared by every metric emitted for a
// single interface within one poll cycle.
type Tags struct {
	// IfName is the canonical (full, not abbreviated) interface name.
	IfName string `json:"if_name"`

	// IfDesc is the configured interface description, or MissingDescription.
	IfDesc string `json:"if_desc"`

	// Media is the transceiver model/type string reported by the device.
	Media string `json:"media"`
}

// Metric is one classified observation. It is constructed once per poll cycle
// per interface per kind and never mutated afterwards; ownership transfers to
// the pipeline which ships it downstream.
//
// Measurement metrics carry the raw floating-point value. Status metrics
// carry float64(Status), always one of 0, 1, 2.
type Metric struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Tags      Tags      `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMeasurement builds a value metric.
func NewMeasurement(name string, value float64, tags Tags, ts time.Time) Metric {
	return Metric{Name: name, Value: value, Tags: tags, Timestamp: ts}
}

// NewStatus builds a status metric from an ordinal classification.
func NewStatus(name string, status Status, tags Tags, ts time.Time) Metric {
	return Metric{Name: name, Value: float64(status), Tags: tags, Timestamp: ts}
}

// String renders a one-line human-readable form, used by the debug dump.
func (m Metric) String() string {
	return fmt.Sprintf("%s\t%s\t%s\t%g", m.Tags.IfName, m.Name, m.Tags.Media, m.Value)
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch envelope
// ─────────────────────────────────────────────────────────────────────────────

// Device carries identifying information about the monitored network device.
type Device struct {
	Hostname string `json:"hostname"`
	IP       string `json:"ip_address"`

	// Dialect names the vendor output shape used to collect from this device:
	// "eos", "nxapi", "nxos-ssh", "ios-ssh", or "entsensor".
	Dialect string `json:"dialect"`
}

// BatchMetadata carries operational metadata about one collection cycle.
type BatchMetadata struct {
	CollectorID    string `json:"collector_id"`
	PollDurationMs int64  `json:"poll_duration_ms"`
	PollStatus     string `json:"poll_status"` // "success" | "empty"
}

// MetricBatch is the top-level payload produced per device per poll cycle.
// All metrics in a batch share the same collection timestamp.
type MetricBatch struct {
	Timestamp time.Time     `json:"timestamp"`
	Device    Device        `json:"device"`
	Metrics   []Metric      `json:"metrics"`
	Metadata  BatchMetadata `json:"metadata,omitempty"`
}
