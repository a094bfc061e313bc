package ifdom

import (
	"time"

	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Measurement kinds
// ─────────────────────────────────────────────────────────────────────────────

// Measurement identifies one of the four DOM measurement kinds.
type Measurement int

const (
	Temperature Measurement = iota
	Voltage
	TxPower
	RxPower
)

// measurementOrder fixes the expansion order of a reading into metrics.
// Consumers treat the output as unordered; a stable order just keeps the
// debug dump and the tests deterministic.
var measurementOrder = []Measurement{Temperature, Voltage, TxPower, RxPower}

// metricKind maps each measurement to its value and status metric names.
var metricKind = map[Measurement]struct{ value, status string }{
	Temperature: {models.MetricTemp, models.MetricTempStatus},
	Voltage:     {models.MetricVoltage, models.MetricVoltageStatus},
	TxPower:     {models.MetricTxPower, models.MetricTxPowerStatus},
	RxPower:     {models.MetricRxPower, models.MetricRxPowerStatus},
}

// ─────────────────────────────────────────────────────────────────────────────
// Reading — one interface's normalized DOM record
// ─────────────────────────────────────────────────────────────────────────────

// Reading is the normalized per-interface record produced by a vendor
// adapter. It exists only for the duration of one poll cycle: constructed
// fresh from raw adapter output, expanded into metrics, then discarded.
//
// Exactly one of Thresholds or Statuses is populated per measurement,
// depending on whether the dialect reports raw bounds or pre-computed vendor
// flags. A measurement may carry neither (the device omitted its threshold
// data); in that case only the value metric is emitted.
type Reading struct {
	// IfName is the canonical interface name (the Tags.IfName value).
	IfName string

	// Tags are shared by every metric derived from this reading.
	Tags models.Tags

	// Values holds the measurements the device actually reported.
	Values map[Measurement]float64

	// Thresholds holds raw bounds for dialects that report them.
	Thresholds map[Measurement]ThresholdSet

	// Statuses holds pre-translated vendor flag classifications for dialects
	// that report flags instead of bounds.
	Statuses map[Measurement]models.Status
}

// Metrics expands the reading into its value and status metrics, all stamped
// with the shared cycle timestamp.
//
// Status derivation per measurement, in precedence order:
//   - an adapter-supplied Status is used as-is (flag dialects),
//   - otherwise a reported ThresholdSet is run through Classify,
//   - otherwise the status metric is skipped and only the value is emitted.
func (r Reading) Metrics(ts time.Time) []models.Metric {
	out := make([]models.Metric, 0, 2*len(r.Values))

	for _, m := range measurementOrder {
		value, ok := r.Values[m]
		if !ok {
			continue
		}
		out = append(out, models.NewMeasurement(metricKind[m].value, value, r.Tags, ts))
	}

	for _, m := range measurementOrder {
		value, ok := r.Values[m]
		if !ok {
			continue
		}
		if status, ok := r.Statuses[m]; ok {
			out = append(out, models.NewStatus(metricKind[m].status, status, r.Tags, ts))
			continue
		}
		if t, ok := r.Thresholds[m]; ok {
			out = append(out, models.NewStatus(metricKind[m].status, Classify(value, t), r.Tags, ts))
		}
	}

	return out
}
