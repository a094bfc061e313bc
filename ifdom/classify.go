// Package ifdom implements the core of the Interface DOM Collector: the
// threshold classifier, the interface eligibility policy, the vendor flag
// translation table, and the generic per-device collection orchestration that
// binds a vendor adapter to the device transport.
//
// Pipeline position:
//
//	driver [transport] → vendors/* [adapter] → ifdom [classify/gate] →
//	format/json → transport/*
package ifdom

import "github.com/vpbank/ifdom_collector/models"

// ─────────────────────────────────────────────────────────────────────────────
// Threshold classification
// ─────────────────────────────────────────────────────────────────────────────

// ThresholdSet holds the four vendor-supplied bounds for one measurement
// kind: LowAlarm ≤ LowWarn ≤ (nominal range) ≤ HighWarn ≤ HighAlarm.
// Thresholds are re-read from the device every cycle and never cached.
type ThresholdSet struct {
	LowAlarm  float64
	LowWarn   float64
	HighWarn  float64
	HighAlarm float64
}

// Classify maps a measurement onto the ordinal status scale. The alarm bounds
// are checked first so the most severe classification wins, and every
// comparison is inclusive: a value exactly equal to a bound is classified at
// that bound's severity.
//
// The function is total over real inputs. Guarding against missing or NaN
// threshold data is the caller's responsibility; adapters only invoke
// Classify for measurements whose threshold set was actually reported.
func Classify(value float64, t ThresholdSet) models.Status {
	if value <= t.LowAlarm || value >= t.HighAlarm {
		return models.StatusAlert
	}
	if value <= t.LowWarn || value >= t.HighWarn {
		return models.StatusWarn
	}
	return models.StatusOK
}
