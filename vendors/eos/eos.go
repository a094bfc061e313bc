// Package eos implements the Interface DOM adapter for Arista EOS devices
// reached over the eAPI. The eAPI returns structured JSON: both commands
// yield a dictionary keyed by interface name.
package eos

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/ifdom"
	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// eAPI payload shapes
// ─────────────────────────────────────────────────────────────────────────────

// transceiverDetail is "show interfaces transceiver detail". Interfaces
// without an installed transceiver appear with an empty entry; secondary
// lanes of breakout optics appear as extra entries that echo the primary
// lane's data.
type transceiverDetail struct {
	Interfaces map[string]transceiverEntry `json:"interfaces"`
}

type transceiverEntry struct {
	MediaType   string   `json:"mediaType"`
	TxPower     *float64 `json:"txPower"`
	RxPower     *float64 `json:"rxPower"`
	Temperature *float64 `json:"temperature"`
	Voltage     *float64 `json:"voltage"`

	// Details holds the vendor threshold bounds per measurement field name.
	Details map[string]thresholdEntry `json:"details"`
}

type thresholdEntry struct {
	LowAlarm  float64 `json:"lowAlarm"`
	LowWarn   float64 `json:"lowWarn"`
	HighWarn  float64 `json:"highWarn"`
	HighAlarm float64 `json:"highAlarm"`
}

// interfaceDescriptions is "show interfaces description".
type interfaceDescriptions struct {
	InterfaceDescriptions map[string]descriptionEntry `json:"interfaceDescriptions"`
}

type descriptionEntry struct {
	// InterfaceStatus is "up", "down", or "adminDown".
	InterfaceStatus string `json:"interfaceStatus"`
	Description     string `json:"description"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Adapter
// ─────────────────────────────────────────────────────────────────────────────

// eAPI measurement field name → measurement kind.
var eapiMeasurements = map[ifdom.Measurement]string{
	ifdom.Temperature: "temperature",
	ifdom.Voltage:     "voltage",
	ifdom.TxPower:     "txPower",
	ifdom.RxPower:     "rxPower",
}

// Adapter extracts DOM readings from Arista eAPI output. EOS reports raw
// threshold bounds, so status metrics are derived through the classifier.
type Adapter struct {
	logger *slog.Logger
}

// New constructs the EOS adapter. Pass nil for a no-op logger.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Adapter{logger: logger}
}

// Dialect implements ifdom.Adapter.
func (a *Adapter) Dialect() string { return "eos" }

// Commands implements ifdom.Adapter.
func (a *Adapter) Commands() []string {
	return []string{
		"show interfaces transceiver detail",
		"show interfaces description",
	}
}

// Extract implements ifdom.Adapter.
//
// An interface produces a reading only when it appears in both command
// outputs: an optics entry missing from the description table is an unused
// transceiver lane whose data would duplicate the primary lane's.
func (a *Adapter) Extract(results []driver.Result, cfg models.CollectorConfig) ([]ifdom.Reading, error) {
	if len(results) < 2 {
		return nil, fmt.Errorf("eos: expected 2 command results, got %d", len(results))
	}

	var dom transceiverDetail
	if err := json.Unmarshal(results[0].Body, &dom); err != nil {
		return nil, fmt.Errorf("eos: decode transceiver detail: %w", err)
	}
	var descs interfaceDescriptions
	if err := json.Unmarshal(results[1].Body, &descs); err != nil {
		return nil, fmt.Errorf("eos: decode interface descriptions: %w", err)
	}

	var readings []ifdom.Reading
	for ifName, entry := range dom.Interfaces {
		if !hasOptics(entry) {
			continue
		}

		desc, ok := descs.InterfaceDescriptions[ifName]
		if !ok {
			// Unused transceiver lane.
			continue
		}

		adminDown := desc.InterfaceStatus == "adminDown"
		linkUp := desc.InterfaceStatus == "up"
		if !ifdom.Eligible(adminDown, linkUp, cfg.IncludeLinkdown) {
			continue
		}

		readings = append(readings, a.reading(ifName, entry, desc))
	}
	return readings, nil
}

func (a *Adapter) reading(ifName string, entry transceiverEntry, desc descriptionEntry) ifdom.Reading {
	ifDesc := strings.TrimSpace(desc.Description)
	if ifDesc == "" {
		ifDesc = models.MissingDescription
	}

	r := ifdom.Reading{
		IfName: ifName,
		Tags: models.Tags{
			IfName: ifName,
			IfDesc: ifDesc,
			Media:  entry.MediaType,
		},
		Values:     make(map[ifdom.Measurement]float64),
		Thresholds: make(map[ifdom.Measurement]ifdom.ThresholdSet),
	}

	for kind, field := range eapiMeasurements {
		value := measurementValue(entry, kind)
		if value == nil {
			continue
		}
		r.Values[kind] = *value

		t, ok := entry.Details[field]
		if !ok {
			// Threshold block absent for this field: emit the value metric
			// only, no status.
			a.logger.Debug("eos: no thresholds reported", "if_name", ifName, "field", field)
			continue
		}
		r.Thresholds[kind] = ifdom.ThresholdSet{
			LowAlarm:  t.LowAlarm,
			LowWarn:   t.LowWarn,
			HighWarn:  t.HighWarn,
			HighAlarm: t.HighAlarm,
		}
	}
	return r
}

func measurementValue(entry transceiverEntry, kind ifdom.Measurement) *float64 {
	switch kind {
	case ifdom.Temperature:
		return entry.Temperature
	case ifdom.Voltage:
		return entry.Voltage
	case ifdom.TxPower:
		return entry.TxPower
	case ifdom.RxPower:
		return entry.RxPower
	}
	return nil
}

// hasOptics reports whether the entry carries any actual transceiver data.
// Interfaces without optics installed come back as empty objects.
func hasOptics(entry transceiverEntry) bool {
	return entry.Temperature != nil || entry.Voltage != nil ||
		entry.TxPower != nil || entry.RxPower != nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
