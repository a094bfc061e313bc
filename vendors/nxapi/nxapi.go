// Package nxapi implements the Interface DOM adapter for Cisco NX-OS devices
// reached over the NXAPI. The NXAPI returns tree-structured XML: each command
// yields a TABLE_interface holding one ROW_interface per port.
//
// NX-OS reports pre-computed DOM flags rather than raw threshold bounds, so
// status metrics are derived through the flag translation table instead of
// the classifier.
package nxapi

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/ifdom"
	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// NXAPI payload shapes
// ─────────────────────────────────────────────────────────────────────────────

// transceiverTable is "show interface transceiver details".
type transceiverTable struct {
	Rows []transceiverRow `xml:"TABLE_interface>ROW_interface"`
}

type transceiverRow struct {
	Interface string `xml:"interface"`
	SFP       string `xml:"sfp"` // "present" when a transceiver is installed
	Type      string `xml:"type"`
	PartNum   string `xml:"partnum"`

	Temperature string `xml:"temperature"`
	Voltage     string `xml:"voltage"`
	TxPwr       string `xml:"tx_pwr"`
	RxPwr       string `xml:"rx_pwr"`

	TempFlag  string `xml:"temp_flag"`
	VoltFlag  string `xml:"volt_flag"`
	TxPwrFlag string `xml:"tx_pwr_flag"`
	RxPwrFlag string `xml:"rx_pwr_flag"`
}

// statusTable is "show interface status".
type statusTable struct {
	Rows []statusRow `xml:"TABLE_interface>ROW_interface"`
}

type statusRow struct {
	Interface string `xml:"interface"`

	// State is "connected", "notconnect", "disabled", …
	State string `xml:"state"`

	// Name carries the configured interface description.
	Name string `xml:"name"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Adapter
// ─────────────────────────────────────────────────────────────────────────────

// Adapter extracts DOM readings from NXAPI XML output.
type Adapter struct {
	logger *slog.Logger
}

// New constructs the NXAPI adapter. Pass nil for a no-op logger.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Adapter{logger: logger}
}

// Dialect implements ifdom.Adapter.
func (a *Adapter) Dialect() string { return "nxapi" }

// Commands implements ifdom.Adapter.
func (a *Adapter) Commands() []string {
	return []string{
		"show interface transceiver details",
		"show interface status",
	}
}

// Extract implements ifdom.Adapter.
//
// Only rows with sfp == "present" and a reported temperature are considered:
// the temperature guard excludes non-optical transceivers (DACs) that have no
// DOM instrumentation. Rows that never show up in the status table are
// dropped silently — the status table commonly omits some optic-bearing
// ports, which simply makes them unreportable this cycle.
func (a *Adapter) Extract(results []driver.Result, cfg models.CollectorConfig) ([]ifdom.Reading, error) {
	if len(results) < 2 {
		return nil, fmt.Errorf("nxapi: expected 2 command results, got %d", len(results))
	}

	var dom transceiverTable
	if err := xml.Unmarshal(results[0].Body, &dom); err != nil {
		return nil, fmt.Errorf("nxapi: decode transceiver details: %w", err)
	}
	var status statusTable
	if err := xml.Unmarshal(results[1].Body, &status); err != nil {
		return nil, fmt.Errorf("nxapi: decode interface status: %w", err)
	}

	statusByName := make(map[string]statusRow, len(status.Rows))
	for _, row := range status.Rows {
		statusByName[row.Interface] = row
	}

	var readings []ifdom.Reading
	for _, row := range dom.Rows {
		if row.SFP != "present" || strings.TrimSpace(row.Temperature) == "" {
			continue
		}

		st, ok := statusByName[row.Interface]
		if !ok {
			continue
		}

		adminDown := st.State == "disabled"
		linkUp := st.State == "connected"
		if !ifdom.Eligible(adminDown, linkUp, cfg.IncludeLinkdown) {
			continue
		}

		readings = append(readings, a.reading(row, st))
	}
	return readings, nil
}

// measurement fields of a transceiver row, paired with their flag fields.
type rowField struct {
	kind  ifdom.Measurement
	value string
	flag  string
}

func (row transceiverRow) fields() []rowField {
	return []rowField{
		{ifdom.Temperature, row.Temperature, row.TempFlag},
		{ifdom.Voltage, row.Voltage, row.VoltFlag},
		{ifdom.TxPower, row.TxPwr, row.TxPwrFlag},
		{ifdom.RxPower, row.RxPwr, row.RxPwrFlag},
	}
}

func (a *Adapter) reading(row transceiverRow, st statusRow) ifdom.Reading {
	ifDesc := strings.TrimSpace(st.Name)
	if ifDesc == "" {
		ifDesc = models.MissingDescription
	}

	// Media comes from the transceiver type, falling back to the part number
	// when the device leaves the type blank.
	media := strings.TrimSpace(row.Type)
	if media == "" {
		media = strings.TrimSpace(row.PartNum)
	}

	r := ifdom.Reading{
		IfName: row.Interface,
		Tags: models.Tags{
			IfName: row.Interface,
			IfDesc: ifDesc,
			Media:  media,
		},
		Values:   make(map[ifdom.Measurement]float64),
		Statuses: make(map[ifdom.Measurement]models.Status),
	}

	for _, f := range row.fields() {
		raw := strings.TrimSpace(f.value)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			a.logger.Debug("nxapi: unparsable measurement",
				"if_name", row.Interface, "value", raw, "error", err.Error())
			continue
		}
		r.Values[f.kind] = value

		status, ok := ifdom.FlagStatus(f.flag)
		if !ok {
			// Unknown flag spelling: emit the value metric only rather than
			// guess a severity.
			a.logger.Warn("nxapi: unknown dom flag", "if_name", row.Interface, "flag", f.flag)
			continue
		}
		r.Statuses[f.kind] = status
	}
	return r
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
