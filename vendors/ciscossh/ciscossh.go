// Package ciscossh implements the Interface DOM adapters for Cisco devices
// reached over plain SSH: one for NX-OS and one for IOS. The two dialects
// share a shape — a "show interface(s) status" table and a
// "show interface(s) transceiver detail(s)" table — and differ in command
// spelling and interface naming.
//
// Turning raw CLI text into per-interface records is the job of existing
// table parsers owned by the device-driver layer; this package receives them
// as injected function values and only performs the join, the eligibility
// gating, and the flag translation.
package ciscossh

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/ifdom"
	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Parser collaborators
// ─────────────────────────────────────────────────────────────────────────────

// StatusEntry is one row of the interface status table, as produced by the
// driver-layer parser.
type StatusEntry struct {
	// Status is the combined state column: "connected", "notconnect",
	// "disabled", …
	Status string

	// Desc is the configured description column (may be empty).
	Desc string

	// Type is the media/transceiver type column.
	Type string
}

// DOMEntry is one row of the transceiver detail table. The flag fields carry
// the vendor's pre-computed DOM flags ("++", "+", "-", "--", or blank).
type DOMEntry struct {
	Temperature float64
	Voltage     float64
	TxPower     float64
	RxPower     float64

	TemperatureFlag string
	VoltageFlag     string
	TxPowerFlag     string
	RxPowerFlag     string
}

// Parsers bundles the two driver-layer text parsers an SSH adapter needs.
// Both return a map keyed by interface name as printed by the device.
type Parsers struct {
	Status      func(text string) map[string]StatusEntry
	Transceiver func(text string) map[string]DOMEntry
}

// ─────────────────────────────────────────────────────────────────────────────
// Adapter
// ─────────────────────────────────────────────────────────────────────────────

// Adapter extracts DOM readings from parsed Cisco CLI tables. Construct with
// NewNXOS or NewIOS.
type Adapter struct {
	dialect  string
	commands []string

	// normalizeNames rewrites the abbreviated "Eth1/1" names NX-OS prints in
	// the status table to the canonical "Ethernet1/1" form used by the
	// transceiver table, so the join between the two works.
	normalizeNames bool

	parsers Parsers
	logger  *slog.Logger
}

// NewNXOS constructs the NX-OS SSH adapter.
func NewNXOS(parsers Parsers, logger *slog.Logger) (*Adapter, error) {
	return newAdapter("nxos-ssh", []string{
		"show interface transceiver details",
		"show interface status",
	}, true, parsers, logger)
}

// NewIOS constructs the IOS SSH adapter.
func NewIOS(parsers Parsers, logger *slog.Logger) (*Adapter, error) {
	return newAdapter("ios-ssh", []string{
		"show interfaces transceiver detail",
		"show interfaces status",
	}, false, parsers, logger)
}

func newAdapter(dialect string, commands []string, normalize bool, parsers Parsers, logger *slog.Logger) (*Adapter, error) {
	if parsers.Status == nil || parsers.Transceiver == nil {
		return nil, fmt.Errorf("%s: both status and transceiver parsers are required", dialect)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Adapter{
		dialect:        dialect,
		commands:       commands,
		normalizeNames: normalize,
		parsers:        parsers,
		logger:         logger,
	}, nil
}

// Dialect implements ifdom.Adapter.
func (a *Adapter) Dialect() string { return a.dialect }

// Commands implements ifdom.Adapter.
func (a *Adapter) Commands() []string { return a.commands }

// Extract implements ifdom.Adapter.
//
// The reportable set is the intersection of the transceiver table (which
// lists only ports with optics installed) and the eligible rows of the
// status table. A port present in only one table is silently excluded; that
// is the expected steady state, not a fault.
func (a *Adapter) Extract(results []driver.Result, cfg models.CollectorConfig) ([]ifdom.Reading, error) {
	if len(results) < 2 {
		return nil, fmt.Errorf("%s: expected 2 command results, got %d", a.dialect, len(results))
	}

	domByName := a.parsers.Transceiver(string(results[0].Body))
	statusByName := a.parsers.Status(string(results[1].Body))

	if a.normalizeNames {
		statusByName = normalizeEthernetNames(statusByName)
	}

	var readings []ifdom.Reading
	for ifName, dom := range domByName {
		st, ok := statusByName[ifName]
		if !ok {
			continue
		}

		adminDown := st.Status == "disabled"
		linkUp := st.Status == "connected"
		if !ifdom.Eligible(adminDown, linkUp, cfg.IncludeLinkdown) {
			continue
		}

		readings = append(readings, a.reading(ifName, dom, st))
	}
	return readings, nil
}

func (a *Adapter) reading(ifName string, dom DOMEntry, st StatusEntry) ifdom.Reading {
	ifDesc := strings.TrimSpace(st.Desc)
	if ifDesc == "" {
		ifDesc = models.MissingDescription
	}

	r := ifdom.Reading{
		IfName: ifName,
		Tags: models.Tags{
			IfName: ifName,
			IfDesc: ifDesc,
			Media:  strings.TrimSpace(st.Type),
		},
		Values: map[ifdom.Measurement]float64{
			ifdom.Temperature: dom.Temperature,
			ifdom.Voltage:     dom.Voltage,
			ifdom.TxPower:     dom.TxPower,
			ifdom.RxPower:     dom.RxPower,
		},
		Statuses: make(map[ifdom.Measurement]models.Status),
	}

	flags := []struct {
		kind ifdom.Measurement
		flag string
	}{
		{ifdom.Temperature, dom.TemperatureFlag},
		{ifdom.Voltage, dom.VoltageFlag},
		{ifdom.TxPower, dom.TxPowerFlag},
		{ifdom.RxPower, dom.RxPowerFlag},
	}
	for _, f := range flags {
		status, ok := ifdom.FlagStatus(f.flag)
		if !ok {
			a.logger.Warn("unknown dom flag",
				"dialect", a.dialect, "if_name", ifName, "flag", f.flag)
			continue
		}
		r.Statuses[f.kind] = status
	}
	return r
}

// normalizeEthernetNames maps the abbreviated "Eth" prefix onto the full
// "Ethernet" spelling. Only Ethernet ports carry optics, so rows with any
// other prefix are dropped here.
func normalizeEthernetNames(in map[string]StatusEntry) map[string]StatusEntry {
	out := make(map[string]StatusEntry, len(in))
	for name, entry := range in {
		if !strings.HasPrefix(name, "Eth") {
			continue
		}
		if !strings.HasPrefix(name, "Ethernet") {
			name = "Ethernet" + strings.TrimPrefix(name, "Eth")
		}
		out[name] = entry
	}
	return out
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
