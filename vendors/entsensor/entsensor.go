// Package entsensor implements an Interface DOM collector for devices that
// expose transceiver telemetry through the Cisco entity-sensor SNMP tables
// (CISCO-ENTITY-SENSOR-MIB) rather than a CLI/API command. It reconstructs
// raw threshold bounds from the sensor threshold table, so status metrics go
// through the same classifier as the eAPI dialect.
//
// The sensor tables are correlated with IF-MIB for admin/oper state and the
// configured description, keyed by the physical entity names the device
// assigns ("Ethernet1/1 Transceiver Receive Power Sensor", …).
package entsensor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/vpbank/ifdom_collector/ifdom"
	"github.com/vpbank/ifdom_collector/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// OIDs
// ─────────────────────────────────────────────────────────────────────────────

const (
	oidIfName        = ".1.3.6.1.2.1.31.1.1.1.1"
	oidIfAlias       = ".1.3.6.1.2.1.31.1.1.1.18"
	oidIfAdminStatus = ".1.3.6.1.2.1.2.2.1.7"
	oidIfOperStatus  = ".1.3.6.1.2.1.2.2.1.8"

	oidEntPhysicalName      = ".1.3.6.1.2.1.47.1.1.1.1.7"
	oidEntPhysicalModelName = ".1.3.6.1.2.1.47.1.1.1.1.13"

	oidEntSensorScale     = ".1.3.6.1.4.1.9.9.91.1.1.1.1.2"
	oidEntSensorPrecision = ".1.3.6.1.4.1.9.9.91.1.1.1.1.3"
	oidEntSensorValue     = ".1.3.6.1.4.1.9.9.91.1.1.1.1.4"

	oidEntSensorThresholdSeverity = ".1.3.6.1.4.1.9.9.91.1.2.1.1.2"
	oidEntSensorThresholdRelation = ".1.3.6.1.4.1.9.9.91.1.2.1.1.3"
	oidEntSensorThresholdValue    = ".1.3.6.1.4.1.9.9.91.1.2.1.1.4"
)

// EntitySensorDataScale exponents (ENTITY-SENSOR-MIB).
var scaleFactor = map[int]float64{
	1: 1e-24, 2: 1e-21, 3: 1e-18, 4: 1e-15, 5: 1e-12, 6: 1e-9,
	7: 1e-6, 8: 1e-3, 9: 1, 10: 1e3, 11: 1e6, 12: 1e9,
	13: 1e12, 14: 1e15, 15: 1e18, 16: 1e21, 17: 1e24,
}

// entSensorThresholdSeverity values.
const (
	severityMinor    = 10
	severityMajor    = 20
	severityCritical = 30
)

// entSensorThresholdRelation values.
const (
	relationLessThan    = 1
	relationLessOrEqual = 2
	relationGreaterThan = 3
	relationGreaterOrEq = 4
)

// sensor-name suffix → measurement kind.
var sensorSuffix = map[string]ifdom.Measurement{
	" Transceiver Temperature Sensor":    ifdom.Temperature,
	" Transceiver Voltage Sensor":        ifdom.Voltage,
	" Transceiver Transmit Power Sensor": ifdom.TxPower,
	" Transceiver Receive Power Sensor":  ifdom.RxPower,
}

// ─────────────────────────────────────────────────────────────────────────────
// Collector
// ─────────────────────────────────────────────────────────────────────────────

// Session is the subset of the SNMP session used here; *snmp.Session from
// driver/snmp satisfies it, and tests inject a fake.
type Session interface {
	BulkWalkAll(rootOid string) ([]gosnmp.SnmpPDU, error)
	Close() error
}

// Collector polls one device's entity-sensor tables per cycle. Like the
// CLI/API dialects it holds no per-cycle state and converts transport
// failures into "no data this cycle".
type Collector struct {
	connect func(ctx context.Context) (Session, error)
	logger  *slog.Logger
}

// New constructs an entity-sensor collector. connect is invoked once per
// cycle; the session is closed before Collect returns. Pass nil for a no-op
// logger.
func New(connect func(ctx context.Context) (Session, error), logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Collector{connect: connect, logger: logger}
}

// Dialect names the vendor output shape.
func (c *Collector) Dialect() string { return "entsensor" }

// Collect runs one poll cycle and returns the classified metric batch.
func (c *Collector) Collect(ctx context.Context, device models.Device, ts time.Time, cfg models.CollectorConfig) []models.Metric {
	sess, err := c.connect(ctx)
	if err != nil {
		c.logger.Error("dom collection failed",
			"device", device.Hostname, "dialect", c.Dialect(), "error", err.Error())
		return nil
	}
	defer sess.Close()

	readings, err := c.extract(sess, cfg)
	if err != nil {
		c.logger.Error("dom collection failed",
			"device", device.Hostname, "dialect", c.Dialect(), "error", err.Error())
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
		"device", device.Hostname, "interfaces", len(readings), "metrics", len(metrics))
	return metrics
}

// ─────────────────────────────────────────────────────────────────────────────
// Extraction
// ─────────────────────────────────────────────────────────────────────────────

// perSensor carries one sensor's resolved position and scaling.
type perSensor struct {
	port  string
	kind  ifdom.Measurement
	scale float64
	prec  int
}

func (c *Collector) extract(sess Session, cfg models.CollectorConfig) ([]ifdom.Reading, error) {
	entNames, err := walkStrings(sess, oidEntPhysicalName)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk entPhysicalName: %w", err)
	}

	// Resolve each DOM sensor entity to (port, measurement kind) and find
	// the transceiver entities for the media tag.
	sensors := make(map[int]perSensor)
	xcvrModelByPort := make(map[string]int) // port → transceiver entIndex
	for idx, name := range entNames {
		if port, ok := strings.CutSuffix(name, " Transceiver"); ok {
			xcvrModelByPort[port] = idx
			continue
		}
		for suffix, kind := range sensorSuffix {
			if port, ok := strings.CutSuffix(name, suffix); ok {
				sensors[idx] = perSensor{port: port, kind: kind, scale: 1}
				break
			}
		}
	}
	if len(sensors) == 0 {
		return nil, nil
	}

	scales, err := walkInts(sess, oidEntSensorScale)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk entSensorScale: %w", err)
	}
	precisions, err := walkInts(sess, oidEntSensorPrecision)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk entSensorPrecision: %w", err)
	}
	values, err := walkInts(sess, oidEntSensorValue)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk entSensorValue: %w", err)
	}
	entModels, err := walkStrings(sess, oidEntPhysicalModelName)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk entPhysicalModelName: %w", err)
	}

	thresholds, err := c.walkThresholds(sess)
	if err != nil {
		return nil, err
	}

	ifState, err := c.walkInterfaces(sess)
	if err != nil {
		return nil, err
	}

	readings := make(map[string]*ifdom.Reading)
	for idx, s := range sensors {
		raw, ok := values[idx]
		if !ok {
			continue
		}
		if f, ok := scaleFactor[scales[idx]]; ok {
			s.scale = f
		}
		s.prec = precisions[idx]

		st, ok := ifState[s.port]
		if !ok {
			// Sensor for a port IF-MIB does not report; unreportable this
			// cycle.
			continue
		}
		if !ifdom.Eligible(st.adminDown, st.linkUp, cfg.IncludeLinkdown) {
			continue
		}

		r, ok := readings[s.port]
		if !ok {
			desc := st.desc
			if desc == "" {
				desc = models.MissingDescription
			}
			var media string
			if xcvrIdx, ok := xcvrModelByPort[s.port]; ok {
				media = strings.TrimSpace(entModels[xcvrIdx])
			}
			r = &ifdom.Reading{
				IfName:     s.port,
				Tags:       models.Tags{IfName: s.port, IfDesc: desc, Media: media},
				Values:     make(map[ifdom.Measurement]float64),
				Thresholds: make(map[ifdom.Measurement]ifdom.ThresholdSet),
			}
			readings[s.port] = r
		}

		r.Values[s.kind] = scaled(raw, s)
		if t, ok := buildThresholdSet(thresholds[idx], s); ok {
			r.Thresholds[s.kind] = t
		} else {
			c.logger.Debug("entsensor: incomplete threshold table",
				"port", s.port, "sensor", idx)
		}
	}

	out := make([]ifdom.Reading, 0, len(readings))
	for _, r := range readings {
		out = append(out, *r)
	}
	return out, nil
}

// ifaceState is the IF-MIB view of one port.
type ifaceState struct {
	adminDown bool
	linkUp    bool
	desc      string
}

func (c *Collector) walkInterfaces(sess Session) (map[string]ifaceState, error) {
	names, err := walkStrings(sess, oidIfName)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk ifName: %w", err)
	}
	aliases, err := walkStrings(sess, oidIfAlias)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk ifAlias: %w", err)
	}
	admin, err := walkInts(sess, oidIfAdminStatus)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk ifAdminStatus: %w", err)
	}
	oper, err := walkInts(sess, oidIfOperStatus)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk ifOperStatus: %w", err)
	}

	out := make(map[string]ifaceState, len(names))
	for idx, name := range names {
		out[name] = ifaceState{
			adminDown: admin[idx] == 2,
			linkUp:    oper[idx] == 1,
			desc:      strings.TrimSpace(aliases[idx]),
		}
	}
	return out, nil
}

// thresholdRow is one row of entSensorThresholdTable.
type thresholdRow struct {
	severity int
	relation int
	value    int
}

// walkThresholds returns the threshold rows grouped by sensor entIndex.
func (c *Collector) walkThresholds(sess Session) (map[int][]thresholdRow, error) {
	severities, err := walkPairs(sess, oidEntSensorThresholdSeverity)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk threshold severity: %w", err)
	}
	relations, err := walkPairs(sess, oidEntSensorThresholdRelation)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk threshold relation: %w", err)
	}
	values, err := walkPairs(sess, oidEntSensorThresholdValue)
	if err != nil {
		return nil, fmt.Errorf("entsensor: walk threshold value: %w", err)
	}

	out := make(map[int][]thresholdRow)
	for key, sev := range severities {
		rel, ok := relations[key]
		if !ok {
			continue
		}
		val, ok := values[key]
		if !ok {
			continue
		}
		out[key.sensor] = append(out[key.sensor], thresholdRow{severity: sev, relation: rel, value: val})
	}
	return out, nil
}

// buildThresholdSet assembles the four classifier bounds from the vendor's
// threshold rows. Minor severity supplies the warn bounds; major or critical
// supplies the alarm bounds. A sensor whose table does not cover all four
// bounds gets no threshold set, so only its value metric is emitted.
func buildThresholdSet(rows []thresholdRow, s perSensor) (ifdom.ThresholdSet, bool) {
	var t ifdom.ThresholdSet
	var haveLowAlarm, haveLowWarn, haveHighWarn, haveHighAlarm bool

	for _, row := range rows {
		low := row.relation == relationLessThan || row.relation == relationLessOrEqual
		high := row.relation == relationGreaterThan || row.relation == relationGreaterOrEq
		if !low && !high {
			continue
		}
		value := scaled(row.value, s)

		switch row.severity {
		case severityMinor:
			if low && !haveLowWarn {
				t.LowWarn = value
				haveLowWarn = true
			} else if high && !haveHighWarn {
				t.HighWarn = value
				haveHighWarn = true
			}
		case severityMajor, severityCritical:
			if low && !haveLowAlarm {
				t.LowAlarm = value
				haveLowAlarm = true
			} else if high && !haveHighAlarm {
				t.HighAlarm = value
				haveHighAlarm = true
			}
		}
	}

	return t, haveLowAlarm && haveLowWarn && haveHighWarn && haveHighAlarm
}

// scaled converts a raw entity-sensor integer into the measurement unit:
// raw / 10^precision, times the data-scale factor.
func scaled(raw int, s perSensor) float64 {
	v := float64(raw)
	if s.prec != 0 {
		v /= math.Pow10(s.prec)
	}
	if s.scale != 0 {
		v *= s.scale
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Walk helpers
// ─────────────────────────────────────────────────────────────────────────────

// walkStrings walks a column indexed by a single integer and returns
// index → string value.
func walkStrings(sess Session, root string) (map[int]string, error) {
	pdus, err := sess.BulkWalkAll(root)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(pdus))
	for _, pdu := range pdus {
		idx, err := lastIndex(pdu.Name)
		if err != nil {
			continue
		}
		out[idx] = pduString(pdu)
	}
	return out, nil
}

// walkInts walks a column indexed by a single integer and returns
// index → integer value.
func walkInts(sess Session, root string) (map[int]int, error) {
	pdus, err := sess.BulkWalkAll(root)
	if err != nil {
		return nil, err
	}
	out := make(map[int]int, len(pdus))
	for _, pdu := range pdus {
		idx, err := lastIndex(pdu.Name)
		if err != nil {
			continue
		}
		out[idx] = int(gosnmp.ToBigInt(pdu.Value).Int64())
	}
	return out, nil
}

// pairKey indexes the two-component threshold table rows.
type pairKey struct {
	sensor int // entPhysicalIndex
	row    int // entSensorThresholdIndex
}

// walkPairs walks a column indexed by (entPhysicalIndex, thresholdIndex).
func walkPairs(sess Session, root string) (map[pairKey]int, error) {
	pdus, err := sess.BulkWalkAll(root)
	if err != nil {
		return nil, err
	}
	out := make(map[pairKey]int, len(pdus))
	for _, pdu := range pdus {
		parts := strings.Split(strings.Trim(pdu.Name, "."), ".")
		if len(parts) < 2 {
			continue
		}
		sensor, err1 := strconv.Atoi(parts[len(parts)-2])
		row, err2 := strconv.Atoi(parts[len(parts)-1])
		if err1 != nil || err2 != nil {
			continue
		}
		out[pairKey{sensor: sensor, row: row}] = int(gosnmp.ToBigInt(pdu.Value).Int64())
	}
	return out, nil
}

func lastIndex(oid string) (int, error) {
	i := strings.LastIndex(oid, ".")
	if i < 0 {
		return 0, fmt.Errorf("entsensor: no index in OID %q", oid)
	}
	return strconv.Atoi(oid[i+1:])
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
