package entsensor_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gosnmp/gosnmp"

	"github.com/vpbank/ifdom_collector/models"
	"github.com/vpbank/ifdom_collector/vendors/entsensor"
)

// fakeSession serves canned walk results keyed by root OID.
type fakeSession struct {
	walks  map[string][]gosnmp.SnmpPDU
	err    error
	closed bool
}

func (s *fakeSession) BulkWalkAll(root string) ([]gosnmp.SnmpPDU, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.walks[root], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func str(oid string, v string) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.OctetString, Value: []byte(v)}
}

func num(oid string, v int) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Integer, Value: v}
}

// deviceSession models a switch with:
//   - Ethernet1/1: admin-up, link-up. Four DOM sensors (entIndex 101-104)
//     plus the transceiver entity (entIndex 100). rx power −3.1 dBm inside a
//     (−30,−25,−1,0) threshold band.
//   - Ethernet1/2: admin-down, one temperature sensor (entIndex 201).
//   - Ethernet1/3: link-down, no ifAlias, one temperature sensor (entIndex
//     301) whose value 80 °C is above the 75 °C high alarm.
func deviceSession() *fakeSession {
	const (
		ifName  = ".1.3.6.1.2.1.31.1.1.1.1"
		ifAlias = ".1.3.6.1.2.1.31.1.1.1.18"
		ifAdmin = ".1.3.6.1.2.1.2.2.1.7"
		ifOper  = ".1.3.6.1.2.1.2.2.1.8"

		entName  = ".1.3.6.1.2.1.47.1.1.1.1.7"
		entModel = ".1.3.6.1.2.1.47.1.1.1.1.13"

		sScale = ".1.3.6.1.4.1.9.9.91.1.1.1.1.2"
		sPrec  = ".1.3.6.1.4.1.9.9.91.1.1.1.1.3"
		sValue = ".1.3.6.1.4.1.9.9.91.1.1.1.1.4"

		tSev = ".1.3.6.1.4.1.9.9.91.1.2.1.1.2"
		tRel = ".1.3.6.1.4.1.9.9.91.1.2.1.1.3"
		tVal = ".1.3.6.1.4.1.9.9.91.1.2.1.1.4"
	)

	walks := map[string][]gosnmp.SnmpPDU{
		ifName: {
			str(ifName+".1", "Ethernet1/1"),
			str(ifName+".2", "Ethernet1/2"),
			str(ifName+".3", "Ethernet1/3"),
		},
		ifAlias: {
			str(ifAlias+".1", "core uplink"),
			str(ifAlias+".2", ""),
			str(ifAlias+".3", ""),
		},
		ifAdmin: {
			num(ifAdmin+".1", 1),
			num(ifAdmin+".2", 2),
			num(ifAdmin+".3", 1),
		},
		ifOper: {
			num(ifOper+".1", 1),
			num(ifOper+".2", 2),
			num(ifOper+".3", 2),
		},
		entName: {
			str(entName+".100", "Ethernet1/1 Transceiver"),
			str(entName+".101", "Ethernet1/1 Transceiver Temperature Sensor"),
			str(entName+".102", "Ethernet1/1 Transceiver Voltage Sensor"),
			str(entName+".103", "Ethernet1/1 Transceiver Transmit Power Sensor"),
			str(entName+".104", "Ethernet1/1 Transceiver Receive Power Sensor"),
			str(entName+".201", "Ethernet1/2 Transceiver Temperature Sensor"),
			str(entName+".301", "Ethernet1/3 Transceiver Temperature Sensor"),
			str(entName+".999", "Chassis Fan Module"),
		},
		entModel: {
			str(entModel+".100", "SFP-10G-SR"),
		},
		// Scales: temperature in units, voltage in millivolts, power sensors
		// in units with precision 1 (tenths of dBm).
		sScale: {
			num(sScale+".101", 9), num(sScale+".102", 8),
			num(sScale+".103", 9), num(sScale+".104", 9),
			num(sScale+".201", 9), num(sScale+".301", 9),
		},
		sPrec: {
			num(sPrec+".101", 0), num(sPrec+".102", 0),
			num(sPrec+".103", 1), num(sPrec+".104", 1),
			num(sPrec+".201", 0), num(sPrec+".301", 0),
		},
		sValue: {
			num(sValue+".101", 33),    // 33 °C
			num(sValue+".102", 3290),  // 3.29 V
			num(sValue+".103", -23),   // −2.3 dBm
			num(sValue+".104", -31),   // −3.1 dBm
			num(sValue+".201", 30),    // admin-down port
			num(sValue+".301", 80),    // 80 °C, above high alarm
		},
		// Thresholds for the rx power sensor (104): (−30, −25, −1, 0) dBm in
		// tenths, and for both temperature sensors (301 shares 101's band).
		tSev: {
			num(tSev+".104.1", 20), num(tSev+".104.2", 10),
			num(tSev+".104.3", 10), num(tSev+".104.4", 20),
			num(tSev+".101.1", 20), num(tSev+".101.2", 10),
			num(tSev+".101.3", 10), num(tSev+".101.4", 20),
			num(tSev+".301.1", 20), num(tSev+".301.2", 10),
			num(tSev+".301.3", 10), num(tSev+".301.4", 20),
		},
		tRel: {
			num(tRel+".104.1", 2), num(tRel+".104.2", 2),
			num(tRel+".104.3", 4), num(tRel+".104.4", 4),
			num(tRel+".101.1", 2), num(tRel+".101.2", 2),
			num(tRel+".101.3", 4), num(tRel+".101.4", 4),
			num(tRel+".301.1", 2), num(tRel+".301.2", 2),
			num(tRel+".301.3", 4), num(tRel+".301.4", 4),
		},
		tVal: {
			num(tVal+".104.1", -300), num(tVal+".104.2", -250),
			num(tVal+".104.3", -10), num(tVal+".104.4", 0),
			num(tVal+".101.1", -5), num(tVal+".101.2", 0),
			num(tVal+".101.3", 70), num(tVal+".101.4", 75),
			num(tVal+".301.1", -5), num(tVal+".301.2", 0),
			num(tVal+".301.3", 70), num(tVal+".301.4", 75),
		},
	}
	return &fakeSession{walks: walks}
}

var (
	testDevice = models.Device{Hostname: "nx01", IP: "192.0.2.7", Dialect: "entsensor"}
	testTime   = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
)

func collectorFor(sess *fakeSession) *entsensor.Collector {
	return entsensor.New(func(context.Context) (entsensor.Session, error) {
		return sess, nil
	}, nil)
}

func metricValues(ms []models.Metric, name string) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range ms {
		if m.Name == name {
			out[m.Tags.IfName] = m.Value
		}
	}
	return out
}

func TestCollect_DefaultConfig(t *testing.T) {
	sess := deviceSession()
	c := collectorFor(sess)

	got := c.Collect(context.Background(), testDevice, testTime, models.CollectorConfig{})
	if len(got) == 0 {
		t.Fatal("expected metrics")
	}
	if !sess.closed {
		t.Error("session should be closed after the cycle")
	}

	// Only Ethernet1/1 is eligible by default.
	ports := make(map[string]bool)
	for _, m := range got {
		ports[m.Tags.IfName] = true
	}
	if len(ports) != 1 || !ports["Ethernet1/1"] {
		t.Fatalf("ports = %v, want only Ethernet1/1", ports)
	}

	// Scaled measurements.
	want := map[string]float64{
		models.MetricTemp:    33,
		models.MetricVoltage: 3.29,
		models.MetricTxPower: -2.3,
		models.MetricRxPower: -3.1,
	}
	for name, wantValue := range want {
		values := metricValues(got, name)
		if v, ok := values["Ethernet1/1"]; !ok || v != wantValue {
			t.Errorf("%s = %v (present=%v), want %v", name, v, ok, wantValue)
		}
	}

	// rx −3.1 dBm is inside (−25, −1) → OK; temperature 33 °C inside → OK.
	statuses := metricValues(got, models.MetricRxPowerStatus)
	if v := statuses["Ethernet1/1"]; v != float64(models.StatusOK) {
		t.Errorf("rx status = %v, want ok", v)
	}

	// Sensors 103/102 have no threshold rows: value metric only.
	if vs := metricValues(got, models.MetricTxPowerStatus); len(vs) != 0 {
		t.Errorf("tx status metrics = %v, want none (no thresholds walked)", vs)
	}

	// Tags carry the transceiver model and the ifAlias description.
	for _, m := range got {
		if m.Tags.Media != "SFP-10G-SR" {
			t.Errorf("media = %q, want SFP-10G-SR", m.Tags.Media)
		}
		if m.Tags.IfDesc != "core uplink" {
			t.Errorf("if_desc = %q, want core uplink", m.Tags.IfDesc)
		}
	}
}

func TestCollect_IncludeLinkdown(t *testing.T) {
	c := collectorFor(deviceSession())

	got := c.Collect(context.Background(), testDevice, testTime, models.CollectorConfig{IncludeLinkdown: true})

	var ports []string
	seen := make(map[string]bool)
	for _, m := range got {
		if !seen[m.Tags.IfName] {
			seen[m.Tags.IfName] = true
			ports = append(ports, m.Tags.IfName)
		}
	}
	sort.Strings(ports)

	// Ethernet1/3 (link-down) joins; Ethernet1/2 (admin-down) never does.
	if want := []string{"Ethernet1/1", "Ethernet1/3"}; !cmp.Equal(ports, want) {
		t.Fatalf("ports = %v, want %v", ports, want)
	}

	// 80 °C is above the 75 °C high alarm.
	statuses := metricValues(got, models.MetricTempStatus)
	if v := statuses["Ethernet1/3"]; v != float64(models.StatusAlert) {
		t.Errorf("Ethernet1/3 temp status = %v, want alert", v)
	}

	// Empty ifAlias becomes the placeholder.
	for _, m := range got {
		if m.Tags.IfName == "Ethernet1/3" && m.Tags.IfDesc != models.MissingDescription {
			t.Errorf("Ethernet1/3 if_desc = %q, want placeholder", m.Tags.IfDesc)
		}
	}
}

func TestCollect_TransportErrorYieldsNoMetrics(t *testing.T) {
	c := entsensor.New(func(context.Context) (entsensor.Session, error) {
		return nil, errors.New("connection refused")
	}, nil)

	if got := c.Collect(context.Background(), testDevice, testTime, models.CollectorConfig{}); got != nil {
		t.Errorf("Collect = %v, want nil", got)
	}
}

func TestCollect_WalkErrorYieldsNoMetrics(t *testing.T) {
	sess := &fakeSession{err: errors.New("timeout")}
	c := collectorFor(sess)

	if got := c.Collect(context.Background(), testDevice, testTime, models.CollectorConfig{}); got != nil {
		t.Errorf("Collect = %v, want nil", got)
	}
	if !sess.closed {
		t.Error("session should be closed even on walk failure")
	}
}

func TestCollect_NoSensorsYieldsNoMetrics(t *testing.T) {
	sess := &fakeSession{walks: map[string][]gosnmp.SnmpPDU{}}
	c := collectorFor(sess)

	if got := c.Collect(context.Background(), testDevice, testTime, models.CollectorConfig{}); got != nil {
		t.Errorf("Collect = %v, want nil", got)
	}
}
