package ciscossh_test

import (
	"bytes"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/ifdom"
	"github.com/vpbank/ifdom_collector/models"
	"github.com/vpbank/ifdom_collector/vendors/ciscossh"
)

// The fake parsers stand in for the driver-layer CLI table parsers. The
// status table uses NX-OS abbreviated names on purpose so the tests cover
// the Eth → Ethernet normalization before the join.
func nxosParsers() ciscossh.Parsers {
	return ciscossh.Parsers{
		Status: func(string) map[string]ciscossh.StatusEntry {
			return map[string]ciscossh.StatusEntry{
				"Eth1/1":  {Status: "connected", Desc: "leaf uplink", Type: "10Gbase-SR"},
				"Eth1/2":  {Status: "notconnect", Desc: "", Type: "10Gbase-LR"},
				"Eth1/3":  {Status: "disabled", Desc: "parked", Type: "10Gbase-LR"},
				"mgmt0":   {Status: "connected", Desc: "oob", Type: "1000base-T"},
				"Eth1/40": {Status: "connected", Desc: "no optic", Type: "10Gbase-SR"},
			}
		},
		Transceiver: func(string) map[string]ciscossh.DOMEntry {
			return map[string]ciscossh.DOMEntry{
				"Ethernet1/1": {
					Temperature: 33.5, Voltage: 3.29, TxPower: -2.3, RxPower: -3.1,
					RxPowerFlag: "", TxPowerFlag: "", TemperatureFlag: "", VoltageFlag: "",
				},
				"Ethernet1/2": {
					Temperature: 30.0, Voltage: 3.30, TxPower: -2.1, RxPower: -28.5,
					RxPowerFlag: "--", TxPowerFlag: "-", TemperatureFlag: "", VoltageFlag: "",
				},
				"Ethernet1/3": {
					Temperature: 29.0, Voltage: 3.31, TxPower: -2.0, RxPower: -3.0,
				},
				// In the optics table but missing from the status table.
				"Ethernet1/9": {
					Temperature: 31.0, Voltage: 3.30, TxPower: -2.4, RxPower: -3.3,
				},
			}
		},
	}
}

func sshResults() []driver.Result {
	return []driver.Result{
		{Command: "show interface transceiver details", OK: true, Body: []byte("raw transceiver text")},
		{Command: "show interface status", OK: true, Body: []byte("raw status text")},
	}
}

func names(readings []ifdom.Reading) []string {
	var out []string
	for _, r := range readings {
		out = append(out, r.IfName)
	}
	sort.Strings(out)
	return out
}

func byName(readings []ifdom.Reading, name string) (ifdom.Reading, bool) {
	for _, r := range readings {
		if r.IfName == name {
			return r, true
		}
	}
	return ifdom.Reading{}, false
}

func TestNewRequiresParsers(t *testing.T) {
	if _, err := ciscossh.NewNXOS(ciscossh.Parsers{}, nil); err == nil {
		t.Error("NewNXOS without parsers should fail")
	}
	if _, err := ciscossh.NewIOS(ciscossh.Parsers{Status: nxosParsers().Status}, nil); err == nil {
		t.Error("NewIOS without a transceiver parser should fail")
	}
}

func TestCommands(t *testing.T) {
	nx, err := ciscossh.NewNXOS(nxosParsers(), nil)
	if err != nil {
		t.Fatalf("NewNXOS: %v", err)
	}
	ios, err := ciscossh.NewIOS(nxosParsers(), nil)
	if err != nil {
		t.Fatalf("NewIOS: %v", err)
	}

	// NX-OS spells "interface", IOS spells "interfaces"; the optics command
	// comes first (it is the primary).
	if got := nx.Commands()[0]; got != "show interface transceiver details" {
		t.Errorf("nxos primary command = %q", got)
	}
	if got := ios.Commands()[0]; got != "show interfaces transceiver detail" {
		t.Errorf("ios primary command = %q", got)
	}
	if nx.Dialect() != "nxos-ssh" || ios.Dialect() != "ios-ssh" {
		t.Errorf("dialects = %q, %q", nx.Dialect(), ios.Dialect())
	}
}

func TestExtract_JoinAndNormalization(t *testing.T) {
	a, err := ciscossh.NewNXOS(nxosParsers(), nil)
	if err != nil {
		t.Fatalf("NewNXOS: %v", err)
	}

	readings, err := a.Extract(sshResults(), models.CollectorConfig{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Only Ethernet1/1 survives: 1/2 is link-down, 1/3 admin-down, 1/9 has
	// no status row, Eth1/40 has no optics row, mgmt0 is not Ethernet.
	if got, want := names(readings), []string{"Ethernet1/1"}; !cmp.Equal(got, want) {
		t.Fatalf("interfaces = %v, want %v", got, want)
	}

	r := readings[0]
	wantTags := models.Tags{IfName: "Ethernet1/1", IfDesc: "leaf uplink", Media: "10Gbase-SR"}
	if r.Tags != wantTags {
		t.Errorf("tags = %+v, want %+v", r.Tags, wantTags)
	}
	if got := r.Statuses[ifdom.RxPower]; got != models.StatusOK {
		t.Errorf("rx status = %v, want ok", got)
	}
}

func TestExtract_IncludeLinkdownAndFlags(t *testing.T) {
	a, err := ciscossh.NewNXOS(nxosParsers(), nil)
	if err != nil {
		t.Fatalf("NewNXOS: %v", err)
	}

	readings, err := a.Extract(sshResults(), models.CollectorConfig{IncludeLinkdown: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got, want := names(readings), []string{"Ethernet1/1", "Ethernet1/2"}; !cmp.Equal(got, want) {
		t.Fatalf("interfaces = %v, want %v", got, want)
	}

	r, _ := byName(readings, "Ethernet1/2")
	if r.Tags.IfDesc != models.MissingDescription {
		t.Errorf("if_desc = %q, want placeholder", r.Tags.IfDesc)
	}
	if got := r.Statuses[ifdom.RxPower]; got != models.StatusAlert {
		t.Errorf("rx status = %v, want alert (flag --)", got)
	}
	if got := r.Statuses[ifdom.TxPower]; got != models.StatusWarn {
		t.Errorf("tx status = %v, want warn (flag -)", got)
	}
	if got := r.Values[ifdom.RxPower]; got != -28.5 {
		t.Errorf("rx value = %v, want -28.5", got)
	}
}

func TestExtract_UnknownFlag(t *testing.T) {
	parsers := ciscossh.Parsers{
		Status: func(string) map[string]ciscossh.StatusEntry {
			return map[string]ciscossh.StatusEntry{
				"Eth1/1": {Status: "connected", Desc: "uplink", Type: "10Gbase-SR"},
			}
		},
		Transceiver: func(string) map[string]ciscossh.DOMEntry {
			return map[string]ciscossh.DOMEntry{
				"Ethernet1/1": {
					Temperature: 33.5, Voltage: 3.29, TxPower: -2.3, RxPower: -3.1,
					RxPowerFlag: "??",
				},
			}
		},
	}

	var logBuf bytes.Buffer
	a, err := ciscossh.NewNXOS(parsers, slog.New(slog.NewTextHandler(&logBuf, nil)))
	if err != nil {
		t.Fatalf("NewNXOS: %v", err)
	}
	readings, err := a.Extract(sshResults(), models.CollectorConfig{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	r, ok := byName(readings, "Ethernet1/1")
	if !ok {
		t.Fatal("Ethernet1/1 missing")
	}

	// The value still flows; only the status metric is withheld.
	if got := r.Values[ifdom.RxPower]; got != -3.1 {
		t.Errorf("rx value = %v, want -3.1", got)
	}
	if _, ok := r.Statuses[ifdom.RxPower]; ok {
		t.Error("rx status present for unrecognized flag")
	}

	logged := logBuf.String()
	if !strings.Contains(logged, "level=WARN") || !strings.Contains(logged, "unknown dom flag") {
		t.Errorf("expected unknown-flag warning, got log:\n%s", logged)
	}
}

// IOS status tables already print full interface names; no normalization
// must be applied.
func TestExtract_IOSFullNames(t *testing.T) {
	parsers := ciscossh.Parsers{
		Status: func(string) map[string]ciscossh.StatusEntry {
			return map[string]ciscossh.StatusEntry{
				"GigabitEthernet0/1": {Status: "connected", Desc: "access", Type: "1000BaseSX"},
			}
		},
		Transceiver: func(string) map[string]ciscossh.DOMEntry {
			return map[string]ciscossh.DOMEntry{
				"GigabitEthernet0/1": {Temperature: 36.1, Voltage: 3.27, TxPower: -4.9, RxPower: -5.5},
			}
		},
	}

	a, err := ciscossh.NewIOS(parsers, nil)
	if err != nil {
		t.Fatalf("NewIOS: %v", err)
	}
	readings, err := a.Extract(sshResults(), models.CollectorConfig{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got, want := names(readings), []string{"GigabitEthernet0/1"}; !cmp.Equal(got, want) {
		t.Errorf("interfaces = %v, want %v", got, want)
	}
}
