package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/config"
)

// writeConfig writes content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collector.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fullConfig = `
collector_id: interface-dom-01
workers: 8
defaults:
  poll_interval: 120
  include_linkdown: false
  snmp:
    version: "2c"
    community: public
    timeout: 5000
devices:
  leaf01.example.com:
    ip: 192.0.2.1
    dialect: eos
  leaf02.example.com:
    ip: 192.0.2.2
    dialect: nxapi
    poll_interval: 30
    include_linkdown: true
  nx01.example.com:
    ip: 192.0.2.7
    dialect: entsensor
    snmp:
      community: secret
      retries: 5
`

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, fullConfig), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CollectorID != "interface-dom-01" {
		t.Errorf("CollectorID = %q", cfg.CollectorID)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if len(cfg.Devices) != 3 {
		t.Fatalf("Devices = %d, want 3", len(cfg.Devices))
	}

	leaf01 := cfg.Devices["leaf01.example.com"]
	if leaf01.Hostname != "leaf01.example.com" || leaf01.IP != "192.0.2.1" || leaf01.Dialect != "eos" {
		t.Errorf("leaf01 = %+v", leaf01)
	}
	if leaf01.PollInterval != 120 {
		t.Errorf("leaf01 poll_interval = %d, want default 120", leaf01.PollInterval)
	}
	if leaf01.IncludeLinkdown {
		t.Error("leaf01 include_linkdown should be false by default")
	}

	leaf02 := cfg.Devices["leaf02.example.com"]
	if leaf02.PollInterval != 30 {
		t.Errorf("leaf02 poll_interval = %d, want override 30", leaf02.PollInterval)
	}
	if !leaf02.IncludeLinkdown {
		t.Error("leaf02 include_linkdown override not applied")
	}
}

func TestLoad_SNMPMerge(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, fullConfig), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	nx := cfg.Devices["nx01.example.com"].SNMP
	if nx.Target != "192.0.2.7" {
		t.Errorf("Target = %q, want device IP", nx.Target)
	}
	if nx.Community != "secret" {
		t.Errorf("Community = %q, want device override", nx.Community)
	}
	if nx.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s from defaults", nx.Timeout)
	}
	if nx.Retries != 5 {
		t.Errorf("Retries = %d, want device override", nx.Retries)
	}
	if nx.Version != "2c" {
		t.Errorf("Version = %q", nx.Version)
	}
}

func TestLoad_APIMerge(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
defaults:
  api:
    username: svc-dom
    password: defaultpass
    timeout: 3000
devices:
  leaf01:
    ip: 192.0.2.1
    dialect: eos
    api:
      password: leafpass
      insecure: true
  leaf02:
    ip: 192.0.2.2
    dialect: nxapi
    api:
      scheme: http
`), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	leaf01 := cfg.Devices["leaf01"].API
	if leaf01.Username != "svc-dom" {
		t.Errorf("Username = %q, want inherited default", leaf01.Username)
	}
	if leaf01.Password != "leafpass" {
		t.Errorf("Password = %q, want device override", leaf01.Password)
	}
	if leaf01.Scheme != "https" || leaf01.Port != 443 {
		t.Errorf("scheme/port = %q/%d, want https/443 fallback", leaf01.Scheme, leaf01.Port)
	}
	if leaf01.Timeout != 3000 {
		t.Errorf("Timeout = %d, want 3000 from defaults", leaf01.Timeout)
	}
	if !leaf01.Insecure {
		t.Error("Insecure override not applied")
	}

	leaf02 := cfg.Devices["leaf02"].API
	if leaf02.Scheme != "http" || leaf02.Port != 80 {
		t.Errorf("scheme/port = %q/%d, want http/80", leaf02.Scheme, leaf02.Port)
	}
}

func TestLoad_APIBadScheme(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
devices:
  leaf01:
    ip: 192.0.2.1
    dialect: eos
    api:
      scheme: ftp
`), nil)
	if err == nil || !strings.Contains(err.Error(), `unsupported api scheme "ftp"`) {
		t.Errorf("expected scheme error, got %v", err)
	}
}

func TestLoad_Fallbacks(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
devices:
  sw1:
    ip: 10.0.0.1
    dialect: ios-ssh
`), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CollectorID != "interface-dom" {
		t.Errorf("CollectorID = %q, want fallback", cfg.CollectorID)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want fallback 4", cfg.Workers)
	}
	if got := cfg.Devices["sw1"].PollInterval; got != 60 {
		t.Errorf("poll_interval = %d, want fallback 60", got)
	}
}

func TestLoad_AccumulatesErrors(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
devices:
  bad1:
    dialect: eos
  bad2:
    ip: 10.0.0.2
    dialect: juniper
  nx1:
    ip: 10.0.0.3
    dialect: entsensor
`), nil)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	for _, want := range []string{
		`device "bad1": ip is required`,
		`device "bad2": unknown dialect "juniper"`,
		`device "nx1": snmp community is required`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q:\n%s", want, msg)
		}
	}
}

func TestLoad_EntsensorV3(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
devices:
  nx1:
    ip: 10.0.0.3
    dialect: entsensor
    snmp:
      version: "3"
      v3:
        username: monitor
        authentication_protocol: sha
        authentication_passphrase: authpass
        privacy_protocol: aes
        privacy_passphrase: privpass
`), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	v3 := cfg.Devices["nx1"].SNMP.V3
	if v3 == nil {
		t.Fatal("V3 credentials not parsed")
	}
	if v3.Username != "monitor" || v3.AuthenticationProtocol != "sha" {
		t.Errorf("V3 = %+v", v3)
	}
}

func TestLoad_EntsensorV3Missing(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
devices:
  nx1:
    ip: 10.0.0.3
    dialect: entsensor
    snmp:
      version: "3"
`), nil)
	if err == nil || !strings.Contains(err.Error(), "v3 credentials are required") {
		t.Errorf("expected v3 credential error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	if _, err := config.Load(writeConfig(t, "devices: [not a map"), nil); err == nil {
		t.Error("expected parse error")
	}
}
