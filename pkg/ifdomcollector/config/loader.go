// Package config provides YAML configuration loading for the Interface DOM
// Collector.
//
// A single file describes the collector identity, the shared defaults, and
// the monitored device inventory:
//
//	collector_id: interface-dom-01
//	workers: 4
//	defaults:
//	  poll_interval: 60
//	  include_linkdown: false
//	  snmp:
//	    version: "2c"
//	    community: public
//	devices:
//	  leaf01.example.com:
//	    ip: 192.0.2.1
//	    dialect: eos
//	  nx01.example.com:
//	    ip: 192.0.2.7
//	    dialect: entsensor
//	    include_linkdown: true
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vpbank/ifdom_collector/driver/snmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// LoadedConfig
// ─────────────────────────────────────────────────────────────────────────────

// LoadedConfig is the fully parsed and resolved configuration.
type LoadedConfig struct {
	// CollectorID identifies this collector instance in batch metadata.
	CollectorID string

	// Workers is the size of the collection worker pool (default 4).
	Workers int

	// Defaults is the merged defaults block (already applied to Devices;
	// exposed for introspection).
	Defaults Defaults

	// Devices maps hostname → resolved DeviceConfig.
	Devices map[string]DeviceConfig
}

// rawFile is the top-level YAML schema.
type rawFile struct {
	CollectorID string                    `yaml:"collector_id"`
	Workers     int                       `yaml:"workers"`
	Defaults    rawDeviceEntry            `yaml:"defaults"`
	Devices     map[string]rawDeviceEntry `yaml:"devices"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────────────────

// Load reads the configuration file at path and returns a fully resolved
// LoadedConfig. Validation errors are accumulated and returned together so
// that operators see all problems at once.
func Load(path string, logger *slog.Logger) (*LoadedConfig, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	var raw rawFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(false) // be lenient — extra keys are fine
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg := &LoadedConfig{
		CollectorID: raw.CollectorID,
		Workers:     raw.Workers,
		Defaults: Defaults{
			PollInterval:    raw.Defaults.PollInterval,
			IncludeLinkdown: raw.Defaults.IncludeLinkdown != nil && *raw.Defaults.IncludeLinkdown,
			SNMP:            raw.Defaults.SNMP,
			API:             raw.Defaults.API,
		},
		Devices: make(map[string]DeviceConfig, len(raw.Devices)),
	}
	if cfg.CollectorID == "" {
		cfg.CollectorID = "interface-dom"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}

	var errs []string
	// Deterministic error ordering.
	hostnames := make([]string, 0, len(raw.Devices))
	for hostname := range raw.Devices {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	for _, hostname := range hostnames {
		dev, devErrs := resolveDevice(hostname, raw.Devices[hostname], cfg.Defaults)
		if len(devErrs) > 0 {
			errs = append(errs, devErrs...)
			continue
		}
		cfg.Devices[hostname] = dev
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %d error(s):\n  %s", len(errs), strings.Join(errs, "\n  "))
	}

	logger.Debug("config: loaded",
		"file", path, "collector_id", cfg.CollectorID, "devices", len(cfg.Devices))
	return cfg, nil
}

// resolveDevice merges a raw device entry with the defaults block, producing a
// fully-resolved DeviceConfig. All validation problems for the device are
// returned together.
func resolveDevice(hostname string, e rawDeviceEntry, d Defaults) (DeviceConfig, []string) {
	var errs []string

	if e.IP == "" {
		errs = append(errs, fmt.Sprintf("device %q: ip is required", hostname))
	}
	if e.Dialect == "" {
		errs = append(errs, fmt.Sprintf("device %q: dialect is required", hostname))
	} else if !knownDialects[e.Dialect] {
		errs = append(errs, fmt.Sprintf("device %q: unknown dialect %q", hostname, e.Dialect))
	}

	interval := e.PollInterval
	if interval == 0 {
		interval = d.PollInterval
	}
	if interval == 0 {
		interval = 60
	}
	if interval < 0 {
		errs = append(errs, fmt.Sprintf("device %q: poll_interval must be positive", hostname))
	}

	includeLinkdown := d.IncludeLinkdown
	if e.IncludeLinkdown != nil {
		includeLinkdown = *e.IncludeLinkdown
	}

	snmpCfg, snmpErrs := resolveSNMP(hostname, e, d)
	errs = append(errs, snmpErrs...)

	apiCfg, apiErrs := resolveAPI(hostname, e, d)
	errs = append(errs, apiErrs...)

	if len(errs) > 0 {
		return DeviceConfig{}, errs
	}
	return DeviceConfig{
		Hostname:        hostname,
		IP:              e.IP,
		Dialect:         e.Dialect,
		PollInterval:    interval,
		IncludeLinkdown: includeLinkdown,
		SNMP:            snmpCfg,
		API:             apiCfg,
	}, nil
}

// resolveAPI merges the device's api block over the defaults block.
func resolveAPI(hostname string, e rawDeviceEntry, d Defaults) (APIConfig, []string) {
	var errs []string

	merged := e.API
	if merged.Scheme == "" {
		merged.Scheme = d.API.Scheme
	}
	if merged.Port == 0 {
		merged.Port = d.API.Port
	}
	if merged.Username == "" {
		merged.Username = d.API.Username
	}
	if merged.Password == "" {
		merged.Password = d.API.Password
	}
	if merged.Timeout == 0 {
		merged.Timeout = d.API.Timeout
	}
	if !merged.Insecure {
		merged.Insecure = d.API.Insecure
	}

	if merged.Scheme == "" {
		merged.Scheme = "https"
	}
	switch merged.Scheme {
	case "http", "https":
	default:
		errs = append(errs, fmt.Sprintf("device %q: unsupported api scheme %q", hostname, merged.Scheme))
	}
	if merged.Port == 0 {
		if merged.Scheme == "http" {
			merged.Port = 80
		} else {
			merged.Port = 443
		}
	}
	if merged.Timeout == 0 {
		merged.Timeout = 10_000
	}

	return APIConfig{
		Scheme:   merged.Scheme,
		Port:     merged.Port,
		Username: merged.Username,
		Password: merged.Password,
		Timeout:  merged.Timeout,
		Insecure: merged.Insecure,
	}, errs
}

// resolveSNMP merges the device's snmp block over the defaults block and
// converts it into the driver's form. Only the entsensor dialect requires
// credentials; for the CLI/API dialects the block is carried through as-is.
func resolveSNMP(hostname string, e rawDeviceEntry, d Defaults) (snmp.Config, []string) {
	var errs []string

	merged := e.SNMP
	if merged.Port == 0 {
		merged.Port = d.SNMP.Port
	}
	if merged.Version == "" {
		merged.Version = d.SNMP.Version
	}
	if merged.Community == "" {
		merged.Community = d.SNMP.Community
	}
	if merged.Timeout == 0 {
		merged.Timeout = d.SNMP.Timeout
	}
	if merged.Retries == 0 {
		merged.Retries = d.SNMP.Retries
	}
	if merged.V3 == nil {
		merged.V3 = d.SNMP.V3
	}

	if merged.Version == "" {
		merged.Version = "2c"
	}
	switch merged.Version {
	case "2c", "3":
	default:
		errs = append(errs, fmt.Sprintf("device %q: unsupported snmp version %q", hostname, merged.Version))
	}

	if e.Dialect == "entsensor" {
		if merged.Version == "2c" && merged.Community == "" {
			errs = append(errs, fmt.Sprintf("device %q: snmp community is required for dialect entsensor", hostname))
		}
		if merged.Version == "3" && merged.V3 == nil {
			errs = append(errs, fmt.Sprintf("device %q: snmp v3 credentials are required for dialect entsensor", hostname))
		}
	}

	return snmp.Config{
		Target:    e.IP,
		Port:      merged.Port,
		Version:   merged.Version,
		Community: merged.Community,
		Timeout:   time.Duration(merged.Timeout) * time.Millisecond,
		Retries:   merged.Retries,
		V3:        merged.V3,
	}, errs
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
