package config

import (
	"github.com/vpbank/ifdom_collector/driver/snmp"
)

// knownDialects are the vendor output shapes the collector can decode.
var knownDialects = map[string]bool{
	"eos":       true,
	"nxapi":     true,
	"nxos-ssh":  true,
	"ios-ssh":   true,
	"entsensor": true,
}

// DeviceConfig is the fully-resolved configuration for a single monitored
// device. Optional fields that are zero-valued in the YAML are filled from
// the defaults block, then with hard-coded fallbacks, during resolution.
type DeviceConfig struct {
	// Hostname is the device key from the YAML devices map.
	Hostname string

	// IP is the management IP address of the device.
	IP string

	// Dialect selects the vendor output shape: "eos", "nxapi", "nxos-ssh",
	// "ios-ssh", or "entsensor".
	Dialect string

	// PollInterval is the polling interval in seconds (default 60).
	PollInterval int

	// IncludeLinkdown reports DOM telemetry for link-down (but admin-up)
	// interfaces when true.
	IncludeLinkdown bool

	// SNMP holds the transport parameters for the entsensor dialect. Target
	// is filled from IP during resolution.
	SNMP snmp.Config

	// API holds the HTTP management-API parameters for the eos dialect.
	API APIConfig
}

// APIConfig is the resolved HTTP management-API access for one device.
type APIConfig struct {
	Scheme   string // "https" (default) or "http"
	Port     uint16 // default 443 for https, 80 for http
	Username string
	Password string
	Timeout  int  // milliseconds, default 10000
	Insecure bool // skip TLS certificate verification
}

// Defaults is the merged defaults block applied to every device.
type Defaults struct {
	PollInterval    int
	IncludeLinkdown bool
	SNMP            rawSNMPEntry
	API             rawAPIEntry
}

// rawDeviceEntry is the intermediate YAML-decoded form of a single device.
// Pointer fields distinguish "unset" from an explicit zero so per-device
// overrides work.
type rawDeviceEntry struct {
	IP              string       `yaml:"ip"`
	Dialect         string       `yaml:"dialect"`
	PollInterval    int          `yaml:"poll_interval"`
	IncludeLinkdown *bool        `yaml:"include_linkdown"`
	SNMP            rawSNMPEntry `yaml:"snmp"`
	API             rawAPIEntry  `yaml:"api"`
}

// rawAPIEntry maps 1-to-1 with the api YAML block. Timeout is in
// milliseconds.
type rawAPIEntry struct {
	Scheme   string `yaml:"scheme"`
	Port     uint16 `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  int    `yaml:"timeout"`
	Insecure bool   `yaml:"insecure"`
}

// rawSNMPEntry maps 1-to-1 with the snmp YAML block. Timeout is in
// milliseconds.
type rawSNMPEntry struct {
	Port      uint16              `yaml:"port"`
	Version   string              `yaml:"version"`
	Community string              `yaml:"community"`
	Timeout   int                 `yaml:"timeout"`
	Retries   int                 `yaml:"retries"`
	V3        *snmp.V3Credentials `yaml:"v3"`
}
