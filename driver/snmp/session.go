// Package snmp provides the SNMP transport used by the entsensor dialect.
// It turns device configuration into connected gosnmp sessions.
package snmp

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config holds the SNMP session parameters for one device. Zero-valued
// optional fields fall back to the documented defaults.
type Config struct {
	// Target is the management IP or hostname of the device.
	Target string

	// Port is the UDP port for SNMP requests (default 161).
	Port uint16

	// Version is "2c" (default) or "3".
	Version string

	// Community is the community string (v2c only).
	Community string

	// Timeout is the per-request timeout (default 3s).
	Timeout time.Duration

	// Retries is the number of retry attempts on timeout (default 2).
	Retries int

	// V3 holds the SNMPv3 security parameters (v3 only).
	V3 *V3Credentials
}

// V3Credentials holds a single set of SNMPv3 security parameters.
type V3Credentials struct {
	Username string `yaml:"username"`

	// AuthenticationProtocol is one of: noauth, md5, sha, sha224, sha256,
	// sha384, sha512.
	AuthenticationProtocol   string `yaml:"authentication_protocol"`
	AuthenticationPassphrase string `yaml:"authentication_passphrase"`

	// PrivacyProtocol is one of: nopriv, des, aes, aes192, aes256, aes192c,
	// aes256c.
	PrivacyProtocol   string `yaml:"privacy_protocol"`
	PrivacyPassphrase string `yaml:"privacy_passphrase"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────────────────────────────────────

// Session is a connected SNMP session. It wraps gosnmp so that callers can
// close the session without reaching into the connection field.
type Session struct {
	*gosnmp.GoSNMP
}

// Close shuts the underlying UDP connection.
func (s *Session) Close() error {
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

// Connect creates and connects a session for the given configuration.
// The caller must Close the session when finished.
func Connect(cfg Config) (*Session, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("snmp: target is required")
	}

	g := &gosnmp.GoSNMP{
		Target:  cfg.Target,
		Port:    cfg.Port,
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
		MaxOids: 60,
	}
	if g.Port == 0 {
		g.Port = 161
	}
	if g.Timeout == 0 {
		g.Timeout = 3 * time.Second
	}
	if g.Retries == 0 {
		g.Retries = 2
	}

	switch cfg.Version {
	case "", "2c":
		g.Version = gosnmp.Version2c
		g.Community = cfg.Community
	case "3":
		g.Version = gosnmp.Version3
		g.SecurityModel = gosnmp.UserSecurityModel
		if cfg.V3 == nil {
			return nil, fmt.Errorf("snmp: v3 credentials are required for version 3")
		}
		g.MsgFlags = v3MsgFlags(*cfg.V3)
		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 cfg.V3.Username,
			AuthenticationProtocol:   mapAuthProto(cfg.V3.AuthenticationProtocol),
			AuthenticationPassphrase: cfg.V3.AuthenticationPassphrase,
			PrivacyProtocol:          mapPrivProto(cfg.V3.PrivacyProtocol),
			PrivacyPassphrase:        cfg.V3.PrivacyPassphrase,
		}
	default:
		return nil, fmt.Errorf("snmp: unsupported version %q", cfg.Version)
	}

	if err := g.Connect(); err != nil {
		return nil, fmt.Errorf("snmp: connect %s:%d: %w", cfg.Target, g.Port, err)
	}
	return &Session{GoSNMP: g}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SNMPv3 helpers
// ─────────────────────────────────────────────────────────────────────────────

func v3MsgFlags(cred V3Credentials) gosnmp.SnmpV3MsgFlags {
	hasAuth := cred.AuthenticationProtocol != "" &&
		!strings.EqualFold(cred.AuthenticationProtocol, "noauth")
	hasPriv := cred.PrivacyProtocol != "" &&
		!strings.EqualFold(cred.PrivacyProtocol, "nopriv")

	switch {
	case hasAuth && hasPriv:
		return gosnmp.AuthPriv
	case hasAuth:
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

func mapAuthProto(s string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToLower(s) {
	case "md5":
		return gosnmp.MD5
	case "sha":
		return gosnmp.SHA
	case "sha224":
		return gosnmp.SHA224
	case "sha256":
		return gosnmp.SHA256
	case "sha384":
		return gosnmp.SHA384
	case "sha512":
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

func mapPrivProto(s string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToLower(s) {
	case "des":
		return gosnmp.DES
	case "aes":
		return gosnmp.AES
	case "aes192":
		return gosnmp.AES192
	case "aes256":
		return gosnmp.AES256
	case "aes192c":
		return gosnmp.AES192C
	case "aes256c":
		return gosnmp.AES256C
	default:
		return gosnmp.NoPriv
	}
}
