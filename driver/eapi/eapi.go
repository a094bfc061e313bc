// Package eapi implements the driver.Runner contract over Arista eAPI, the
// JSON-RPC command endpoint exposed by EOS at /command-api.
package eapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vpbank/ifdom_collector/driver"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config holds the eAPI endpoint parameters for one device. Zero-valued
// optional fields fall back to the documented defaults.
type Config struct {
	// Host is the management IP or hostname of the device.
	Host string

	// Scheme is "https" (default) or "http".
	Scheme string

	// Port is the TCP port of the eAPI endpoint (default 443 for https,
	// 80 for http).
	Port int

	// Username and Password are the HTTP basic-auth credentials.
	Username string
	Password string

	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration

	// Insecure skips TLS certificate verification (https only).
	Insecure bool
}

// ─────────────────────────────────────────────────────────────────────────────
// Runner
// ─────────────────────────────────────────────────────────────────────────────

// Runner speaks eAPI JSON-RPC. One Runner serves one device; Execute may be
// called from multiple goroutines because the underlying http.Client is safe
// for concurrent use.
type Runner struct {
	url      string
	username string
	password string
	client   *http.Client
}

// New builds a Runner from the given configuration.
func New(cfg Config) (*Runner, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("eapi: host is required")
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("eapi: unsupported scheme %q", scheme)
	}

	port := cfg.Port
	if port == 0 {
		if scheme == "http" {
			port = 80
		} else {
			port = 443
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	transport := http.DefaultTransport
	if cfg.Insecure {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Runner{
		url:      fmt.Sprintf("%s://%s:%d/command-api", scheme, cfg.Host, port),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON-RPC wire format
// ─────────────────────────────────────────────────────────────────────────────

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      string    `json:"id"`
}

type rpcParams struct {
	Version int      `json:"version"`
	Cmds    []string `json:"cmds"`
	Format  string   `json:"format"`
}

type rpcResponse struct {
	Result []json.RawMessage `json:"result"`
	Error  *rpcError         `json:"error"`
}

type rpcError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    []json.RawMessage `json:"data"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Execution
// ─────────────────────────────────────────────────────────────────────────────

// Execute runs the commands in one eAPI call and returns one result per
// command. eAPI stops at the first failing command; results for commands the
// device never reached report OK false.
func (r *Runner) Execute(ctx context.Context, commands []string) ([]driver.Result, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "runCmds",
		Params:  rpcParams{Version: 1, Cmds: commands, Format: "json"},
		ID:      "ifdom_collector",
	})
	if err != nil {
		return nil, fmt.Errorf("eapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("eapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eapi: post %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eapi: %s returned status %d", r.url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eapi: read response: %w", err)
	}

	var rpc rpcResponse
	if err := json.Unmarshal(body, &rpc); err != nil {
		return nil, fmt.Errorf("eapi: decode response: %w", err)
	}

	if rpc.Error != nil {
		return errorResults(commands, rpc.Error), nil
	}
	if len(rpc.Result) != len(commands) {
		return nil, fmt.Errorf("eapi: got %d results for %d commands", len(rpc.Result), len(commands))
	}

	results := make([]driver.Result, len(commands))
	for i, cmd := range commands {
		results[i] = driver.Result{Command: cmd, OK: true, Body: rpc.Result[i]}
	}
	return results, nil
}

// errorResults maps a JSON-RPC error onto per-command results. The error data
// array holds one entry per attempted command; the last entry belongs to the
// command that failed, and anything beyond it was never executed.
func errorResults(commands []string, rpcErr *rpcError) []driver.Result {
	results := make([]driver.Result, len(commands))
	for i, cmd := range commands {
		switch {
		case i < len(rpcErr.Data)-1:
			results[i] = driver.Result{Command: cmd, OK: true, Body: rpcErr.Data[i]}
		case i == len(rpcErr.Data)-1:
			results[i] = driver.Result{Command: cmd, Err: rpcErr.Message}
		default:
			results[i] = driver.Result{Command: cmd, Err: "not executed"}
		}
	}
	return results
}
