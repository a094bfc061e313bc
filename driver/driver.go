// Package driver declares the device-transport contract consumed by the
// collection orchestration. The eapi subpackage implements it for Arista
// eAPI; SSH and NXAPI session implementations are injected by the embedding
// application. The entsensor dialect brings its own SNMP transport and does
// not use this package.
package driver

import "context"

// Result is the outcome of one device command.
type Result struct {
	// Command echoes the command string that produced this result.
	Command string

	// OK reports whether the device executed the command successfully.
	OK bool

	// Body is the raw payload: JSON for eAPI, XML for NXAPI, CLI text for
	// the SSH dialects. Meaningful only when OK is true.
	Body []byte

	// Err carries the device/transport error text when OK is false.
	Err string
}

// Runner executes a batch of commands against one device session and returns
// one Result per command, in command order. A returned error means the
// transport itself failed (connection refused, timeout, …); per-command
// failures are reported through Result.OK instead.
type Runner interface {
	Execute(ctx context.Context, commands []string) ([]Result, error)
}
