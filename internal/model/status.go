package model

import (
	"strings"
	"time"
)

// StatusReport is a snapshot of a running daemon, assembled by the
// status command from GETINFO values and the SOCKS probe.
type StatusReport struct {
	// GatheredAt is when the snapshot was taken.
	GatheredAt time.Time

	// ControlAddress is the control port the snapshot came from.
	ControlAddress string

	// TorVersion is the daemon's version string.
	TorVersion string

	// Liveness is the daemon's view of network reachability, "up" or
	// "down".
	Liveness string

	// TrafficRead and TrafficWritten are the lifetime byte counters.
	TrafficRead    int64
	TrafficWritten int64

	// Circuits are the currently known circuits.
	Circuits []Circuit

	// SocksAddress and SocksStatus describe the SOCKS probe outcome.
	// SocksStatus is empty when the probe was skipped.
	SocksAddress string
	SocksStatus  string
}

// Circuit is one line of the daemon's circuit-status information.
type Circuit struct {
	ID     string
	Status string
	Path   string
}

// ParseCircuits decodes the value of GETINFO circuit-status: one
// circuit per line as "CircuitID CircStatus Path [flags...]". Lines
// with fewer than two fields are skipped; a missing path (LAUNCHED
// circuits) leaves it empty.
func ParseCircuits(raw string) []Circuit {
	var circuits []Circuit
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		c := Circuit{ID: fields[0], Status: fields[1]}
		// The path is the third field when present. Trailing fields
		// are KEY=VALUE pairs (BUILD_FLAGS, PURPOSE, ...); a path is
		// a comma list of $fingerprint[=nickname] entries, so it is
		// told apart by its leading '$'.
		if len(fields) > 2 && strings.HasPrefix(fields[2], "$") {
			c.Path = fields[2]
		}
		circuits = append(circuits, c)
	}
	return circuits
}
