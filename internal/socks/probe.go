package socks

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// probeTimeout bounds the whole handshake. This is a local
// connectivity check, not a request through the Tor network.
const probeTimeout = 2 * time.Second

// SOCKS5 protocol constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
	socks5CmdConnect   = 0x01
	socks5AddrDomain   = 0x03
)

// probeOnion is a synthetic, non-existent v3-length address. The probe
// only needs the proxy to process the CONNECT request; the connection
// itself is expected to fail.
const probeOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"

// Status is the outcome of probing a SOCKS endpoint.
type Status int

const (
	// StatusOK means the endpoint is a working SOCKS5 proxy that
	// accepts unauthenticated connections and processes .onion
	// CONNECT requests.
	StatusOK Status = iota

	// StatusWrongType means something answered, but it does not speak
	// SOCKS5 the way Tor does.
	StatusWrongType

	// StatusCannotConnect means no TCP connection could be
	// established.
	StatusCannotConnect

	// StatusTimeout means the endpoint stopped responding mid
	// handshake.
	StatusTimeout
)

// String returns a human-readable description of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWrongType:
		return "wrong type (not a SOCKS5 proxy)"
	case StatusCannotConnect:
		return "cannot connect"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Probe checks whether addr hosts a live SOCKS5 proxy. It performs the
// version negotiation and a CONNECT request toward a synthetic .onion
// address; any well-formed SOCKS5 answer to the CONNECT, success or
// failure, counts as a working proxy.
func Probe(ctx context.Context, addr string) Status {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return StatusTimeout
		}
		return StatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(probeTimeout)); err != nil {
		return StatusCannotConnect
	}

	// Version negotiation: offer "no authentication" only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return StatusCannotConnect
	}
	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if isTimeout(err) {
			return StatusTimeout
		}
		return StatusWrongType
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		// Either not SOCKS5, or it demands authentication
		// (socks5AuthNoAccept); a Tor SOCKS port does neither.
		return StatusWrongType
	}

	// CONNECT toward the synthetic address.
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(probeOnion))}
	req = append(req, probeOnion...)
	req = append(req, 0x00, 0x50) // port 80
	if _, err := conn.Write(req); err != nil {
		return StatusCannotConnect
	}

	// Any well-formed reply header will do: Tor answers a nonexistent
	// .onion with "host unreachable" or "general failure", which still
	// proves it processed the request.
	resp := make([]byte, 4)
	if _, err := io.ReadFull(conn, resp); err != nil {
		if isTimeout(err) {
			return StatusTimeout
		}
		return StatusWrongType
	}
	if resp[0] != socks5Version {
		return StatusWrongType
	}
	return StatusOK
}

// isTimeout reports whether err was caused by a deadline expiring.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
