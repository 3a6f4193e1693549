package socks

import (
	"context"
	"io"
	"net"
	"testing"
)

// fakeSocksServer accepts one connection and answers the probe
// handshake with the given auth and connect responses. Empty slices
// mean "hang up instead of answering".
func fakeSocksServer(t *testing.T, authResp, connectResp []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Version negotiation request: version, nmethods, methods.
		buf := make([]byte, 3)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		if len(authResp) == 0 {
			return
		}
		if _, err := conn.Write(authResp); err != nil {
			return
		}

		// CONNECT request: header + domain + port.
		header := make([]byte, 5)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		rest := make([]byte, int(header[4])+2)
		if _, err := io.ReadFull(conn, rest); err != nil {
			return
		}
		if len(connectResp) == 0 {
			return
		}
		_, _ = conn.Write(connectResp)
	}()

	return ln.Addr().String()
}

func TestProbe(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		authResp    []byte
		connectResp []byte
		want        Status
	}{
		{
			name:     "working proxy answering host unreachable",
			authResp: []byte{socks5Version, socks5AuthNone},
			// Tor answers a bogus .onion with host unreachable; the
			// probe only cares that the request was processed.
			connectResp: []byte{socks5Version, 0x04, 0x00, 0x01},
			want:        StatusOK,
		},
		{
			name:        "working proxy answering success",
			authResp:    []byte{socks5Version, socks5AuthNone},
			connectResp: []byte{socks5Version, 0x00, 0x00, 0x01},
			want:        StatusOK,
		},
		{
			name:     "wrong protocol version",
			authResp: []byte{0x04, socks5AuthNone},
			want:     StatusWrongType,
		},
		{
			name:     "authentication required",
			authResp: []byte{socks5Version, socks5AuthNoAccept},
			want:     StatusWrongType,
		},
		{
			name:     "hangs up during negotiation",
			authResp: nil,
			want:     StatusWrongType,
		},
		{
			name:        "hangs up after negotiation",
			authResp:    []byte{socks5Version, socks5AuthNone},
			connectResp: nil,
			want:        StatusWrongType,
		},
		{
			name:        "garbage connect reply",
			authResp:    []byte{socks5Version, socks5AuthNone},
			connectResp: []byte{0x42, 0x00, 0x00, 0x00},
			want:        StatusWrongType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			addr := fakeSocksServer(t, tc.authResp, tc.connectResp)
			if got := Probe(context.Background(), addr); got != tc.want {
				t.Errorf("Probe() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProbeCannotConnect(t *testing.T) {
	t.Parallel()

	// Grab a port and close it again so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if got := Probe(context.Background(), addr); got != StatusCannotConnect {
		t.Errorf("Probe() = %v, want %v", got, StatusCannotConnect)
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status Status
		want   string
	}{
		{StatusOK, "OK"},
		{StatusWrongType, "wrong type (not a SOCKS5 proxy)"},
		{StatusCannotConnect, "cannot connect"},
		{StatusTimeout, "timeout"},
		{Status(99), "unknown"},
	}
	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}
