package socks

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"
)

// NewDialer returns a dialer that routes connections through the
// SOCKS5 proxy at addr. Tor's SOCKS port accepts unauthenticated
// connections, so no credentials are sent.
func NewDialer(addr string) (proxy.Dialer, error) {
	d, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
	}
	return d, nil
}

// DialContext dials address through the proxy at proxyAddr with
// context support. proxy.Dialer has no context-aware variant, so the
// dial runs in a goroutine; on cancellation the attempt may linger
// briefly, but its connection is closed as soon as it completes.
func DialContext(ctx context.Context, proxyAddr, network, address string) (net.Conn, error) {
	d, err := NewDialer(proxyAddr)
	if err != nil {
		return nil, err
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := d.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case r := <-resultCh:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-resultCh; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
