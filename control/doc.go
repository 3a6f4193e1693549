// Package control implements a client for the Tor control protocol.
//
// The package speaks the line-oriented text protocol that a running Tor
// daemon exposes on its control port, as defined in control-spec. A
// Conn wraps a duplex byte stream and multiplexes synchronous
// request/reply exchanges with asynchronous events over it: a single
// background reader parses every reply, delivers responses to waiting
// callers in FIFO order, and routes 6xx event replies to registered
// listeners.
//
// Typical usage:
//
//	conn, err := control.Dial("127.0.0.1:9051")
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	if err := conn.Authenticate(ctx, cookie); err != nil {
//		return err
//	}
//	version, err := conn.GetInfoValue(ctx, "version")
//
// The protocol requires the daemon to answer synchronous commands in
// the order they were received, so replies carry no tags. The Conn
// preserves that invariant by enqueuing each caller's waiter inside the
// same critical section that writes the command bytes.
//
// The package does not spawn or supervise a Tor process; it only talks
// to one that is already running.
package control
