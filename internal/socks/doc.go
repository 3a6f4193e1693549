// Package socks verifies that a SOCKS5 endpoint is a live Tor proxy.
//
// The status command reports on a running daemon; knowing that the
// control port answers says nothing about whether the SOCKS side is
// actually usable. The probe performs a real SOCKS5 handshake and a
// CONNECT request toward a synthetic .onion address, which a fake or
// mis-typed proxy cannot satisfy by accident.
package socks
