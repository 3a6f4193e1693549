// Package onion derives and validates version 3 onion service
// addresses.
//
// A v3 address encodes the service's ed25519 public key together with
// a SHA3-256 checksum and a version byte, per the Tor rendezvous
// specification. The package exists so that controller code can
// cross-check the ServiceID a daemon hands back from ADD_ONION against
// the key material it claims to belong to, and reject mistyped
// addresses before sending them anywhere.
package onion
