// Package main provides the entry point for the torctl CLI.
//
// torctl talks to a running Tor daemon over its control port: it
// queries and changes configuration, sends signals, watches events,
// and manages ephemeral onion services.
//
// Usage:
//
//	torctl get-info version
//	torctl listen CIRC BW
//	torctl onion add --port 80,127.0.0.1:8080
//
// See --help for all available options.
package main

// main is the entry point for torctl.
func main() {
	Execute()
}
