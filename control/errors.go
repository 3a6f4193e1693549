package control

import (
	"errors"
	"fmt"
)

// Connection-level errors.
var (
	// ErrConnClosed is returned when the control connection has been
	// closed, either by Close or because the daemon hung up. Once the
	// reader observes the close, every subsequent command fails with
	// this error without touching the stream.
	ErrConnClosed = errors.New("control connection closed")

	// ErrNotAuthenticated is returned when a command that requires
	// authentication is issued before Authenticate succeeded. No bytes
	// are written to the wire in that case.
	ErrNotAuthenticated = errors.New("control connection not authenticated")
)

// Argument validation errors. These are raised by the command methods
// before anything is sent to the daemon.
var (
	// ErrUnknownEvent is returned by SetEvents when an event name is
	// not in the known event set.
	ErrUnknownEvent = errors.New("unknown event name")

	// ErrInvalidKeySpec is returned by AddOnion when the key spec does
	// not contain a ':' separating the key type from the key material.
	ErrInvalidKeySpec = errors.New("invalid onion key spec")

	// ErrNoOnionPorts is returned by AddOnion when no port mapping was
	// provided. The daemon requires at least one.
	ErrNoOnionPorts = errors.New("onion service needs at least one port mapping")
)

// SyntaxError reports a violation of the reply grammar: a line shorter
// than four characters, a non-digit status code, an unterminated data
// block, or a stream that ended in the middle of a reply. A SyntaxError
// is fatal for the connection; the reader latches it and every later
// command fails with it.
type SyntaxError struct {
	// Line is the offending input line, if one was read.
	Line string

	// Reason describes what was wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line == "" {
		return "control protocol syntax error: " + e.Reason
	}
	return fmt.Sprintf("control protocol syntax error: %s (line %q)", e.Reason, e.Line)
}

// ServerError reports a well-formed reply whose status code signals
// failure (4xx or 5xx). The connection remains usable after a
// ServerError; only the command that provoked it fails.
type ServerError struct {
	// Status is the 3-digit status code of the failing reply line.
	Status int

	// Message is the human-readable text the daemon sent after the
	// status code.
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("control server error %d: %s", e.Status, e.Message)
}

// Description returns the control-spec name for the status code, or
// "unrecognized status" when the code is not in the table.
func (e *ServerError) Description() string {
	if d, ok := statusDescriptions[e.Status]; ok {
		return d
	}
	return "unrecognized status"
}

// statusDescriptions maps reply status codes to the names used in
// control-spec section 4.
var statusDescriptions = map[int]string{
	250: "OK",
	251: "Operation was unnecessary",
	451: "Resource exhausted",
	500: "Syntax error: protocol",
	510: "Unrecognized command",
	511: "Unimplemented command",
	512: "Syntax error in command argument",
	513: "Unrecognized command argument",
	514: "Authentication required",
	515: "Bad authentication",
	550: "Unspecified Tor error",
	551: "Internal error",
	552: "Unrecognized entity",
	553: "Invalid configuration value",
	554: "Invalid descriptor",
	555: "Unmanaged entity",
}
