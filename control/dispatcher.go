package control

import (
	"log/slog"
	"strconv"
	"strings"
	"unsafe"
)

// EventHandler receives decoded callbacks for the event kinds this
// package knows how to decompose. Register one with SetEventHandler;
// events still have to be requested from the daemon with SetEvents.
//
// Callbacks run synchronously on the reader goroutine: a handler that
// blocks stalls all reply processing. Hand work off to another
// goroutine if it is not trivial.
type EventHandler interface {
	// CircuitStatus is invoked when a circuit's status changes. path is
	// empty for LAUNCHED circuits, which have no path yet.
	CircuitStatus(status, circID, path string)

	// StreamStatus is invoked when a stream's status changes. target is
	// the stream's destination as address:port.
	StreamStatus(status, streamID, target string)

	// ORConnStatus is invoked when the status of a connection to an
	// onion router changes.
	ORConnStatus(status, orName string)

	// BandwidthUsed is invoked roughly once per second with the bytes
	// read and written during the last period.
	BandwidthUsed(read, written int64)

	// NewDescriptors is invoked when the daemon learns about new onion
	// routers, with their server identifiers.
	NewDescriptors(ids []string)

	// Message is invoked for daemon log messages. severity is one of
	// DEBUG, INFO, NOTICE, WARN, or ERR.
	Message(severity, msg string)

	// Unrecognized is invoked for every event this package has no
	// decoder for, with the raw argument text.
	Unrecognized(eventType, msg string)
}

// RawEventListener receives every event before any decoding, as the
// upper-cased event name and the untouched argument text. Use it for
// event kinds the typed EventHandler does not cover, or to log traffic.
type RawEventListener interface {
	OnRawEvent(name, args string)
}

// RawEventFunc adapts a plain function to the RawEventListener
// interface.
type RawEventFunc func(name, args string)

// OnRawEvent implements RawEventListener.
func (f RawEventFunc) OnRawEvent(name, args string) { f(name, args) }

// SetEventHandler installs the typed event handler, replacing any
// previous one. Passing nil removes it. Events arriving with no
// handler and no raw listeners are discarded.
func (c *Conn) SetEventHandler(h EventHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// AddRawEventListener registers l to receive every event. Listeners
// are invoked in registration order.
func (c *Conn) AddRawEventListener(l RawEventListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// RemoveRawEventListener removes the first registration of l, matched
// by interface equality; RawEventFunc values are matched by the
// function value they hold. Removing a listener that was never added
// is a no-op.
func (c *Conn) RemoveRawEventListener(l RawEventListener) {
	c.mu.Lock()
	for i, reg := range c.listeners {
		if sameListener(reg, l) {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// sameListener reports whether a and b are the same registration.
// Func values cannot be compared with ==, so two RawEventFunc values
// match when they point at the same function value.
func sameListener(a, b RawEventListener) bool {
	fa, okA := a.(RawEventFunc)
	fb, okB := b.(RawEventFunc)
	if okA || okB {
		return okA && okB && *(*unsafe.Pointer)(unsafe.Pointer(&fa)) == *(*unsafe.Pointer)(unsafe.Pointer(&fb))
	}
	return a == b
}

// token returns element i of lst, or "" when the list is too short.
// Event argument lists from older daemons can be shorter than the
// positions the decoders read; missing slots decode as empty strings
// instead of failing.
func token(lst []string, i int) string {
	if i >= len(lst) {
		return ""
	}
	return lst[i]
}

// dispatchEvent fans one 6xx reply out to the raw listeners and the
// typed handler. Each line of the reply is a separate event. Panics in
// foreign listener code are recovered and logged so a broken listener
// cannot take the reader down with it.
func (c *Conn) dispatchEvent(reply Reply) {
	c.mu.Lock()
	handler := c.handler
	listeners := make([]RawEventListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	if handler == nil && len(listeners) == 0 {
		return
	}

	for _, line := range reply {
		name, args := splitEvent(line.Message)
		for _, l := range listeners {
			c.invoke(name, func() { l.OnRawEvent(name, args) })
		}
		if handler != nil {
			c.invoke(name, func() { c.decodeEvent(handler, name, args) })
		}
	}
}

// splitEvent splits an event line's message into the upper-cased event
// name and the argument text after the first space.
func splitEvent(msg string) (name, args string) {
	if idx := strings.IndexByte(msg, ' '); idx >= 0 {
		return strings.ToUpper(msg[:idx]), msg[idx+1:]
	}
	return strings.ToUpper(msg), ""
}

// invoke runs fn, containing any panic it raises.
func (c *Conn) invoke(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event listener panicked",
				slog.String("event", event), slog.Any("panic", r))
			c.tapLine("!! ", "listener panic on "+event)
		}
	}()
	fn()
}

// decodeEvent decomposes the argument text of the recognized event
// kinds and calls the matching typed callback.
//
// CIRC arguments arrive as "CircuitID CircStatus Path"; a LAUNCHED
// circuit has no path yet and decodes with an empty one. STREAM
// arguments arrive as "StreamID StreamStatus CircID Target"; the
// circuit ID is not part of the callback.
func (c *Conn) decodeEvent(h EventHandler, name, args string) {
	switch name {
	case EventCircuitStatus:
		lst := strings.Fields(args)
		status := token(lst, 1)
		path := ""
		if status != CircStatusLaunched && len(lst) >= 3 {
			path = lst[2]
		}
		h.CircuitStatus(status, token(lst, 0), path)
	case EventStreamStatus:
		lst := strings.Fields(args)
		h.StreamStatus(token(lst, 1), token(lst, 0), token(lst, 3))
	case EventORConnStatus:
		lst := strings.Fields(args)
		h.ORConnStatus(token(lst, 1), token(lst, 0))
	case EventBandwidthUsed:
		lst := strings.Fields(args)
		read, _ := strconv.ParseInt(token(lst, 0), 10, 64)
		written, _ := strconv.ParseInt(token(lst, 1), 10, 64)
		h.BandwidthUsed(read, written)
	case EventNewDesc:
		h.NewDescriptors(strings.Fields(args))
	case EventDebugMsg, EventInfoMsg, EventNoticeMsg, EventWarnMsg, EventErrMsg:
		h.Message(name, args)
	default:
		h.Unrecognized(name, args)
	}
}
