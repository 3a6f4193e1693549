package model

import "time"

// EventRecord is one asynchronous daemon event as stored by the event
// database.
type EventRecord struct {
	// ID is the database row ID.
	ID int64

	// Name is the upper-cased event name, e.g. "BW" or "CIRC".
	Name string

	// Args is the raw argument text after the event name.
	Args string

	// ReceivedAt is when torctl received the event.
	ReceivedAt time.Time
}
