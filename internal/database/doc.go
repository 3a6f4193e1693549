// Package database stores daemon events in SQLite.
//
// The listen command can record every event it receives so that a
// monitoring session survives scrollback and can be queried later.
// Each recording directory holds one database file, and later
// recordings into the same directory append to it; the schema is a
// single append-only events table.
package database
