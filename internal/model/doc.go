// Package model defines the data structures shared by the torctl
// commands, the event database, and the report writers.
package model
