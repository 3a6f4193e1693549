// Package log provides logging helpers for torctl.
//
// Control-port traffic routinely carries material that must never end
// up in a log file: authentication cookies, hashed-password secrets,
// and the private keys the daemon returns from ADD_ONION. The package
// wraps any slog.Handler in a SecureHandler that masks such values
// before they reach the underlying handler, so call sites can log
// wire lines and reply fields without case-by-case scrubbing.
package log
