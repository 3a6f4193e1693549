package config

import "errors"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers treat it as fatal only when the path was given
// explicitly; the implicit lookup falls back to defaults.
var ErrConfigNotFound = errors.New("configuration file not found")
