// Package config holds the torctl CLI configuration.
//
// Settings come from three places, in descending priority: command
// line flags, a YAML configuration file, and built-in defaults. The
// configuration file is looked up as .torctl in the current directory,
// then in the user's home directory, then as config.yml in the XDG
// config directory for torctl.
package config
