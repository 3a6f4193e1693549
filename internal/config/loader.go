package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the dotfile name looked up in the current and
// home directories.
const DefaultConfigFile = ".torctl"

// File is the YAML shape of a torctl configuration file.
type File struct {
	// ControlAddress is the control port, "host:port" or a socket path.
	ControlAddress string `yaml:"control_address"`

	// Password is the HASHEDPASSWORD secret. Prefer cookie
	// authentication; a password in a config file is readable by
	// anything that can read the file.
	Password string `yaml:"password"`

	// CookieFile is the path of the control authentication cookie.
	CookieFile string `yaml:"cookie_file"`

	// SocksAddress is the SOCKS port for liveness probing.
	SocksAddress string `yaml:"socks_address"`

	// Timeout is the per-command timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// LoadConfigFile loads a configuration file from path. A missing file
// is reported as ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile locates the configuration file to use:
//  1. an explicitly given path, if it exists;
//  2. .torctl in the current directory;
//  3. .torctl in the home directory;
//  4. config.yml in the XDG config directory for torctl.
//
// It returns the empty string when nothing was found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(xdg.ConfigHome, AppName, "config.yml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
