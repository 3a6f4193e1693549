package config

import "time"

// Default configuration values.
const (
	// DefaultControlAddress is the Tor daemon's default control port.
	// 127.0.0.1 avoids hostname resolution surprises on systems where
	// localhost resolves to IPv6 first.
	DefaultControlAddress = "127.0.0.1:9051"

	// DefaultSocksAddress is the daemon's default SOCKS port, probed
	// by the status command.
	DefaultSocksAddress = "127.0.0.1:9050"

	// DefaultTimeout bounds each individual control command. Control
	// replies are normally instant; commands that trigger network
	// activity (HSFETCH, RESOLVE) answer immediately and deliver
	// results as events, so a short timeout is safe.
	DefaultTimeout = 30 * time.Second

	// DefaultCookiePath is where most distributions place the control
	// authentication cookie. Used when the daemon's PROTOCOLINFO does
	// not name a cookie file and none was configured.
	DefaultCookiePath = "/run/tor/control.authcookie"

	// AppName is the application name used for XDG directory paths.
	AppName = "torctl"
)

// Config holds all settings for a torctl invocation. It is populated
// from defaults, then the configuration file, then flags, and passed
// down by value; nothing in the CLI mutates it after startup.
type Config struct {
	// ControlAddress is the control port to connect to, either a TCP
	// "host:port" or the path of a Unix socket.
	ControlAddress string

	// Password authenticates with the HASHEDPASSWORD method when
	// non-empty. It takes precedence over cookie authentication.
	Password string

	// CookieFile overrides the cookie path reported by the daemon for
	// COOKIE/SAFECOOKIE authentication.
	CookieFile string

	// SocksAddress is the SOCKS port probed by the status command.
	SocksAddress string

	// Timeout bounds each control command.
	Timeout time.Duration

	// Debug enables the wire trace on stderr.
	Debug bool

	// Verbose lowers the log level to debug.
	Verbose bool
}

// New returns a Config populated with the defaults.
func New() Config {
	return Config{
		ControlAddress: DefaultControlAddress,
		SocksAddress:   DefaultSocksAddress,
		Timeout:        DefaultTimeout,
	}
}

// Apply overlays the non-zero values of a loaded configuration file
// onto c.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if f.ControlAddress != "" {
		c.ControlAddress = f.ControlAddress
	}
	if f.Password != "" {
		c.Password = f.Password
	}
	if f.CookieFile != "" {
		c.CookieFile = f.CookieFile
	}
	if f.SocksAddress != "" {
		c.SocksAddress = f.SocksAddress
	}
	if f.Timeout > 0 {
		c.Timeout = time.Duration(f.Timeout) * time.Second
	}
}
