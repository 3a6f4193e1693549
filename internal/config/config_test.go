package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewHasDefaults(t *testing.T) {
	t.Parallel()

	c := New()
	if c.ControlAddress != DefaultControlAddress {
		t.Errorf("ControlAddress = %q, want %q", c.ControlAddress, DefaultControlAddress)
	}
	if c.SocksAddress != DefaultSocksAddress {
		t.Errorf("SocksAddress = %q, want %q", c.SocksAddress, DefaultSocksAddress)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	content := `control_address: "127.0.0.1:9151"
cookie_file: "/tmp/cookie"
timeout: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if f.ControlAddress != "127.0.0.1:9151" {
		t.Errorf("ControlAddress = %q", f.ControlAddress)
	}
	if f.CookieFile != "/tmp/cookie" {
		t.Errorf("CookieFile = %q", f.CookieFile)
	}
	if f.Timeout != 5 {
		t.Errorf("Timeout = %d", f.Timeout)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigFileRejectsBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte("control_address: [not a scalar\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("LoadConfigFile() = nil error, want YAML parse error")
	}
}

func TestApplyOverlaysOnlySetFields(t *testing.T) {
	t.Parallel()

	c := New()
	c.Apply(&File{ControlAddress: "127.0.0.1:9151", Timeout: 5})

	if c.ControlAddress != "127.0.0.1:9151" {
		t.Errorf("ControlAddress = %q", c.ControlAddress)
	}
	if c.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.Timeout)
	}
	// Fields absent from the file keep their defaults.
	if c.SocksAddress != DefaultSocksAddress {
		t.Errorf("SocksAddress = %q, want default", c.SocksAddress)
	}

	// A nil file is a no-op.
	before := c
	c.Apply(nil)
	if c != before {
		t.Error("Apply(nil) modified the config")
	}
}

func TestFindConfigFileExplicitPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yml")
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(path); got != path {
		t.Errorf("FindConfigFile(%q) = %q", path, got)
	}
	if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yml")); got != "" {
		t.Errorf("FindConfigFile(missing) = %q, want empty", got)
	}
}
