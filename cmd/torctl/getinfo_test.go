package main

import (
	"strings"
	"testing"
)

func TestRunGetInfoCmd(t *testing.T) {
	t.Parallel()

	d := startFakeDaemon(t, func(cmd string) []string {
		if cmd != "GETINFO version traffic/read" {
			t.Errorf("daemon read %q", cmd)
		}
		return []string{
			"250-version=Tor 0.4.7.13",
			"250-traffic/read=1024",
			"250 OK",
		}
	})

	out, err := runCommand(t, d, "get-info", "version", "traffic/read")
	if err != nil {
		t.Fatalf("get-info failed: %v", err)
	}
	for _, want := range []string{"version=Tor 0.4.7.13", "traffic/read=1024"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunGetInfoCmdMultiLineValue(t *testing.T) {
	t.Parallel()

	d := startFakeDaemon(t, func(cmd string) []string {
		return []string{
			"250+config-text=",
			"Nickname X",
			"ExitPolicy reject *:*",
			".",
			"250 OK",
		}
	})

	out, err := runCommand(t, d, "get-info", "config-text")
	if err != nil {
		t.Fatalf("get-info failed: %v", err)
	}
	// Multi-line values render as a block under their key.
	if !strings.Contains(out, "config-text:\nNickname X\nExitPolicy reject *:*\n") {
		t.Errorf("output does not render data block:\n%s", out)
	}
}

func TestRunGetInfoCmdServerError(t *testing.T) {
	t.Parallel()

	d := startFakeDaemon(t, func(cmd string) []string {
		return []string{`552 Unrecognized key "bogus"`}
	})

	_, err := runCommand(t, d, "get-info", "bogus")
	if err == nil {
		t.Fatal("get-info succeeded, want server error")
	}
	if !strings.Contains(err.Error(), "tor rejected the command") {
		t.Errorf("error = %v, want a 'tor rejected the command' message", err)
	}
}

func TestNewGetInfoCmdRequiresArguments(t *testing.T) {
	t.Parallel()

	cmd := NewGetInfoCmd()
	cmd.SetArgs(nil)
	cmd.SetOut(&syncBuffer{})
	cmd.SetErr(&syncBuffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("get-info with no arguments succeeded, want usage error")
	}
}
