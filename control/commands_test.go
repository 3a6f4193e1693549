package control

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

// execWire runs fn against a fake daemon that acknowledges with the
// given reply lines (default "250 OK") and returns the single command
// line fn put on the wire.
func execWire(t *testing.T, fn func(c *Conn) error, replyLines ...string) string {
	t.Helper()
	c, d := newAuthedConn(t)
	if len(replyLines) == 0 {
		replyLines = []string{"250 OK"}
	}
	done := make(chan error, 1)
	go func() {
		done <- fn(c)
	}()
	wire := d.readLine()
	d.send(replyLines...)
	if err := <-done; err != nil {
		t.Fatalf("command failed: %v", err)
	}
	return wire
}

func TestCommandWireFormats(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		fn   func(c *Conn) error
		want string
	}{
		{
			name: "SETCONF quotes values",
			fn: func(c *Conn) error {
				return c.SetConf(context.Background(),
					ConfigEntry{Key: "Nickname", Value: "my relay"},
					ConfigEntry{Key: "ORPort", Value: "9001"})
			},
			want: `SETCONF Nickname="my relay" ORPort="9001"`,
		},
		{
			name: "SETCONF bare key resets",
			fn: func(c *Conn) error {
				return c.SetConf(context.Background(), ConfigEntry{Key: "Nickname"})
			},
			want: "SETCONF Nickname",
		},
		{
			name: "RESETCONF",
			fn: func(c *Conn) error {
				return c.ResetConf(context.Background(), "Nickname", "ORPort")
			},
			want: "RESETCONF Nickname ORPort",
		},
		{
			name: "SAVECONF",
			fn:   func(c *Conn) error { return c.SaveConf(context.Background(), false) },
			want: "SAVECONF",
		},
		{
			name: "SAVECONF FORCE",
			fn:   func(c *Conn) error { return c.SaveConf(context.Background(), true) },
			want: "SAVECONF FORCE",
		},
		{
			name: "SIGNAL",
			fn:   func(c *Conn) error { return c.Signal(context.Background(), SignalNewNym) },
			want: "SIGNAL NEWNYM",
		},
		{
			name: "TAKEOWNERSHIP",
			fn:   func(c *Conn) error { return c.TakeOwnership(context.Background()) },
			want: "TAKEOWNERSHIP",
		},
		{
			name: "MAPADDRESS quotes the replacement",
			fn: func(c *Conn) error {
				_, err := c.MapAddresses(context.Background(),
					AddressPair{From: "0.0.0.0", To: "tor.example.com"})
				return err
			},
			want: `MAPADDRESS 0.0.0.0="tor.example.com"`,
		},
		{
			name: "EXTENDCIRCUIT",
			fn: func(c *Conn) error {
				_, err := c.ExtendCircuit(context.Background(), "0", "relay1,relay2")
				return err
			},
			want: "EXTENDCIRCUIT 0 relay1,relay2",
		},
		{
			name: "SETCIRCUITPURPOSE",
			fn: func(c *Conn) error {
				return c.SetCircuitPurpose(context.Background(), "7", "controller")
			},
			want: "SETCIRCUITPURPOSE 7 purpose=controller",
		},
		{
			name: "ATTACHSTREAM",
			fn:   func(c *Conn) error { return c.AttachStream(context.Background(), "42", "7") },
			want: "ATTACHSTREAM 42 7",
		},
		{
			name: "REDIRECTSTREAM",
			fn: func(c *Conn) error {
				return c.RedirectStream(context.Background(), "42", "10.0.0.1")
			},
			want: "REDIRECTSTREAM 42 10.0.0.1",
		},
		{
			name: "CLOSESTREAM reason as decimal",
			fn:   func(c *Conn) error { return c.CloseStream(context.Background(), "42", 6) },
			want: "CLOSESTREAM 42 6",
		},
		{
			name: "CLOSECIRCUIT",
			fn:   func(c *Conn) error { return c.CloseCircuit(context.Background(), "7", false) },
			want: "CLOSECIRCUIT 7",
		},
		{
			name: "CLOSECIRCUIT IFUNUSED only when set",
			fn:   func(c *Conn) error { return c.CloseCircuit(context.Background(), "7", true) },
			want: "CLOSECIRCUIT 7 IFUNUSED",
		},
		{
			name: "USEFEATURE",
			fn:   func(c *Conn) error { return c.UseFeature(context.Background(), "VERBOSE_NAMES") },
			want: "USEFEATURE VERBOSE_NAMES",
		},
		{
			name: "RESOLVE",
			fn:   func(c *Conn) error { return c.Resolve(context.Background(), "example.com", false) },
			want: "RESOLVE example.com",
		},
		{
			name: "RESOLVE reverse",
			fn:   func(c *Conn) error { return c.Resolve(context.Background(), "1.2.3.4", true) },
			want: "RESOLVE mode=reverse 1.2.3.4",
		},
		{
			name: "DROPGUARDS",
			fn:   func(c *Conn) error { return c.DropGuards(context.Background()) },
			want: "DROPGUARDS",
		},
		{
			name: "HSFETCH skips empty servers",
			fn: func(c *Conn) error {
				return c.HSFetch(context.Background(), "someonionaddr", "dir1", "", "dir2")
			},
			want: "HSFETCH someonionaddr SERVER=dir1 SERVER=dir2",
		},
		{
			name: "DEL_ONION trims onion suffix",
			fn:   func(c *Conn) error { return c.DelOnion(context.Background(), "abcdef.onion") },
			want: "DEL_ONION abcdef",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := execWire(t, tc.fn); got != tc.want {
				t.Errorf("wire = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGetConfParsesEntries(t *testing.T) {
	t.Parallel()

	c, d := newAuthedConn(t)
	type result struct {
		entries []ConfigEntry
		err     error
	}
	done := make(chan result, 1)
	go func() {
		entries, err := c.GetConf(testCtx(t), "Nickname", "SocksPort")
		done <- result{entries, err}
	}()

	if got := d.readLine(); got != "GETCONF Nickname SocksPort" {
		t.Errorf("wire = %q", got)
	}
	// GETCONF replies carry an entry on every line, including the
	// terminal one; a key at its default comes back value-less.
	d.send("250-Nickname=X", "250 SocksPort")

	r := <-done
	if r.err != nil {
		t.Fatalf("GetConf() error = %v", r.err)
	}
	want := []ConfigEntry{{Key: "Nickname", Value: "X"}, {Key: "SocksPort"}}
	if len(r.entries) != len(want) {
		t.Fatalf("entries = %+v, want %+v", r.entries, want)
	}
	for i := range want {
		if r.entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, r.entries[i], want[i])
		}
	}
}

func TestLoadConfSendsBody(t *testing.T) {
	t.Parallel()

	c, d := newAuthedConn(t)
	done := make(chan error, 1)
	go func() {
		done <- c.LoadConf(testCtx(t), "Nickname X\nORPort 9001")
	}()

	for i, want := range []string{"LOADCONF", "Nickname X", "ORPort 9001", "."} {
		if got := d.readLine(); got != want {
			t.Errorf("body line %d = %q, want %q", i, got, want)
		}
	}
	d.send("250 OK")
	if err := <-done; err != nil {
		t.Fatalf("LoadConf() = %v", err)
	}
}

func TestAddOnion(t *testing.T) {
	t.Parallel()

	c, d := newAuthedConn(t)
	type result struct {
		svc *OnionService
		err error
	}
	done := make(chan result, 1)
	go func() {
		svc, err := c.AddOnion(testCtx(t), AddOnionRequest{
			Key:   "NEW:ED25519-V3",
			Ports: []OnionPort{{VirtPort: 80, Target: "127.0.0.1:8080"}, {VirtPort: 443}},
			Flags: []string{OnionFlagDetach, OnionFlagDiscardPK},
		})
		done <- result{svc, err}
	}()

	want := "ADD_ONION NEW:ED25519-V3 Flags=Detach,DiscardPK Port=80,127.0.0.1:8080 Port=443"
	if got := d.readLine(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
	d.send(
		"250-ServiceID=abcdefghij234567",
		"250-PrivateKey=ED25519-V3:base64base64",
		"250 OK",
	)

	r := <-done
	if r.err != nil {
		t.Fatalf("AddOnion() error = %v", r.err)
	}
	if r.svc.ServiceID != "abcdefghij234567" {
		t.Errorf("ServiceID = %q", r.svc.ServiceID)
	}
	if r.svc.PrivateKey != "ED25519-V3:base64base64" {
		t.Errorf("PrivateKey = %q", r.svc.PrivateKey)
	}
}

func TestAddOnionValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	c, _ := newAuthedConn(t)
	_, err := c.AddOnion(testCtx(t), AddOnionRequest{
		Key:   "not-a-key-spec",
		Ports: []OnionPort{{VirtPort: 80}},
	})
	if !errors.Is(err, ErrInvalidKeySpec) {
		t.Errorf("bad key spec: error = %v, want ErrInvalidKeySpec", err)
	}

	_, err = c.AddOnion(testCtx(t), AddOnionRequest{Key: "NEW:BEST"})
	if !errors.Is(err, ErrNoOnionPorts) {
		t.Errorf("no ports: error = %v, want ErrNoOnionPorts", err)
	}
}

func TestPostDescriptorWithOptions(t *testing.T) {
	t.Parallel()

	c, d := newAuthedConn(t)
	cache := true
	done := make(chan error, 1)
	go func() {
		_, err := c.PostDescriptorWithOptions(testCtx(t), "bridge", &cache, "router test")
		done <- err
	}()

	if got := d.readLine(); got != "POSTDESCRIPTOR purpose=bridge cache=yes" {
		t.Errorf("wire = %q", got)
	}
	if got := d.readLine(); got != "router test" {
		t.Errorf("body = %q", got)
	}
	if got := d.readLine(); got != "." {
		t.Errorf("terminator = %q", got)
	}
	d.send("250 OK")
	if err := <-done; err != nil {
		t.Fatalf("PostDescriptorWithOptions() = %v", err)
	}
}

func TestProtocolInfoParsing(t *testing.T) {
	t.Parallel()

	c, d := newTestConn(t)
	type result struct {
		info *ProtocolInfo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		info, err := c.ProtocolInfo(testCtx(t))
		done <- result{info, err}
	}()

	if got := d.readLine(); got != "PROTOCOLINFO 1" {
		t.Errorf("wire = %q", got)
	}
	d.send(
		"250-PROTOCOLINFO 1",
		`250-AUTH METHODS=COOKIE,SAFECOOKIE COOKIEFILE="/run/tor/control.authcookie"`,
		`250-VERSION Tor="0.4.7.13"`,
		"250 OK",
	)

	r := <-done
	if r.err != nil {
		t.Fatalf("ProtocolInfo() error = %v", r.err)
	}
	if !r.info.HasAuthMethod("SAFECOOKIE") || !r.info.HasAuthMethod("COOKIE") {
		t.Errorf("AuthMethods = %v", r.info.AuthMethods)
	}
	if r.info.HasAuthMethod("NULL") {
		t.Errorf("AuthMethods = %v unexpectedly contains NULL", r.info.AuthMethods)
	}
	if r.info.CookieFile != "/run/tor/control.authcookie" {
		t.Errorf("CookieFile = %q", r.info.CookieFile)
	}
	if r.info.TorVersion != "0.4.7.13" {
		t.Errorf("TorVersion = %q", r.info.TorVersion)
	}
}

func TestAuthenticateSafeCookie(t *testing.T) {
	t.Parallel()

	cookie := make([]byte, 32)
	for i := range cookie {
		cookie[i] = byte(i)
	}
	serverNonce := make([]byte, 32)
	for i := range serverNonce {
		serverNonce[i] = byte(0xff - i)
	}

	c, d := newTestConn(t)
	done := make(chan error, 1)
	go func() {
		done <- c.AuthenticateSafeCookie(testCtx(t), cookie)
	}()

	challenge := d.readLine()
	const prefix = "AUTHCHALLENGE SAFECOOKIE "
	if len(challenge) <= len(prefix) || challenge[:len(prefix)] != prefix {
		t.Fatalf("wire = %q, want %q prefix", challenge, prefix)
	}
	clientNonce, err := hex.DecodeString(challenge[len(prefix):])
	if err != nil {
		t.Fatalf("client nonce is not hex: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(safeCookieServerKey))
	mac.Write(cookie)
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	serverHash := mac.Sum(nil)
	d.send("250 AUTHCHALLENGE SERVERHASH=" + hex.EncodeToString(serverHash) +
		" SERVERNONCE=" + hex.EncodeToString(serverNonce))

	mac = hmac.New(sha256.New, []byte(safeCookieClientKey))
	mac.Write(cookie)
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	wantAuth := "AUTHENTICATE " + hex.EncodeToString(mac.Sum(nil))
	if got := d.readLine(); got != wantAuth {
		t.Errorf("wire = %q, want %q", got, wantAuth)
	}
	d.send("250 OK")

	if err := <-done; err != nil {
		t.Fatalf("AuthenticateSafeCookie() = %v", err)
	}
}

func TestAuthenticateSafeCookieRejectsBadServerHash(t *testing.T) {
	t.Parallel()

	c, d := newTestConn(t)
	done := make(chan error, 1)
	go func() {
		done <- c.AuthenticateSafeCookie(testCtx(t), []byte("cookie"))
	}()

	d.readLine()
	d.send("250 AUTHCHALLENGE SERVERHASH=" + hex.EncodeToString(make([]byte, 32)) +
		" SERVERNONCE=" + hex.EncodeToString(make([]byte, 32)))

	if err := <-done; err == nil {
		t.Fatal("AuthenticateSafeCookie() = nil, want server hash mismatch error")
	}
}
