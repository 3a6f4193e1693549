package control

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ConfigEntry is a single key-value pair from the daemon's
// configuration. A value-less entry (Value empty) stands for a key
// that is set to its default, or, when passed to SetConf, a request to
// reset that key.
type ConfigEntry struct {
	Key   string
	Value string
}

// AddressPair is one MAPADDRESS mapping from an original address to
// its replacement.
type AddressPair struct {
	From string
	To   string
}

// OnionPort maps a virtual port of an onion service to a local target.
// An empty Target makes the daemon relay the virtual port to the same
// port on localhost.
type OnionPort struct {
	VirtPort int
	Target   string
}

// Flags accepted by AddOnion.
const (
	OnionFlagDiscardPK       = "DiscardPK"
	OnionFlagDetach          = "Detach"
	OnionFlagBasicAuth       = "BasicAuth"
	OnionFlagNonAnonymous    = "NonAnonymous"
	OnionFlagMaxStreamsClose = "MaxStreamsCloseCircuit"
)

// AddOnionRequest describes the onion service to create with AddOnion.
type AddOnionRequest struct {
	// Key is the key spec: "NEW:BEST", "NEW:ED25519-V3", or
	// "<keytype>:<key material>" for a service with an existing key.
	Key string

	// Ports are the virtual port mappings. At least one is required.
	Ports []OnionPort

	// Flags are ADD_ONION flags such as OnionFlagDetach.
	Flags []string
}

// OnionService is the daemon's answer to AddOnion.
type OnionService struct {
	// ServiceID is the onion address without the ".onion" suffix.
	ServiceID string

	// PrivateKey is the generated private key, empty when the request
	// used an existing key or the DiscardPK flag.
	PrivateKey string
}

// ProtocolInfo is the parsed answer to the PROTOCOLINFO command.
type ProtocolInfo struct {
	// AuthMethods lists the authentication methods the daemon accepts,
	// e.g. NULL, HASHEDPASSWORD, COOKIE, SAFECOOKIE.
	AuthMethods []string

	// CookieFile is the path of the authentication cookie, when cookie
	// authentication is available.
	CookieFile string

	// TorVersion is the daemon's version string.
	TorVersion string
}

// HasAuthMethod reports whether the daemon accepts the given
// authentication method.
func (p *ProtocolInfo) HasAuthMethod(method string) bool {
	for _, m := range p.AuthMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Exec sends a raw command line and returns the daemon's reply. The
// command is given without the trailing CRLF. Use it for protocol
// verbs this package has no wrapper for; the wrappers are otherwise
// preferred because they format arguments correctly.
func (c *Conn) Exec(ctx context.Context, command string) (Reply, error) {
	return c.sendAndWait(ctx, command+"\r\n", "", false)
}

// ExecWithBody sends a raw command line followed by a dot-encoded data
// block holding body.
func (c *Conn) ExecWithBody(ctx context.Context, command, body string) (Reply, error) {
	return c.sendAndWait(ctx, command+"\r\n", body, true)
}

// Authenticate authenticates the controller to the daemon with the
// given secret: the contents of the cookie file for COOKIE
// authentication, or nothing at all when the daemon trusts local
// connections. The secret is sent hex-encoded.
func (c *Conn) Authenticate(ctx context.Context, secret []byte) error {
	_, err := c.sendAndWait(ctx, "AUTHENTICATE "+hex.EncodeToString(secret)+"\r\n", "", false)
	if err != nil {
		return err
	}
	c.markAuthenticated()
	return nil
}

// AuthenticateWithPassword authenticates using the HASHEDPASSWORD
// method: the password is sent as a quoted string and checked against
// the daemon's HashedControlPassword option.
func (c *Conn) AuthenticateWithPassword(ctx context.Context, password string) error {
	_, err := c.sendAndWait(ctx, "AUTHENTICATE "+quote(password)+"\r\n", "", false)
	if err != nil {
		return err
	}
	c.markAuthenticated()
	return nil
}

// AuthChallenge performs the AUTHCHALLENGE exchange of the SAFECOOKIE
// method with an hex-encoded client nonce, and returns the key-value
// fields of the reply (SERVERHASH and SERVERNONCE). Most callers want
// AuthenticateSafeCookie, which runs the whole handshake.
func (c *Conn) AuthChallenge(ctx context.Context, clientNonce string) (map[string]string, error) {
	reply, err := c.sendAndWait(ctx, "AUTHCHALLENGE SAFECOOKIE "+clientNonce+"\r\n", "", false)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string)
	for _, line := range reply {
		for _, f := range strings.Fields(line.Message) {
			if k, v, ok := strings.Cut(f, "="); ok {
				fields[k] = unquote(v)
			}
		}
	}
	return fields, nil
}

// ProtocolInfo asks the daemon which protocol version and
// authentication methods it supports. It is one of the few commands
// valid before authentication.
func (c *Conn) ProtocolInfo(ctx context.Context) (*ProtocolInfo, error) {
	reply, err := c.sendAndWait(ctx, "PROTOCOLINFO 1\r\n", "", false)
	if err != nil {
		return nil, err
	}
	info := &ProtocolInfo{}
	for _, line := range reply {
		fields := strings.Fields(line.Message)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "AUTH":
			for _, f := range fields[1:] {
				k, v, ok := strings.Cut(f, "=")
				if !ok {
					continue
				}
				switch k {
				case "METHODS":
					info.AuthMethods = strings.Split(v, ",")
				case "COOKIEFILE":
					info.CookieFile = unquote(v)
				}
			}
		case "VERSION":
			for _, f := range fields[1:] {
				if k, v, ok := strings.Cut(f, "="); ok && k == "Tor" {
					info.TorVersion = unquote(v)
				}
			}
		}
	}
	return info, nil
}

// Quit tells the daemon to close the control connection. Valid before
// authentication.
func (c *Conn) Quit(ctx context.Context) error {
	_, err := c.sendAndWait(ctx, "QUIT\r\n", "", false)
	return err
}

// SetConf changes the given configuration options, as though the
// daemon had re-read them from its configuration file. An entry with
// an empty value resets that key to its default. SETCONF is
// all-or-nothing: one bad entry makes the daemon reject them all.
func (c *Conn) SetConf(ctx context.Context, entries ...ConfigEntry) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("SETCONF")
	for _, e := range entries {
		b.WriteByte(' ')
		b.WriteString(e.Key)
		if e.Value != "" {
			b.WriteByte('=')
			b.WriteString(quote(e.Value))
		}
	}
	b.WriteString("\r\n")
	_, err := c.sendAndWait(ctx, b.String(), "", false)
	return err
}

// ResetConf resets the given configuration keys to their default
// values.
func (c *Conn) ResetConf(ctx context.Context, keys ...string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := c.sendAndWait(ctx, "RESETCONF "+strings.Join(keys, " ")+"\r\n", "", false)
	return err
}

// GetConf queries the current values of the given configuration keys.
// A key that appears multiple times in the configuration produces one
// entry per occurrence, in order; a key at its default may come back
// value-less.
func (c *Conn) GetConf(ctx context.Context, keys ...string) ([]ConfigEntry, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("GETCONF")
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
	}
	b.WriteString("\r\n")
	reply, err := c.sendAndWait(ctx, b.String(), "", false)
	if err != nil {
		return nil, err
	}
	entries := make([]ConfigEntry, 0, len(reply))
	for _, line := range reply {
		if k, v, ok := strings.Cut(line.Message, "="); ok {
			entries = append(entries, ConfigEntry{Key: k, Value: v})
		} else {
			entries = append(entries, ConfigEntry{Key: line.Message})
		}
	}
	return entries, nil
}

// LoadConf makes the daemon replace its whole configuration with the
// given text, as though it were the contents of its torrc.
func (c *Conn) LoadConf(ctx context.Context, config string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "LOADCONF\r\n", config, true)
	return err
}

// SaveConf instructs the daemon to write its configuration out to its
// torrc. With force set, the file is overwritten even if %include
// options would otherwise block it.
func (c *Conn) SaveConf(ctx context.Context, force bool) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	line := "SAVECONF\r\n"
	if force {
		line = "SAVECONF FORCE\r\n"
	}
	_, err := c.sendAndWait(ctx, line, "", false)
	return err
}

// SetEvents tells the daemon which events to deliver on this
// connection. Event names not listed are turned off, so an empty call
// disables all event reporting. Unknown names fail with
// ErrUnknownEvent before anything is sent.
func (c *Conn) SetEvents(ctx context.Context, events ...string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("SETEVENTS")
	for _, name := range events {
		if !IsKnownEvent(name) {
			return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
		}
		b.WriteByte(' ')
		b.WriteString(name)
	}
	b.WriteString("\r\n")
	_, err := c.sendAndWait(ctx, b.String(), "", false)
	return err
}

// Signal sends a signal to the daemon and waits for it to be
// acknowledged. For SHUTDOWN and HALT, which may drop the connection
// before the acknowledgment arrives, use ShutdownTor instead.
func (c *Conn) Signal(ctx context.Context, signal string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "SIGNAL "+signal+"\r\n", "", false)
	return err
}

// ShutdownTor sends a shutdown signal without waiting for a reply.
// The daemon is allowed to close the connection before answering, so
// no waiter is left behind; the EOF that follows is then a clean
// close.
func (c *Conn) ShutdownTor(signal string) error {
	return c.SendFireAndForget("SIGNAL " + signal)
}

// TakeOwnership tells the daemon to exit when this control connection
// closes.
func (c *Conn) TakeOwnership(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "TAKEOWNERSHIP\r\n", "", false)
	return err
}

// DropOwnership undoes TakeOwnership.
func (c *Conn) DropOwnership(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "DROPOWNERSHIP\r\n", "", false)
	return err
}

// MapAddresses tells the daemon to rewrite future SOCKS requests for
// the original addresses to the replacements. The daemon answers with
// the mappings it actually installed, which matters when the original
// address is a null address ("0.0.0.0", "::0", or ".") asking the
// daemon to pick one.
func (c *Conn) MapAddresses(ctx context.Context, pairs ...AddressPair) (map[string]string, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("MAPADDRESS")
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p.From)
		b.WriteByte('=')
		b.WriteString(quote(p.To))
	}
	b.WriteString("\r\n")
	reply, err := c.sendAndWait(ctx, b.String(), "", false)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(reply))
	for _, line := range reply {
		if k, v, ok := strings.Cut(line.Message, "="); ok {
			result[k] = v
		}
	}
	return result, nil
}

// MapAddress installs a single address mapping and returns the
// replacement address the daemon chose.
func (c *Conn) MapAddress(ctx context.Context, from, to string) (string, error) {
	m, err := c.MapAddresses(ctx, AddressPair{From: from, To: to})
	if err != nil {
		return "", err
	}
	return m[from], nil
}

// GetInfo queries daemon information values that are not part of the
// configuration, such as "version" or "circuit-status". Values that
// arrive as data blocks win over inline "key=value" text.
func (c *Conn) GetInfo(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("GETINFO")
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
	}
	b.WriteString("\r\n")
	reply, err := c.sendAndWait(ctx, b.String(), "", false)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(keys))
	for _, line := range reply {
		k, v, ok := strings.Cut(line.Message, "=")
		if !ok {
			continue
		}
		if line.HasData {
			v = line.Data
		}
		m[k] = v
	}
	return m, nil
}

// GetInfoValue queries a single information value.
func (c *Conn) GetInfoValue(ctx context.Context, key string) (string, error) {
	m, err := c.GetInfo(ctx, key)
	if err != nil {
		return "", err
	}
	return m[key], nil
}

// ExtendCircuit asks the daemon to extend the circuit with the given
// ID through the servers named in path (comma-separated), or, with a
// circuit ID of "0", to build a fresh circuit along path. It returns
// the first reply line, which carries the circuit ID.
func (c *Conn) ExtendCircuit(ctx context.Context, circID, path string) (string, error) {
	if err := c.requireAuth(); err != nil {
		return "", err
	}
	reply, err := c.sendAndWait(ctx, "EXTENDCIRCUIT "+circID+" "+path+"\r\n", "", false)
	if err != nil {
		return "", err
	}
	return reply[0].Message, nil
}

// SetCircuitPurpose changes the purpose of the circuit, e.g. to
// "controller" or "general".
func (c *Conn) SetCircuitPurpose(ctx context.Context, circID, purpose string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "SETCIRCUITPURPOSE "+circID+" purpose="+purpose+"\r\n", "", false)
	return err
}

// AttachStream associates the stream with the circuit. A circuit ID of
// "0" returns responsibility for the stream to the daemon. Streams can
// only be attached to circuits that have finished building.
func (c *Conn) AttachStream(ctx context.Context, streamID, circID string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "ATTACHSTREAM "+streamID+" "+circID+"\r\n", "", false)
	return err
}

// PostDescriptor hands the daemon a server descriptor, as though it
// had been downloaded from a directory server. It returns the first
// reply line.
func (c *Conn) PostDescriptor(ctx context.Context, descriptor string) (string, error) {
	return c.PostDescriptorWithOptions(ctx, "", nil, descriptor)
}

// PostDescriptorWithOptions is PostDescriptor with an explicit purpose
// ("general", "controller", or "bridge"; empty for the default) and
// cache policy (nil for the daemon's default).
func (c *Conn) PostDescriptorWithOptions(ctx context.Context, purpose string, cache *bool, descriptor string) (string, error) {
	if err := c.requireAuth(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("POSTDESCRIPTOR")
	if purpose != "" {
		b.WriteString(" purpose=")
		b.WriteString(purpose)
	}
	if cache != nil {
		if *cache {
			b.WriteString(" cache=yes")
		} else {
			b.WriteString(" cache=no")
		}
	}
	b.WriteString("\r\n")
	reply, err := c.sendAndWait(ctx, b.String(), descriptor, true)
	if err != nil {
		return "", err
	}
	return reply[0].Message, nil
}

// RedirectStream changes the destination address of an unattached
// stream. No remapping is applied to the new address.
func (c *Conn) RedirectStream(ctx context.Context, streamID, address string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "REDIRECTSTREAM "+streamID+" "+address+"\r\n", "", false)
	return err
}

// CloseStream closes a stream. reason is one of the RELAY_END reasons
// from tor-spec, sent as a decimal.
func (c *Conn) CloseStream(ctx context.Context, streamID string, reason byte) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "CLOSESTREAM "+streamID+" "+strconv.Itoa(int(reason))+"\r\n", "", false)
	return err
}

// CloseCircuit closes a circuit. With ifUnused set, the circuit is
// only closed when no streams depend on it.
func (c *Conn) CloseCircuit(ctx context.Context, circID string, ifUnused bool) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	line := "CLOSECIRCUIT " + circID
	if ifUnused {
		line += " IFUNUSED"
	}
	_, err := c.sendAndWait(ctx, line+"\r\n", "", false)
	return err
}

// UseFeature enables protocol features by name. Calling it with no
// names is a no-op.
func (c *Conn) UseFeature(ctx context.Context, keys ...string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := c.sendAndWait(ctx, "USEFEATURE "+strings.Join(keys, " ")+"\r\n", "", false)
	return err
}

// Resolve launches a remote hostname lookup over the Tor network. The
// answer arrives as an ADDRMAP event, not in the reply. With reverse
// set, address must be an IPv4 address to be looked up in-addr.
func (c *Conn) Resolve(ctx context.Context, address string, reverse bool) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	line := "RESOLVE " + address + "\r\n"
	if reverse {
		line = "RESOLVE mode=reverse " + address + "\r\n"
	}
	_, err := c.sendAndWait(ctx, line, "", false)
	return err
}

// DropGuards makes the daemon forget its entry guards and pick new
// ones. This can degrade anonymity; it exists for testing setups.
func (c *Conn) DropGuards(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	_, err := c.sendAndWait(ctx, "DROPGUARDS\r\n", "", false)
	return err
}

// HSFetch launches a fetch of the descriptor for the given onion
// address. Optional servers restrict which hidden service directories
// are asked; empty entries are skipped. Results arrive as HS_DESC and
// HS_DESC_CONTENT events.
func (c *Conn) HSFetch(ctx context.Context, address string, servers ...string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("HSFETCH ")
	b.WriteString(address)
	for _, server := range servers {
		if server == "" {
			continue
		}
		b.WriteString(" SERVER=")
		b.WriteString(server)
	}
	b.WriteString("\r\n")
	_, err := c.sendAndWait(ctx, b.String(), "", false)
	return err
}

// HSPost uploads a hidden service descriptor to the given directory
// servers, or to the responsible ones when servers is empty. A
// non-empty hsAddress names the onion address the descriptor belongs
// to, for v3 descriptors that do not embed it.
func (c *Conn) HSPost(ctx context.Context, servers []string, hsAddress, descriptor string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("HSPOST")
	for _, server := range servers {
		if server == "" {
			continue
		}
		b.WriteString(" SERVER=")
		b.WriteString(server)
	}
	if hsAddress != "" {
		b.WriteString(" HSADDRESS=")
		b.WriteString(hsAddress)
	}
	b.WriteString("\r\n")
	_, err := c.sendAndWait(ctx, b.String(), descriptor, true)
	return err
}

// AddOnion creates an onion service that lives as long as this control
// connection (or longer, with the Detach flag). The request is
// validated before any bytes are sent.
func (c *Conn) AddOnion(ctx context.Context, req AddOnionRequest) (*OnionService, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if !strings.Contains(req.Key, ":") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeySpec, req.Key)
	}
	if len(req.Ports) == 0 {
		return nil, ErrNoOnionPorts
	}
	var b strings.Builder
	b.WriteString("ADD_ONION ")
	b.WriteString(req.Key)
	if len(req.Flags) > 0 {
		b.WriteString(" Flags=")
		b.WriteString(strings.Join(req.Flags, ","))
	}
	for _, p := range req.Ports {
		b.WriteString(" Port=")
		b.WriteString(strconv.Itoa(p.VirtPort))
		if p.Target != "" {
			b.WriteByte(',')
			b.WriteString(p.Target)
		}
	}
	b.WriteString("\r\n")
	reply, err := c.sendAndWait(ctx, b.String(), "", false)
	if err != nil {
		return nil, err
	}
	svc := &OnionService{}
	for _, line := range reply {
		switch k, v, _ := strings.Cut(line.Message, "="); k {
		case "ServiceID":
			svc.ServiceID = v
		case "PrivateKey":
			svc.PrivateKey = v
		}
	}
	return svc, nil
}

// DelOnion removes an onion service created on this control connection
// (or any detached one). The service ID may be given with or without
// the ".onion" suffix.
func (c *Conn) DelOnion(ctx context.Context, serviceID string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	serviceID = strings.TrimSuffix(serviceID, ".onion")
	_, err := c.sendAndWait(ctx, "DEL_ONION "+serviceID+"\r\n", "", false)
	return err
}
