package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
)

// connState tracks where the connection is in its lifecycle. The
// daemon only accepts AUTHENTICATE, AUTHCHALLENGE, PROTOCOLINFO, and
// QUIT before authentication; the Conn enforces the same rule locally
// so misuse fails before bytes reach the wire.
type connState int

const (
	stateFresh connState = iota
	stateAuthenticated
	stateClosed
)

// waiter is the slot a caller blocks on until the reader delivers the
// matching reply. The channel has capacity one so the reader never
// blocks on delivery, even when the caller has already given up.
type waiter struct {
	ch       chan Reply
	canceled atomic.Bool
}

// Conn is a connection to a running Tor daemon's control port.
//
// A Conn is safe for concurrent use: any number of goroutines may
// issue commands at once. Replies carry no tags, so ordering is the
// correlation mechanism: each command's waiter is enqueued inside the
// same critical section that writes its bytes, and the single reader
// goroutine completes waiters strictly in FIFO order.
type Conn struct {
	stream io.ReadWriteCloser
	br     *bufio.Reader

	// writeMu serializes command writes. The waiter enqueue happens
	// while it is held, which is what keeps wire order and queue order
	// identical.
	writeMu sync.Mutex

	waitersMu sync.Mutex
	waiters   []*waiter

	startOnce sync.Once

	// mu guards the lifecycle state, the latched reader error, the
	// event handler, the raw listeners, and the debug sink.
	mu        sync.Mutex
	state     connState
	readerErr error
	closing   bool
	handler   EventHandler
	listeners []RawEventListener
	debug     io.Writer

	logger *slog.Logger
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger used for reader diagnostics. The default
// is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps an established duplex stream in a Conn. The Conn takes
// ownership of the stream and closes it on Close or reader failure.
//
// The background reader is started by the first command; call Start to
// start it earlier, e.g. to receive events before issuing any command.
func New(stream io.ReadWriteCloser, opts ...Option) *Conn {
	c := &Conn{
		stream: stream,
		br:     bufio.NewReader(stream),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to the control port at addr and returns a Conn around
// the new connection. An addr containing a path separator is treated
// as a Unix socket path, anything else as a TCP host:port.
func Dial(addr string, opts ...Option) (*Conn, error) {
	network := "tcp"
	if strings.ContainsRune(addr, '/') {
		network = "unix"
	}
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial control port: %w", err)
	}
	return New(conn, opts...), nil
}

// Start launches the background reader goroutine. Starting is
// idempotent; concurrent calls elect a single starter. Commands start
// the reader implicitly, so calling Start is only needed when the
// caller wants events flowing before the first command.
func (c *Conn) Start() {
	c.startOnce.Do(func() {
		go c.readLoop()
	})
}

// Close shuts the connection down. Pending commands fail with
// ErrConnClosed, as does every command issued afterwards.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closing = true
	c.state = stateClosed
	if c.readerErr == nil {
		c.readerErr = ErrConnClosed
	}
	c.mu.Unlock()
	return c.stream.Close()
}

// SetDebug installs w as the wire trace sink: every outgoing line is
// written to it prefixed with ">> ", every incoming line prefixed with
// "<< ". Passing nil removes the sink. Safe to call at any time.
//
// The trace contains authentication secrets verbatim; wrap the sink
// with a redacting writer before pointing it at anything persistent.
func (c *Conn) SetDebug(w io.Writer) {
	c.mu.Lock()
	c.debug = w
	c.mu.Unlock()
}

// terminalErr returns the latched terminal error, or nil while the
// connection is still usable.
func (c *Conn) terminalErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		if c.readerErr != nil {
			return c.readerErr
		}
		return ErrConnClosed
	}
	return nil
}

// requireAuth fails commands that are not valid before authentication.
func (c *Conn) requireAuth() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateFresh:
		return ErrNotAuthenticated
	case stateClosed:
		if c.readerErr != nil {
			return c.readerErr
		}
		return ErrConnClosed
	}
	return nil
}

// markAuthenticated records a successful AUTHENTICATE exchange. The
// closed state is sticky; a connection cannot leave it.
func (c *Conn) markAuthenticated() {
	c.mu.Lock()
	if c.state == stateFresh {
		c.state = stateAuthenticated
	}
	c.mu.Unlock()
}

// tapLine writes one terminator-free line to the debug sink, if any.
func (c *Conn) tapLine(prefix, line string) {
	c.mu.Lock()
	w := c.debug
	c.mu.Unlock()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "%s%s\n", prefix, line)
}

// readLine returns the next input line without its CRLF or LF
// terminator. A final line that ends at EOF without a terminator is
// still returned; the EOF surfaces on the following call.
func (c *Conn) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		if err != nil {
			return "", err
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	c.tapLine("<< ", line)
	return line, nil
}

// write sends one command, and its data block when hasBody is set,
// as a single Write so the bytes of concurrent commands never
// interleave. Callers must hold writeMu.
func (c *Conn) write(line, body string, hasBody bool) error {
	wire := line
	if hasBody {
		wire += encodeDataBlock(body)
	}
	c.mu.Lock()
	w := c.debug
	c.mu.Unlock()
	if w != nil {
		for _, l := range strings.Split(strings.TrimRight(wire, "\r\n"), "\n") {
			fmt.Fprintf(w, ">> %s\n", strings.TrimSuffix(l, "\r"))
		}
	}
	if _, err := io.WriteString(c.stream, wire); err != nil {
		return err
	}
	return nil
}

// sendAndWait writes a CRLF-terminated command line (plus an optional
// data block) and blocks until the matching reply arrives, the context
// is done, or the connection dies.
//
// Any reply line outside the 2xx class turns the whole exchange into a
// *ServerError. Context cancellation marks the waiter canceled but
// leaves it in the queue: the reader still dequeues it when its reply
// arrives, so later waiters stay aligned with later replies.
func (c *Conn) sendAndWait(ctx context.Context, line, body string, hasBody bool) (Reply, error) {
	if err := c.terminalErr(); err != nil {
		return nil, err
	}
	c.Start()

	w := &waiter{ch: make(chan Reply, 1)}
	c.writeMu.Lock()
	err := c.write(line, body, hasBody)
	if err == nil {
		c.waitersMu.Lock()
		c.waiters = append(c.waiters, w)
		c.waitersMu.Unlock()
	}
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	// The reader may have torn down between the terminal check and the
	// enqueue, in which case the drain already happened and nobody will
	// ever complete this waiter. If it is still queued, unlink it and
	// fail; if it is gone, the reader owns it and the select below will
	// hear from it.
	if termErr := c.terminalErr(); termErr != nil {
		c.waitersMu.Lock()
		for i, q := range c.waiters {
			if q == w {
				c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
				c.waitersMu.Unlock()
				return nil, termErr
			}
		}
		c.waitersMu.Unlock()
	}

	select {
	case reply, ok := <-w.ch:
		if !ok {
			return nil, c.closedErr()
		}
		for _, rl := range reply {
			if rl.Status/100 != 2 {
				return nil, &ServerError{Status: rl.Status, Message: rl.Message}
			}
		}
		return reply, nil
	case <-ctx.Done():
		w.canceled.Store(true)
		return nil, ctx.Err()
	}
}

// sendOnly writes a command without enqueuing a waiter. It exists for
// signals that make the daemon drop the connection before replying;
// with no waiter outstanding, the EOF that follows counts as a clean
// close.
func (c *Conn) sendOnly(line string) error {
	if err := c.terminalErr(); err != nil {
		return err
	}
	c.Start()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.write(line, "", false); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// SendFireAndForget writes a raw command line (given without the
// trailing CRLF) and does not wait for a reply. No waiter is enqueued,
// so a reply to the command would be discarded and an EOF afterwards
// counts as a clean close. Intended for commands that may make the
// daemon drop the connection before answering.
func (c *Conn) SendFireAndForget(command string) error {
	return c.sendOnly(command + "\r\n")
}

// closedErr is what a caller reports when its waiter was canceled by
// reader teardown.
func (c *Conn) closedErr() error {
	if err := c.terminalErr(); err != nil {
		return err
	}
	return ErrConnClosed
}

// readLoop is the single background reader. It assembles complete
// replies, routes 6xx event replies to the dispatcher, and completes
// the oldest waiter with everything else. It exits on the first read
// or parse error, latching it for all future commands.
func (c *Conn) readLoop() {
	for {
		reply, err := readReply(c.readLine)
		if err != nil {
			c.teardown(err)
			return
		}
		if reply.IsEvent() {
			c.dispatchEvent(reply)
			continue
		}
		c.waitersMu.Lock()
		var w *waiter
		if len(c.waiters) > 0 {
			w = c.waiters[0]
			c.waiters = c.waiters[1:]
		}
		c.waitersMu.Unlock()
		if w == nil {
			c.logger.Warn("discarding reply with no pending command",
				slog.Int("status", reply.Status()))
			continue
		}
		if w.canceled.Load() {
			c.logger.Debug("discarding reply for canceled command",
				slog.Int("status", reply.Status()))
		}
		w.ch <- reply
	}
}

// teardown latches the reader's terminal error, closes the stream, and
// cancels every pending waiter.
func (c *Conn) teardown(readErr error) {
	var latched error
	var syntaxErr *SyntaxError
	switch {
	case errors.Is(readErr, io.EOF):
		latched = ErrConnClosed
	case errors.As(readErr, &syntaxErr):
		latched = readErr
	default:
		latched = fmt.Errorf("%w: %v", ErrConnClosed, readErr)
	}
	c.mu.Lock()
	if c.closing {
		latched = ErrConnClosed
	}
	c.state = stateClosed
	if c.readerErr == nil || errors.Is(c.readerErr, ErrConnClosed) {
		c.readerErr = latched
	}
	c.mu.Unlock()
	_ = c.stream.Close()

	c.waitersMu.Lock()
	pending := c.waiters
	c.waiters = nil
	c.waitersMu.Unlock()
	for _, w := range pending {
		close(w.ch)
	}
	if len(pending) > 0 {
		c.logger.Warn("control connection lost with commands pending",
			slog.Int("pending", len(pending)), slog.Any("error", latched))
	}
}
