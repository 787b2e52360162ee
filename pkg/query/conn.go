package query

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// greetingPrefix identifies a ServerQuery endpoint. The server sends it as
// the first banner line, followed by a welcome line.
const greetingPrefix = "TS3"

// Conn is an open ServerQuery transport handle: a TCP connection plus the
// line codec. It is not safe for concurrent use; the owning session manager
// serializes all exchanges.
type Conn struct {
	conn      net.Conn
	reader    *bufio.Reader
	ioTimeout time.Duration
}

// Dial opens a TCP connection to addr and consumes the ServerQuery greeting
// banner. ioTimeout bounds the TCP connect, the banner read and every later
// exchange; zero leaves the connection without deadlines.
func Dial(ctx context.Context, addr string, ioTimeout time.Duration) (*Conn, error) {
	dialer := &net.Dialer{Timeout: ioTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Conn{
		conn:      netConn,
		reader:    bufio.NewReader(netConn),
		ioTimeout: ioTimeout,
	}

	if err := c.readGreeting(); err != nil {
		netConn.Close()
		return nil, err
	}

	return c, nil
}

// readGreeting consumes the two banner lines sent on connect.
func (c *Conn) readGreeting() error {
	c.armDeadline(context.Background())
	defer c.clearDeadline()

	banner, err := c.readLine()
	if err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if !strings.HasPrefix(banner, greetingPrefix) {
		return fmt.Errorf("unexpected greeting %q: not a ServerQuery endpoint", banner)
	}

	// Welcome line with usage hints; content is irrelevant.
	if _, err := c.readLine(); err != nil {
		return fmt.Errorf("read welcome line: %w", err)
	}

	return nil
}

// Exec performs one request/response exchange. A non-zero server status is
// returned as *Error together with any body parsed so far; transport
// failures are returned as plain errors and mean the handle is unusable.
func (c *Conn) Exec(ctx context.Context, cmd *Command) (*Response, error) {
	c.armDeadline(ctx)
	defer c.clearDeadline()

	if _, err := c.conn.Write([]byte(cmd.String() + "\n")); err != nil {
		return nil, fmt.Errorf("write %s: %w", cmd.Name(), err)
	}

	var body []string
	for {
		line, err := c.readLine()
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", cmd.Name(), err)
		}
		if line == "" {
			continue
		}

		if isStatusLine(line) {
			resp := &Response{Entries: parseBody(body)}
			qErr, err := parseStatusLine(line)
			if err != nil {
				return nil, err
			}
			if qErr != nil {
				return resp, qErr
			}
			return resp, nil
		}

		body = append(body, line)
	}
}

// Close closes the underlying transport.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// readLine reads one line. The server terminates lines with "\n\r" (in that
// order), so the carriage return of the previous line leaks into the next
// read; trimming both ends handles every framing variant.
func (c *Conn) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.Trim(line, "\r\n"), nil
}

// armDeadline applies the per-exchange deadline: the earlier of the context
// deadline and now+ioTimeout.
func (c *Conn) armDeadline(ctx context.Context) {
	var deadline time.Time
	if c.ioTimeout > 0 {
		deadline = time.Now().Add(c.ioTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if !deadline.IsZero() {
		c.conn.SetDeadline(deadline)
	}
}

// clearDeadline removes any per-exchange deadline.
func (c *Conn) clearDeadline() {
	c.conn.SetDeadline(time.Time{})
}
