package conn

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cosmez/keyparse-go/internal/resp"
)

// Connection is one RESP peer. On the server side it frames requests and
// writes replies; on the client side it sends requests and decodes replies.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	// MaxRequest caps one framed request in bytes; 0 means no cap.
	MaxRequest int
	// IdleTimeout bounds the wait for the next request; 0 waits forever.
	IdleTimeout time.Duration
}

// New wraps an accepted connection.
func New(nc net.Conn, maxRequest int, idle time.Duration) *Connection {
	return &Connection{
		conn:        nc,
		reader:      bufio.NewReader(nc),
		writer:      bufio.NewWriter(nc),
		MaxRequest:  maxRequest,
		IdleTimeout: idle,
	}
}

// Dial connects to a RESP server at addr.
func Dial(ctx context.Context, addr string) (*Connection, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return New(nc, 0, 0), nil
}

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// ReadRequest frames the next request, see ReadRequest.
func (c *Connection) ReadRequest() ([]byte, error) {
	if c.IdleTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.IdleTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}
	return ReadRequest(c.reader, c.MaxRequest)
}

// WriteValue encodes v and flushes it to the peer.
func (c *Connection) WriteValue(v resp.RedisValue) error {
	if _, err := c.writer.Write(resp.Encode(v)); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Send writes a request built from args. Arguments are length-prefixed, so
// any byte sequence is safe.
func (c *Connection) Send(args ...string) error {
	if _, err := c.writer.Write(resp.EncodeStrings(args...)); err != nil {
		return err
	}
	return c.writer.Flush()
}

// SendRaw writes an already encoded request.
func (c *Connection) SendRaw(raw []byte) error {
	if _, err := c.writer.Write(raw); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Receive reads a single reply, optionally with a timeout.
func (c *Connection) Receive(timeout time.Duration) (resp.RedisValue, error) {
	if timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}
	return resp.ParseValue(c.reader)
}

// Close terminates the connection.
func (c *Connection) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
