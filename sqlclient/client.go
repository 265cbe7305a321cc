package sqlclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prymochenkovictoria/sql-create-parser/server/sqlwire"
)

var (
	ErrClosed        = errors.New("sqlclient: client is closed")
	ErrIDMismatch    = errors.New("sqlclient: response id mismatch")
	ErrEmptyResponse = errors.New("sqlclient: response carries neither schema nor error")
)

// RemoteError is a parse error reported by the server. Kind is one of the
// sqlwire.Kind* values.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client holds one connection to a parse server. Requests are answered in
// order, so concurrent callers take turns on the connection.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  atomic.Uint64
	timeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	return DialContext(context.Background(), addr, timeout)
}

func DialContext(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sqlclient: dial %s: %w", addr, err)
	}
	return newClient(conn), nil
}

func newClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// SetRWTimeout bounds each request that has no context deadline. Zero waits
// forever.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c != nil {
		c.timeout = d
	}
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Parse(sql string) (*sqlwire.TableSchema, error) {
	return c.ParseContext(context.Background(), sql)
}

// ParseContext has the server parse sql. Parse failures are *RemoteError.
func (c *Client) ParseContext(ctx context.Context, sql string) (*sqlwire.TableSchema, error) {
	if c == nil || c.conn == nil {
		return nil, ErrClosed
	}

	resp, err := c.roundTrip(ctx, sqlwire.ParseRequest{ID: c.nextID.Add(1), SQL: sql})
	if err != nil {
		return nil, err
	}
	switch {
	case resp.Error != "":
		return nil, &RemoteError{Kind: resp.Kind, Message: resp.Error}
	case resp.Schema == nil:
		return nil, fmt.Errorf("%w (id %d)", ErrEmptyResponse, resp.ID)
	}
	return resp.Schema, nil
}

// roundTrip writes req and reads the matching response under c.mu.
func (c *Client) roundTrip(ctx context.Context, req sqlwire.ParseRequest) (sqlwire.ParseResponse, error) {
	var resp sqlwire.ParseResponse

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return resp, err
	}
	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return resp, fmt.Errorf("sqlclient: set deadline: %w", err)
	}
	defer func() { _ = c.conn.SetDeadline(time.Time{}) }()

	// Cancelling ctx unblocks a pending read or write.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := sqlwire.WriteFrame(c.conn, req); err != nil {
		return resp, ioErr(ctx, "send", err)
	}
	if err := sqlwire.ReadFrame(c.conn, &resp); err != nil {
		return resp, ioErr(ctx, "recv", err)
	}
	if resp.ID != req.ID {
		return resp, fmt.Errorf("%w: got %d, want %d", ErrIDMismatch, resp.ID, req.ID)
	}
	return resp, nil
}

// ioErr reports ctx's error in place of the deadline error it caused.
func ioErr(ctx context.Context, op string, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("sqlclient: %s: %w", op, cerr)
	}
	return fmt.Errorf("sqlclient: %s: %w", op, err)
}
