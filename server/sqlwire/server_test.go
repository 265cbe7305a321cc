package sqlwire

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, opts Options) (*Server, string) {
	t.Helper()

	srv, err := NewServer(opts)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

func roundTrip(t *testing.T, conn net.Conn, req ParseRequest) ParseResponse {
	t.Helper()
	require.NoError(t, WriteFrame(conn, req))
	var resp ParseResponse
	require.NoError(t, ReadFrame(conn, &resp))
	return resp
}

func TestServer_Parse(t *testing.T) {
	_, addr := startServer(t, Options{CacheSize: 8})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	resp := roundTrip(t, conn, ParseRequest{ID: 1, SQL: "CREATE TABLE products (sku VARCHAR(255), price INT)"})
	assert.Equal(t, uint64(1), resp.ID)
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Schema)
	assert.Equal(t, "products", resp.Schema.Table)
	assert.Equal(t, []ColumnSchema{
		{Name: "sku", Type: "VARCHAR", Length: 255},
		{Name: "price", Type: "INT"},
	}, resp.Schema.Columns)

	resp = roundTrip(t, conn, ParseRequest{ID: 2, SQL: "CREATE TABLE users (id FOOBAR)"})
	assert.Equal(t, uint64(2), resp.ID)
	assert.Nil(t, resp.Schema)
	assert.Equal(t, KindInvalidDataType, resp.Kind)
	assert.Contains(t, resp.Error, "FOOBAR")
}

func TestServer_CacheKeepsRequestID(t *testing.T) {
	srv, addr := startServer(t, Options{CacheSize: 8})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	const sql = "CREATE TABLE users (name VARCHAR(abc))"
	first := roundTrip(t, conn, ParseRequest{ID: 10, SQL: sql})
	second := roundTrip(t, conn, ParseRequest{ID: 11, SQL: sql})

	assert.Equal(t, uint64(10), first.ID)
	assert.Equal(t, uint64(11), second.ID)
	assert.Equal(t, KindInvalidVarcharLength, second.Kind)
	assert.Equal(t, first.Error, second.Error)
	assert.Equal(t, 1, srv.cache.Len())
}

func TestServer_NoCache(t *testing.T) {
	srv, err := NewServer(Options{})
	require.NoError(t, err)
	assert.Nil(t, srv.cache)

	resp := srv.handle(ParseRequest{ID: 3, SQL: "create table t (a int)"})
	require.NotNil(t, resp.Schema)
	assert.Equal(t, "t", resp.Schema.Table)
}

func TestServer_IdleTimeout(t *testing.T) {
	_, addr := startServer(t, Options{Timeout: 50 * time.Millisecond})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp ParseResponse
	assert.Error(t, ReadFrame(conn, &resp), "server should close an idle connection")
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	srv, err := NewServer(Options{})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	roundTrip(t, conn, ParseRequest{ID: 1, SQL: "CREATE TABLE t (a INT)"})

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// flakyListener fails Accept with errs, then reports itself closed.
type flakyListener struct {
	errs  []error
	calls int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.calls++
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		return nil, err
	}
	return nil, net.ErrClosed
}

func (l *flakyListener) Close() error { return nil }

func (l *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestServer_AcceptErrorsBackOff(t *testing.T) {
	srv, err := NewServer(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	emfile := errors.New("accept: too many open files")
	ln := &flakyListener{errs: []error{emfile, emfile, emfile}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	err = srv.Serve(ctx, ln)
	assert.ErrorIs(t, err, net.ErrClosed)
	assert.Equal(t, 4, ln.calls)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestServer_AcceptBackoffIsCapped(t *testing.T) {
	var got []time.Duration
	d := time.Duration(0)
	for i := 0; i < 10; i++ {
		d = acceptBackoff(d)
		got = append(got, d)
	}
	assert.Equal(t, 5*time.Millisecond, got[0])
	assert.Equal(t, 40*time.Millisecond, got[3])
	assert.Equal(t, 640*time.Millisecond, got[7])
	assert.Equal(t, time.Second, got[8])
	assert.Equal(t, time.Second, got[9])
}

func TestServer_AcceptBackoffStopsOnCancel(t *testing.T) {
	srv, err := NewServer(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	errs := make([]error, 100)
	for i := range errs {
		errs[i] = errors.New("accept: transient")
	}
	ln := &flakyListener{errs: errs}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept retrying after cancel")
	}
}
