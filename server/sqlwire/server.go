package sqlwire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/prymochenkovictoria/sql-create-parser/internal/sql/parser"
)

type Options struct {
	Addr string
	// CacheSize is the number of distinct statements whose results are kept.
	// 0 disables the cache.
	CacheSize int
	// Timeout closes a connection that sends no request for this long.
	// 0 means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Server answers ParseRequest frames over TCP, one goroutine per connection.
type Server struct {
	opts  Options
	log   *slog.Logger
	cache *lru.Cache[string, result]
}

// result is what the cache holds: never mutated after creation.
type result struct {
	schema *TableSchema
	kind   string
	err    string
}

func (r result) response(id uint64) ParseResponse {
	return ParseResponse{ID: id, Schema: r.schema, Kind: r.kind, Error: r.err}
}

func NewServer(opts Options) (*Server, error) {
	s := &Server{opts: opts, log: opts.Logger}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("sqlwire: cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// ListenAndServe listens on Options.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes ln and waits
// for open connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer func() { _ = ln.Close() }()

	s.log.Info("sqlwire: listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			delay = acceptBackoff(delay)
			s.log.Warn("sqlwire: accept", "err", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// acceptBackoff doubles the previous delay, starting at 5ms and capped at 1s.
func acceptBackoff(prev time.Duration) time.Duration {
	const maxDelay = time.Second
	if prev == 0 {
		return 5 * time.Millisecond
	}
	if prev *= 2; prev > maxDelay {
		return maxDelay
	}
	return prev
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	remote := conn.RemoteAddr().String()
	s.log.Debug("sqlwire: connection opened", "remote", remote)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		if s.opts.Timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.Timeout))
		}

		var req ParseRequest
		if err := ReadFrame(conn, &req); err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.log.Debug("sqlwire: connection closed", "remote", remote, "err", err)
			}
			return
		}

		resp := s.handle(req)
		if err := WriteFrame(conn, resp); err != nil {
			s.log.Warn("sqlwire: write response", "remote", remote, "id", req.ID, "err", err)
			return
		}
	}
}

func (s *Server) handle(req ParseRequest) ParseResponse {
	if s.cache != nil {
		if r, ok := s.cache.Get(req.SQL); ok {
			s.log.Debug("sqlwire: cache hit", "id", req.ID)
			return r.response(req.ID)
		}
	}

	r := parse(req.SQL)
	if r.err != "" {
		s.log.Debug("sqlwire: parse failed", "id", req.ID, "kind", r.kind, "err", r.err)
	}
	if s.cache != nil {
		s.cache.Add(req.SQL, r)
	}
	return r.response(req.ID)
}

func parse(sql string) result {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return result{kind: ErrorKind(err), err: err.Error()}
	}
	return result{schema: SchemaFromStmt(stmt)}
}
