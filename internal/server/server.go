// Package server runs a dry-run cluster proxy front end. It accepts RESP
// clients, classifies every request, and answers with the routing decision
// instead of forwarding anything to a backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cosmez/keyparse-go/internal/cluster"
	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/config"
	"github.com/cosmez/keyparse-go/internal/conn"
	"github.com/cosmez/keyparse-go/internal/resp"
)

// Server is the diagnostic endpoint.
type Server struct {
	cfg     *config.Config
	log     *logrus.Logger
	alloc   *command.Allocator
	parser  command.Parser
	metrics *Metrics

	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	listener   net.Listener
	conns      map[int64]*conn.Connection
	nextConnID atomic.Int64
}

// New creates a Server from cfg. A nil logger logs to logrus' standard logger.
func New(cfg *config.Config, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		cfg:     cfg,
		log:     logger,
		alloc:   command.NewAllocator(),
		parser:  command.Parser{MaxKeys: cfg.MaxKeys},
		metrics: NewMetrics(),
		conns:   make(map[int64]*conn.Connection),
	}
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Live reports commands not yet released.
func (s *Server) Live() int64 { return s.alloc.Live() }

// Serve listens on the configured address and serves until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: failed to listen: %w", err)
	}
	if s.cfg.MetricsAddr != "" {
		stop, err := s.serveMetrics(s.cfg.MetricsAddr)
		if err != nil {
			ln.Close()
			return err
		}
		defer stop()
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: failed to listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("metrics endpoint stopped")
		}
	}()
	s.log.WithField("addr", ln.Addr().String()).Info("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

// ServeListener accepts connections on ln until ctx is done or Close is
// called. It returns nil on a clean shutdown.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.WithField("addr", ln.Addr().String()).Info("keyparse listening")

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		nc, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.WithError(err).Warn("failed to accept connection")
			continue
		}

		id := s.nextConnID.Add(1)
		cn := conn.New(nc, s.cfg.MaxRequestBytes, s.cfg.IdleTimeout.Duration)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			cn.Close()
			return nil
		}
		s.conns[id] = cn
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, id)
				s.mu.Unlock()
			}()
			s.handleConnection(id, cn)
		}()
	}
}

// Close stops accepting, closes every client connection and waits for the
// connection goroutines to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return nil
	}
	s.closed = true
	listener := s.listener
	for _, cn := range s.conns {
		cn.Close()
	}
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) handleConnection(id int64, cn *conn.Connection) {
	entry := s.log.WithFields(logrus.Fields{"conn_id": id, "remote": cn.RemoteAddr()})
	entry.Info("connection accepted")
	s.metrics.connections.Inc()
	defer func() {
		cn.Close()
		s.metrics.connections.Dec()
		entry.Info("connection closed")
	}()

	for {
		raw, err := cn.ReadRequest()
		if err != nil {
			s.readFailed(entry, cn, err)
			return
		}

		c := s.process(entry, raw)
		reply, _ := c.Reply.(resp.RedisValue)
		werr := cn.WriteValue(reply)
		quit := c.Result == command.ResultOK && c.Quit
		if err := s.alloc.Release(c); err != nil {
			entry.WithError(err).Error("failed to release command")
		}
		if werr != nil {
			entry.WithError(werr).Debug("write failed")
			return
		}
		if quit {
			return
		}
	}
}

func (s *Server) readFailed(entry *logrus.Entry, cn *conn.Connection, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.Is(err, conn.ErrProtocol), errors.Is(err, conn.ErrTooLarge):
		s.metrics.protocol.Inc()
		entry.WithError(err).Warn("dropping connection")
		cn.WriteValue(resp.RedisError{Value: "ERR Protocol error: " + err.Error()})
	case errors.As(err, &ne) && ne.Timeout():
		entry.Debug("idle timeout")
	default:
		entry.WithError(err).Warn("read failed")
	}
}

// Handle classifies and routes one request and returns the reply the server
// would send, and whether the connection would be closed afterwards.
func (s *Server) Handle(raw []byte) (resp.RedisValue, bool) {
	c := s.process(s.log.WithField("conn_id", 0), raw)
	reply, _ := c.Reply.(resp.RedisValue)
	quit := c.Result == command.ResultOK && c.Quit
	_ = s.alloc.Release(c)
	return reply, quit
}

// process parses and routes raw and attaches the reply to the returned
// command, which the caller must release.
func (s *Server) process(entry *logrus.Entry, raw []byte) *command.Command {
	c := s.alloc.New(raw)

	if err := s.parser.Parse(c); err != nil {
		fields := logrus.Fields{
			"cmd_id": c.ID,
			"type":   c.Err.Type.String(),
			"state":  c.Err.State.String(),
			"offset": c.Err.Offset,
		}
		if errors.Is(err, command.ErrOutOfMemory) {
			s.metrics.requests.WithLabelValues(c.Type.String(), outcomeOOM).Inc()
			entry.WithFields(fields).Warn("key list exhausted")
			c.AttachReply(resp.RedisError{Value: "ERR too many keys"})
			return c
		}
		s.metrics.requests.WithLabelValues(c.Type.String(), outcomeParseError).Inc()
		entry.WithFields(fields).Warn(c.Err.Reason)
		c.AttachReply(resp.RedisError{Value: "ERR " + c.Diagnostic()})
		return c
	}
	s.metrics.keys.Observe(float64(len(c.Keys)))

	if c.NoForward {
		s.metrics.requests.WithLabelValues(c.Type.String(), outcomeLocal).Inc()
		c.AttachReply(localReply(c))
		return c
	}

	err := cluster.Assign(c)
	if errors.Is(err, cluster.ErrCrossSlot) && s.cfg.SplitMultiKey {
		err = cluster.Split(s.alloc, &s.parser, c)
		if err == nil {
			s.metrics.splits.Add(float64(len(c.SubCommands)))
		}
	}
	if err != nil {
		s.metrics.requests.WithLabelValues(c.Type.String(), outcomeCrossSlot).Inc()
		entry.WithFields(logrus.Fields{"cmd_id": c.ID, "type": c.Type.String()}).WithError(err).Debug("unroutable request")
		c.AttachReply(resp.RedisError{Value: "CROSSSLOT Keys in request don't hash to the same slot"})
		return c
	}

	s.metrics.requests.WithLabelValues(c.Type.String(), outcomeRouted).Inc()
	c.AttachReply(routingReply(c))
	return c
}

func localReply(c *command.Command) resp.RedisValue {
	if c.Type == command.TypePing {
		return resp.RedisString{Value: "PONG"}
	}
	return resp.RedisString{Value: "OK"}
}

// routingReply lists one [slot, type, key...] entry per routed unit: the
// sub-commands of a split request, or the request itself.
func routingReply(c *command.Command) resp.RedisValue {
	units := c.SubCommands
	if len(units) == 0 {
		units = []*command.Command{c}
	}
	out := resp.RedisArray{Values: make([]resp.RedisValue, 0, len(units))}
	for _, u := range units {
		entry := make([]resp.RedisValue, 0, 2+len(u.Keys))
		entry = append(entry, resp.RedisInteger{IntValue: int64(u.Slot)}, resp.Bulk(u.Type.String()))
		for _, k := range u.KeyBytes() {
			entry = append(entry, resp.Bulk(string(k)))
		}
		out.Values = append(out.Values, resp.RedisArray{Values: entry})
	}
	return out
}
