// Package server implements the TCP front end: one request per
// connection, dispatched through a worker pool to the key/value store
// (spec §6). The accept loop emulates the reference implementation's
// non-blocking accept: Go has no equivalent of setting O_NONBLOCK on a
// listening socket, so the loop instead gives every Accept call a short
// deadline of PollInterval and treats a deadline-exceeded error as the
// WouldBlock case, rechecking the shutdown flag after each one (spec §5).
package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/kvs/internal/pool"
	"github.com/iamNilotpal/kvs/internal/protocol"
	"github.com/iamNilotpal/kvs/pkg/options"
	"go.uber.org/zap"
)

// Store is the minimal key/value contract the server dispatches
// requests against. Both pkg/kvs.Store and internal/sledengine.Engine
// satisfy it, letting the server run against either engine variant
// named in spec §6's --engine flag without caring which one it is.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Server accepts connections on one TCP address and serves each with a
// single request/response exchange against a Store.
type Server struct {
	log          *zap.SugaredLogger
	listener     *net.TCPListener
	store        Store
	pool         pool.Pool
	pollInterval time.Duration

	shutdown atomic.Bool
	wg       sync.WaitGroup
}

// Config holds the parameters needed to build a Server.
type Config struct {
	Addr         string
	Store        Store
	Pool         pool.Pool
	Logger       *zap.SugaredLogger
	PollInterval time.Duration
}

// New binds addr and returns a Server ready to Serve.
func New(config *Config) (*Server, error) {
	if config == nil || config.Store == nil || config.Pool == nil || config.Logger == nil {
		return nil, fmt.Errorf("server: invalid configuration")
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", config.Addr)
	if err != nil {
		return nil, fmt.Errorf("server: resolve addr %q: %w", config.Addr, err)
	}

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("server: listen on %q: %w", config.Addr, err)
	}

	interval := config.PollInterval
	if interval <= 0 {
		interval = options.DefaultAcceptPollInterval
	}

	return &Server{
		log:          config.Logger,
		listener:     ln,
		store:        config.Store,
		pool:         config.Pool,
		pollInterval: interval,
	}, nil
}

// Addr returns the address the server is actually bound to, useful when
// Config.Addr used a ":0" ephemeral port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve runs the accept loop until Shutdown is called. It always
// returns nil on a clean shutdown.
func (s *Server) Serve() error {
	for {
		if s.shutdown.Load() {
			return nil
		}

		if err := s.listener.SetDeadline(time.Now().Add(s.pollInterval)); err != nil {
			if s.shutdown.Load() {
				return nil
			}
			return fmt.Errorf("server: set accept deadline: %w", err)
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// WouldBlock-equivalent: no connection arrived within the
				// poll interval. Loop back and recheck shutdown.
				continue
			}
			if s.shutdown.Load() {
				return nil
			}
			s.log.Errorw("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		s.pool.Submit(func() {
			defer s.wg.Done()
			s.handle(conn)
		})
	}
}

// handle serves exactly one request on conn, then closes it.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	req, err := protocol.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		s.log.Warnw("failed to read request", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	resp := s.dispatch(req)
	if err := protocol.WriteResponse(conn, resp); err != nil {
		s.log.Errorw("failed to write response", "remote", conn.RemoteAddr(), "error", err)
	}
}

func (s *Server) dispatch(req protocol.Request) protocol.Response {
	switch req.Op {
	case protocol.OpSet:
		if err := s.store.Set(req.Key, req.Value); err != nil {
			return protocol.ErrResponse(err.Error())
		}
		return protocol.OkResponse("")

	case protocol.OpGet:
		val, err := s.store.Get(req.Key)
		if err != nil {
			return protocol.ErrResponse(err.Error())
		}
		return protocol.OkResponse(val)

	case protocol.OpRemove:
		if err := s.store.Delete(req.Key); err != nil {
			return protocol.ErrResponse(err.Error())
		}
		return protocol.OkResponse("")

	default:
		return protocol.ErrResponse(fmt.Sprintf("unknown operation %q", req.Op))
	}
}

// Shutdown stops the accept loop, waits for every in-flight connection
// to finish, and closes the worker pool.
func (s *Server) Shutdown() error {
	s.shutdown.Store(true)
	if err := s.listener.Close(); err != nil {
		return fmt.Errorf("server: close listener: %w", err)
	}
	s.wg.Wait()
	return s.pool.Close()
}
