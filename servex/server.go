package servex

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"servex.dev/go/engine/internal/obs"
	"servex.dev/go/engine/servex/internal/wire"
	"servex.dev/go/engine/workpool"
)

// Handler maps a parsed request to a response.
type Handler interface {
	ServeHTTP(ResponseWriter, *Request)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ResponseWriter, *Request)

func (f HandlerFunc) ServeHTTP(w ResponseWriter, r *Request) {
	f(w, r)
}

const defaultWorkers = 4

// Server drives accepted connections through a fixed worker pool.
// Zero values pick defaults: 4 workers, 1 KiB read chunks, 64 KiB
// request cap, no logging, no metrics.
type Server struct {
	// Addr is the listen address for ListenAndServe. Defaults to
	// ":8080".
	Addr string
	// Handler produces responses. A nil Handler answers 404.
	Handler Handler
	// Workers fixes the pool size and thereby the hard bound on
	// concurrently handled connections.
	Workers int
	// ChunkSize bounds each blocking read from a connection.
	ChunkSize int
	// MaxRequestBytes caps one accumulated request.
	MaxRequestBytes int

	Logger obs.Logger
	Meter  obs.Meter

	mu       sync.Mutex
	pool     *workpool.Pool
	listener net.Listener
	closing  bool
}

// ListenAndServe listens on Addr and calls Serve.
func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections from l and submits each one to the worker
// pool. It returns ErrServerClosed after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrServerClosed
	}
	if s.pool == nil {
		n := s.Workers
		if n <= 0 {
			n = defaultWorkers
		}
		s.pool = workpool.New(n,
			workpool.WithLogger(s.logger()),
			workpool.WithMeter(s.meter()))
	}
	pool := s.pool
	s.listener = l
	s.mu.Unlock()

	for {
		c, err := l.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			return err
		}
		if _, err := pool.Submit(func() (any, error) {
			return nil, s.handleConn(c)
		}); err != nil {
			c.Close()
			return ErrServerClosed
		}
	}
}

// Shutdown closes the listener, stops the pool accepting work and
// waits for in-flight and queued connections to finish, or for ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	ln := s.listener
	pool := s.pool
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if pool == nil {
		return nil
	}
	pool.Shutdown()
	done := make(chan struct{})
	go func() {
		pool.Join()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// handleConn runs inside one pool worker: read a complete request,
// parse it, run the handler, write the response, close. Every failure
// path answers the client when it still can; none of them may take the
// worker down.
func (s *Server) handleConn(c net.Conn) error {
	defer c.Close()
	start := time.Now()
	bw := bufio.NewWriter(c)

	rd := &wire.Reader{Src: c, ChunkSize: s.ChunkSize, MaxMessageBytes: s.MaxRequestBytes}
	raw, err := rd.ReadMessage()
	if err != nil {
		s.meter().Counter("servex.conn.read_errors", 1)
		s.logger().Logf(obs.Debug, "%s: read: %v", c.RemoteAddr(), err)
		if len(raw) > 0 {
			// The peer sent something but never a complete message;
			// answer 400 best-effort before closing.
			_ = wire.WriteResponse(bw, 400, "", nil, nil)
		}
		return err
	}

	pr, err := wire.Parse(raw)
	if err != nil {
		s.meter().Counter("servex.conn.parse_errors", 1)
		s.logger().Logf(obs.Debug, "%s: parse: %v", c.RemoteAddr(), err)
		return wire.WriteResponse(bw, 400, "", nil, nil)
	}

	req := &Request{
		Method:     pr.Method,
		Path:       pr.Path,
		Version:    pr.Version,
		Header:     Header(pr.Header),
		Body:       pr.Body,
		RemoteAddr: c.RemoteAddr().String(),
	}
	s.meter().Counter("servex.requests", 1, obs.Label{Key: "method", Value: req.Method})

	rb := &responseBuffer{}
	switch {
	case requiresLength(req):
		rb.WriteHeader(411)
	default:
		s.invoke(rb, req)
	}
	if !rb.wroteH {
		rb.WriteHeader(200)
	}

	err = wire.WriteResponse(bw, rb.status, "", rb.hdr, rb.body.Bytes())
	s.meter().Histogram("servex.request_ms", float64(time.Since(start).Milliseconds()))
	return err
}

// invoke runs the handler, converting a panic into a 500 so the
// connection still gets a terminal response. The pool would survive
// the panic either way; the client would not get an answer.
func (s *Server) invoke(rb *responseBuffer, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			s.logger().Logf(obs.Error, "%s %s: handler panic: %v", req.Method, req.Path, r)
			s.meter().Counter("servex.handler_panics", 1)
			*rb = responseBuffer{}
			rb.WriteHeader(500)
		}
	}()
	h := s.Handler
	if h == nil {
		h = HandlerFunc(func(w ResponseWriter, r *Request) {
			w.WriteHeader(404)
		})
	}
	h.ServeHTTP(rb, req)
}

// requiresLength reports whether req must be answered with 411: a
// body-carrying method that declared no usable Content-Length.
func requiresLength(req *Request) bool {
	switch req.Method {
	case "POST", "PUT", "PATCH":
		return req.ContentLength() == 0 && len(req.Body) == 0
	}
	return false
}

func (s *Server) logger() obs.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return obs.NopLogger{}
}

func (s *Server) meter() obs.Meter {
	if s.Meter != nil {
		return s.Meter
	}
	return obs.NopMeter{}
}
