package servex

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func startServer(t *testing.T, h Handler, cfg func(*Server)) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{Handler: h, Workers: 2}
	if cfg != nil {
		cfg(s)
	}
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, ln.Addr().String()
}

// roundTrip writes raw request bytes and returns the full response.
func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	if _, err := c.Write([]byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return string(resp)
}

func TestServer_GET(t *testing.T) {
	h := HandlerFunc(func(w ResponseWriter, r *Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(200)
		w.Write([]byte("hello " + r.Path))
	})
	_, addr := startServer(t, h, nil)

	resp := roundTrip(t, addr, "GET /a HTTP/1.1\r\nHost: x\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line: %q", resp)
	}
	if !strings.Contains(resp, "Connection: close\r\n") {
		t.Fatalf("missing Connection: close: %q", resp)
	}
	if !strings.HasSuffix(resp, "\r\n\r\nhello /a") {
		t.Fatalf("body: %q", resp)
	}
}

func TestServer_POSTBodyReachesHandler(t *testing.T) {
	var got atomic.Value
	h := HandlerFunc(func(w ResponseWriter, r *Request) {
		got.Store(string(r.Body))
		w.WriteHeader(201)
	})
	_, addr := startServer(t, h, nil)

	resp := roundTrip(t, addr, "POST /x HTTP/1.1\r\nContent-Length: 4\r\n\r\nabcd")
	if !strings.HasPrefix(resp, "HTTP/1.1 201 Created\r\n") {
		t.Fatalf("status line: %q", resp)
	}
	if got.Load() != "abcd" {
		t.Fatalf("handler saw body %q", got.Load())
	}
}

func TestServer_SplitWritesAssembleOneRequest(t *testing.T) {
	h := HandlerFunc(func(w ResponseWriter, r *Request) {
		w.Write(r.Body)
	})
	_, addr := startServer(t, h, nil)

	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	for _, part := range []string{"POST /e HT", "TP/1.1\r\nContent-Le", "ngth: 6\r\n\r\nabc", "def"} {
		if _, err := c.Write([]byte(part)); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	resp, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.HasSuffix(string(resp), "\r\n\r\nabcdef") {
		t.Fatalf("echoed body: %q", resp)
	}
}

func TestServer_MalformedRequestLineGets400(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	resp := roundTrip(t, addr, "GARBAGE\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 400 Bad Request\r\n") {
		t.Fatalf("status line: %q", resp)
	}
}

func TestServer_IncompleteRequestGets400(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := c.Write([]byte("GET /partial HTT")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Half-close our side so the server's read sees EOF.
	if cw, ok := c.(*net.TCPConn); ok {
		_ = cw.CloseWrite()
	}
	resp, _ := io.ReadAll(c)
	c.Close()
	if !strings.HasPrefix(string(resp), "HTTP/1.1 400 Bad Request\r\n") {
		t.Fatalf("status line: %q", resp)
	}
}

func TestServer_NilHandlerAnswers404(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	resp := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("status line: %q", resp)
	}
}

func TestServer_POSTWithoutLengthGets411(t *testing.T) {
	h := HandlerFunc(func(w ResponseWriter, r *Request) {
		w.WriteHeader(200)
	})
	_, addr := startServer(t, h, nil)
	resp := roundTrip(t, addr, "POST /x HTTP/1.1\r\nHost: a\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 411 Length Required\r\n") {
		t.Fatalf("status line: %q", resp)
	}
}

func TestServer_HandlerPanicAnswers500(t *testing.T) {
	h := HandlerFunc(func(w ResponseWriter, r *Request) {
		panic("handler bug")
	})
	_, addr := startServer(t, h, nil)

	resp := roundTrip(t, addr, "GET /boom HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Fatalf("status line: %q", resp)
	}
	// The worker survived: the next request is served normally.
	resp = roundTrip(t, addr, "GET /boom HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Fatalf("second request status line: %q", resp)
	}
}

func TestServer_ShutdownReturnsErrServerClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{Workers: 1}
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	// Give Serve a moment to enter Accept.
	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-served:
		if !errors.Is(err, ErrServerClosed) {
			t.Fatalf("Serve returned %v, want ErrServerClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestServer_DuplicateHeadersLastWins(t *testing.T) {
	var got atomic.Value
	h := HandlerFunc(func(w ResponseWriter, r *Request) {
		got.Store(r.Header.Get("X-A"))
	})
	_, addr := startServer(t, h, nil)
	roundTrip(t, addr, "GET / HTTP/1.1\r\nX-A: 1\r\nX-A: 2\r\n\r\n")
	if got.Load() != "2" {
		t.Fatalf("x-a = %q, want %q", got.Load(), "2")
	}
}
