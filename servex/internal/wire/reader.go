package wire

import (
	"bytes"
	"errors"
	"io"
)

var (
	// ErrStreamClosed reports that the connection closed before a
	// complete message was accumulated.
	ErrStreamClosed = errors.New("wire: stream closed before message complete")
	// ErrMessageTooLarge reports that the accumulated message exceeded
	// the configured cap.
	ErrMessageTooLarge = errors.New("wire: message too large")
)

// ReadState tracks the reader's progress through one message.
type ReadState int

const (
	StateAwaitingHeaders ReadState = iota
	StateHeadersComplete
	StateBodyComplete
	StateAbortedOnClose
	StateAbortedOnError
)

func (s ReadState) String() string {
	switch s {
	case StateAwaitingHeaders:
		return "awaiting-headers"
	case StateHeadersComplete:
		return "headers-complete"
	case StateBodyComplete:
		return "body-complete"
	case StateAbortedOnClose:
		return "aborted-on-close"
	case StateAbortedOnError:
		return "aborted-on-error"
	default:
		return "unknown"
	}
}

const (
	defaultChunkSize       = 1024
	defaultMaxMessageBytes = 64 << 10
)

// Reader accumulates one HTTP/1.1 request from a byte stream delivered
// in arbitrarily sized chunks. It performs bounded blocking reads,
// detects the header terminator, derives the expected total length
// from Content-Length, and stops once that many bytes are buffered.
// One Reader reads one message; pipelining is unsupported and bytes
// past the expected length are discarded.
type Reader struct {
	Src io.Reader
	// ChunkSize bounds each blocking read. Defaults to 1024.
	ChunkSize int
	// MaxMessageBytes caps the accumulated buffer. Defaults to 64 KiB.
	MaxMessageBytes int

	state    ReadState
	buf      []byte
	expected int
}

// State returns the reader's current state.
func (r *Reader) State() ReadState { return r.state }

// ReadMessage blocks until one complete message has been accumulated
// and returns it. On failure it returns the bytes accumulated so far
// together with the error: ErrStreamClosed when the stream ended
// early, ErrMessageTooLarge when the cap was hit, or the underlying
// read error.
func (r *Reader) ReadMessage() ([]byte, error) {
	chunk := make([]byte, r.chunkSize())
	for r.state != StateBodyComplete {
		n, err := r.Src.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
			if len(r.buf) > r.maxMessageBytes() {
				r.state = StateAbortedOnError
				return r.buf, ErrMessageTooLarge
			}
			r.advance()
			if r.state == StateBodyComplete {
				break
			}
		}
		if err != nil {
			if err == io.EOF {
				r.state = StateAbortedOnClose
				return r.buf, ErrStreamClosed
			}
			r.state = StateAbortedOnError
			return r.buf, err
		}
		if n == 0 {
			// A zero-length read with no error counts as close,
			// matching the recv() <= 0 contract of the byte-stream
			// abstraction.
			r.state = StateAbortedOnClose
			return r.buf, ErrStreamClosed
		}
	}
	return r.buf[:r.expected], nil
}

// advance moves the state machine forward after new bytes arrived.
func (r *Reader) advance() {
	if r.state == StateAwaitingHeaders {
		end, ok := headerEnd(r.buf)
		if !ok {
			return
		}
		r.state = StateHeadersComplete
		r.expected = end + provisionalContentLength(r.buf[:end])
	}
	if r.state == StateHeadersComplete && len(r.buf) >= r.expected {
		r.state = StateBodyComplete
	}
}

func (r *Reader) chunkSize() int {
	if r.ChunkSize > 0 {
		return r.ChunkSize
	}
	return defaultChunkSize
}

func (r *Reader) maxMessageBytes() int {
	if r.MaxMessageBytes > 0 {
		return r.MaxMessageBytes
	}
	return defaultMaxMessageBytes
}

// headerEnd locates the header terminator and returns the offset just
// past it. CRLF CRLF is the wire form; bare LF LF is tolerated because
// the parser tolerates bare-LF lines.
func headerEnd(buf []byte) (int, bool) {
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))
	lf := bytes.Index(buf, []byte("\n\n"))
	switch {
	case crlf < 0 && lf < 0:
		return 0, false
	case crlf < 0:
		return lf + 2, true
	case lf < 0 || crlf < lf:
		return crlf + 4, true
	default:
		return lf + 2, true
	}
}

// provisionalContentLength parses the header block just far enough to
// learn how many body bytes to expect. Absent, non-numeric or negative
// Content-Length values and methods that do not conventionally carry a
// body all yield 0 (lenient policy). A header block that fails even
// the start-line parse also yields 0; the full parse reports the
// malformation after the read completes.
func provisionalContentLength(header []byte) int {
	req, err := Parse(header)
	if err != nil {
		return 0
	}
	if !methodCarriesBody(req.Method) {
		return 0
	}
	return declaredContentLength(req.Header)
}
