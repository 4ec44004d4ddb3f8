package servex

import "bytes"

// ResponseWriter is how a Handler produces a response. The response is
// fully buffered and written once the handler returns: with one
// request per connection there is nothing to stream.
type ResponseWriter interface {
	// Header returns the response header map for the handler to fill
	// in before the first Write or WriteHeader.
	Header() Header
	// Write appends body bytes, implying WriteHeader(200) if no status
	// has been set.
	Write([]byte) (int, error)
	// WriteHeader sets the status code. Only the first call counts.
	WriteHeader(status int)
}

// responseBuffer collects the handler's status, headers and body for a
// single write to the connection.
type responseBuffer struct {
	hdr    Header
	status int
	wroteH bool
	body   bytes.Buffer
}

func (w *responseBuffer) Header() Header {
	if w.hdr == nil {
		w.hdr = Header{}
	}
	return w.hdr
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.wroteH {
		return
	}
	if status == 0 {
		status = 200
	}
	w.status = status
	w.wroteH = true
}

func (w *responseBuffer) Write(p []byte) (int, error) {
	if !w.wroteH {
		w.WriteHeader(200)
	}
	return w.body.Write(p)
}
