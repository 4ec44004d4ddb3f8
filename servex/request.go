package servex

// Request is the immutable structured view of one complete request.
// Header keys are lower-cased; Body holds at most the declared
// Content-Length bytes, never padded.
type Request struct {
	Method  string
	Path    string
	Version string
	Header  Header
	Body    []byte
	// RemoteAddr is the peer address of the connection the request
	// arrived on.
	RemoteAddr string
}

// ContentLength returns the declared Content-Length, or 0 when absent
// or unparseable.
func (r *Request) ContentLength() int {
	n := 0
	for _, c := range []byte(r.Header.Get("Content-Length")) {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
