package wire

import (
	"bufio"
	"fmt"
	"strings"
)

// WriteResponse writes one complete HTTP/1.1 response and flushes it.
// Content-Length is set from body unless the caller supplied one, and
// Connection: close is always sent: the engine serves one request per
// connection. Header keys are written in canonical form; values are
// sanitized of CR, LF and control bytes.
func WriteResponse(bw *bufio.Writer, status int, reason string, header map[string]string, body []byte) error {
	if reason == "" {
		reason = StatusText(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return err
	}
	hasCL := false
	for k, v := range header {
		lk := strings.ToLower(k)
		if lk == "connection" {
			continue
		}
		if lk == "content-length" {
			hasCL = true
		}
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", canonicalKey(k), sanitizeHeaderValue(v)); err != nil {
			return err
		}
	}
	if !hasCL {
		if _, err := fmt.Fprintf(bw, "Content-Length: %d\r\n", len(body)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(bw, "Connection: close\r\n\r\n"); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// StatusText returns the conventional reason phrase for status, or an
// empty string for codes it does not know.
func StatusText(status int) string {
	switch status {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 411:
		return "Length Required"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 503:
		return "Service Unavailable"
	default:
		return ""
	}
}

// canonicalKey rewrites a header key as Canonical-Form: the first
// letter and each letter after a hyphen upper-cased, the rest lower.
// Requests store keys lower-cased; responses go out looking
// conventional.
func canonicalKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = c - 'a' + 'A'
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}

func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
