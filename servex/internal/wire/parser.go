package wire

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedStartLine reports a request line that could not be
// tokenized into at least a method and a path.
var ErrMalformedStartLine = errors.New("wire: malformed request line")

// ParsedRequest is the structured decomposition of one complete raw
// request. Header keys are stored lower-cased; duplicate keys resolve
// to the last occurrence. Body holds at most the declared
// Content-Length bytes, clipped to what was actually present.
type ParsedRequest struct {
	Method  string
	Path    string
	Version string
	Header  map[string]string
	Body    []byte
}

// Parse decomposes a complete raw message into a ParsedRequest.
//
// The request line is whitespace-tokenized: an empty method or path is
// fatal, a missing version is not. Header lines split on the first
// colon with key and value trimmed of spaces and tabs; colonless lines
// are skipped. The body is taken only for methods that conventionally
// carry one, with length equal to the declared Content-Length clipped
// to the bytes present — short buffers yield the truncated prefix and
// an unparseable Content-Length counts as 0 (lenient policy).
func Parse(raw []byte) (*ParsedRequest, error) {
	head := raw
	var rest []byte
	if end, ok := headerEnd(raw); ok {
		head = raw[:end]
		rest = raw[end:]
	}

	lines := splitLines(head)
	if len(lines) == 0 {
		return nil, ErrMalformedStartLine
	}
	method, path, version, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	header := make(map[string]string)
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		key := strings.ToLower(strings.Trim(line[:i], " \t"))
		if key == "" {
			continue
		}
		header[key] = strings.Trim(line[i+1:], " \t")
	}

	var body []byte
	if methodCarriesBody(method) {
		n := declaredContentLength(header)
		if n > len(rest) {
			n = len(rest)
		}
		body = rest[:n]
	}

	return &ParsedRequest{
		Method:  method,
		Path:    path,
		Version: version,
		Header:  header,
		Body:    body,
	}, nil
}

func parseRequestLine(line string) (method, path, version string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", "", ErrMalformedStartLine
	}
	method, path = fields[0], fields[1]
	if len(fields) >= 3 {
		version = fields[2]
	}
	return method, path, version, nil
}

// splitLines splits the header block on LF, dropping a trailing CR
// from each line so CRLF and bare-LF requests parse identically.
func splitLines(head []byte) []string {
	parts := bytes.Split(head, []byte("\n"))
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, string(bytes.TrimSuffix(p, []byte("\r"))))
	}
	return lines
}

// methodCarriesBody reports whether method conventionally carries a
// request body.
func methodCarriesBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// declaredContentLength returns the Content-Length declared in header,
// or 0 when absent, non-numeric or negative.
func declaredContentLength(header map[string]string) int {
	v, ok := header["content-length"]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
