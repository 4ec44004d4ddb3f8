package servex

import "strings"

// Header maps lower-cased keys to values. Lookups and mutations fold
// the key, so Get("Content-Length") and Get("content-length") agree;
// a duplicate key on the wire resolves to its last occurrence.
type Header map[string]string

// Get returns the value stored under key, or "" when absent.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Set stores value under key, replacing any previous value.
func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[strings.ToLower(key)] = value
}

// Del removes key.
func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, strings.ToLower(key))
}

// Has reports whether key is present, even with an empty value.
func (h Header) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h[strings.ToLower(key)]
	return ok
}
