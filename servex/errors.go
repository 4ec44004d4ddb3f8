package servex

import "errors"

// ErrServerClosed is returned by Serve and ListenAndServe after
// Shutdown has closed the listener.
var ErrServerClosed = errors.New("servex: server closed")
