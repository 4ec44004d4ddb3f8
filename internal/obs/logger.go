package obs

import "log"

// Level orders log lines by severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the hook the engine and the pool log through.
// Implementations must be safe for concurrent use.
type Logger interface {
	Logf(level Level, format string, args ...any)
}

// NopLogger discards all lines.
type NopLogger struct{}

func (NopLogger) Logf(Level, string, ...any) {}

// StdLogger writes lines at or above Min through a standard library
// logger. A nil L discards everything.
type StdLogger struct {
	L   *log.Logger
	Min Level
}

func (s StdLogger) Logf(level Level, format string, args ...any) {
	if s.L == nil || level < s.Min {
		return
	}
	s.L.Printf("[%s] "+format, append([]any{level.String()}, args...)...)
}
