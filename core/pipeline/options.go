package pipeline

import "time"

// Option configures a Pipeline.
type Option func(*config)

// TelemetryMode controls telemetry collection (production-safe).
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Node, hook and replacement counts
	TelemetryTiming                      // Counts + per-pass hook time
)

// DebugLevel controls debug tracing (development only).
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Node enter/exit and replacements
	DebugDetailed                   // Every hook call
)

type config struct {
	telemetry TelemetryMode
	debug     DebugLevel
	maxDepth  int
}

// WithTelemetryBasic enables hook and node counters.
func WithTelemetryBasic() Option {
	return func(c *config) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables counters plus per-pass timing.
func WithTelemetryTiming() Option {
	return func(c *config) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths records node enter/exit and replacement events.
func WithDebugPaths() Option {
	return func(c *config) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed records every hook call.
func WithDebugDetailed() Option {
	return func(c *config) {
		c.debug = DebugDetailed
	}
}

// WithMaxDepth bounds template nesting; zero means unbounded. Exceeding it
// fails the compile with a syntax error instead of exhausting the stack.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// Telemetry holds execution metrics (production-safe).
type Telemetry struct {
	NodesVisited int
	HookCalls    int
	Replacements int
	Restarts     int
	MaxDepth     int
	TotalTime    time.Duration
	PassTime     map[string]time.Duration // only with TelemetryTiming
}

// DebugEvent holds debug tracing information (development only).
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter", "exit", "before", "after", "replace", "restart", "skip"
	Pass      string
	Node      string // node kind
	Depth     int
	Context   string
}
