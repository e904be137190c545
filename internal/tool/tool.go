// Package tool defines the uniform unit-of-work contract used by every
// pipeline stage. A Tool takes loosely typed params and returns a Result;
// the Run wrapper guarantees that no fault inside a tool ever escapes as
// a panic. Faults are always data.
package tool

import (
	"context"
	"fmt"
	"time"
)

// Status is the tri-state outcome of a tool execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure" // known precondition or domain failure
	StatusError   Status = "error"   // unexpected fault
)

// Result is the standardized tool execution result. Treat as immutable
// once returned.
type Result struct {
	Status        Status         `json:"status"`
	Data          any            `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// IsSuccess reports whether the execution succeeded.
func (r Result) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// IsFailure reports whether the execution failed or errored.
func (r Result) IsFailure() bool {
	return r.Status == StatusFailure || r.Status == StatusError
}

// Success builds a SUCCESS result carrying data.
func Success(data any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// Failuref builds a FAILURE result with a formatted message.
func Failuref(format string, args ...any) Result {
	return Result{Status: StatusFailure, Error: fmt.Sprintf(format, args...)}
}

// Errorf builds an ERROR result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// Metadata describes a tool for registration and listing.
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Tags        []string `json:"tags,omitempty"`
	// Safe is false for tools that execute code or write outside the
	// run directory. Unsafe tools are still listable; the flag exists so
	// callers can tell which tools may be instantiated with placeholder
	// config without side effects.
	Safe bool `json:"safe"`
}

// HasTag reports whether the metadata carries the given tag.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Params carries tool input parameters.
type Params map[string]any

// String returns the string value for key, or "" if absent or not a string.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Int returns the int value for key, or def if absent.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns the bool value for key, or false if absent.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Duration returns the duration value for key, or def if absent.
func (p Params) Duration(key string, def time.Duration) time.Duration {
	switch v := p[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Value returns the raw value for key.
func (p Params) Value(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Tool is a stateless unit of work. Implementations must be safe for
// concurrent use and must not retain references to params or results
// across calls.
type Tool interface {
	Meta() Metadata
	Execute(ctx context.Context, params Params) Result
}

// Run executes a tool through the single wrapping layer: it records the
// start time, recovers any panic into an ERROR result, stamps the
// execution duration, and merges the tool name into result metadata.
// Stages must always invoke tools through Run, never Execute directly.
func Run(ctx context.Context, t Tool, params Params) (res Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{
				Status: StatusError,
				Error:  fmt.Sprintf("tool panic: %v", rec),
			}
		}
		res.ExecutionTime = time.Since(start)
		if res.Metadata == nil {
			res.Metadata = make(map[string]any)
		}
		if _, ok := res.Metadata["tool"]; !ok {
			res.Metadata["tool"] = t.Meta().Name
		}
	}()
	return t.Execute(ctx, params)
}
