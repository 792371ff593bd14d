// Package cljhost hosts a Clojure runtime, running inside a JVM, from a
// Go process.
package cljhost

import "time"

const Version = "0.1.0"

// Metrics is the instrumentation surface shared by cljhost packages.
// The statsd-backed implementation lives in internal/util/statsd.
type Metrics interface {
	Incr(bucket string)
	Decr(bucket string)
	Count(bucket string, n any)
	Gauge(bucket string, v any)
	Duration(bucket string, d time.Duration)
	Histogram(bucket string, v any)
	Flush()
	WithPrefix(prefix string) Metrics
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) Incr(string)                    {}
func (NopMetrics) Decr(string)                    {}
func (NopMetrics) Count(string, any)              {}
func (NopMetrics) Gauge(string, any)              {}
func (NopMetrics) Duration(string, time.Duration) {}
func (NopMetrics) Histogram(string, any)          {}
func (NopMetrics) Flush()                         {}
func (NopMetrics) WithPrefix(string) Metrics      { return NopMetrics{} }
