// Package statsdutil reports cljhost metrics to a statsd server.
package statsdutil

import (
	"strings"
	"time"

	"github.com/lthibault/log"
	"gopkg.in/alexcesaro/statsd.v2"

	"github.com/wetware/cljhost"
)

// DefaultRate is the sample rate applied to per-call buckets.
const DefaultRate = .1

type Env interface {
	IsSet(string) bool
	String(string) string
	Float64(string) float64
}

// Metrics reports to statsd.  Buckets under "invoke" are emitted on
// every call into the runtime, and are sampled; all other buckets, such
// as boot timings, are sent unsampled.
type Metrics struct {
	*statsd.Client
	calls *statsd.Client
}

// New statsd client.  The client is muted unless the "statsd" flag is
// set.  The "statsd-rate" flag overrides DefaultRate.
func New(env Env, log log.Logger) cljhost.Metrics {
	c, err := statsd.New(
		addr(env),
		muted(env),
		logger(env, log),
		statsd.Prefix("cljhost"),
		statsd.FlushPeriod(time.Millisecond*250))
	if err != nil {
		log.WithError(err).
			Warn("setup failed for statsd metrics")
		return cljhost.NopMetrics{}
	}

	return Metrics{
		Client: c,
		calls:  c.Clone(statsd.SampleRate(rate(env))),
	}
}

func (m Metrics) Incr(bucket string) {
	m.client(bucket).Increment(bucket)
}

func (m Metrics) Decr(bucket string) {
	m.client(bucket).Count(bucket, -1)
}

func (m Metrics) Count(bucket string, n any) {
	m.client(bucket).Count(bucket, n)
}

func (m Metrics) Duration(bucket string, d time.Duration) {
	m.client(bucket).Timing(bucket, d.Milliseconds())
}

func (m Metrics) WithPrefix(prefix string) cljhost.Metrics {
	return Metrics{
		Client: m.Client.Clone(statsd.Prefix(prefix)),
		calls:  m.calls.Clone(statsd.Prefix(prefix)),
	}
}

func (m Metrics) client(bucket string) *statsd.Client {
	if strings.HasPrefix(bucket, "invoke") {
		return m.calls
	}

	return m.Client
}

func addr(env Env) statsd.Option {
	if env.IsSet("statsd") {
		return statsd.Address(env.String("statsd"))
	}

	return statsd.Address(":8125")
}

func rate(env Env) float32 {
	if env.IsSet("statsd-rate") {
		return float32(env.Float64("statsd-rate"))
	}

	return DefaultRate
}

func logger(env Env, log log.Logger) statsd.Option {
	return statsd.ErrorHandler(func(err error) {
		log.WithError(err).
			WithField("statsd", env.String("statsd")).
			Warn("failed to send metrics")
	})
}

func muted(env Env) statsd.Option {
	return statsd.Mute(!env.IsSet("statsd"))
}
