package statsdutil_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/lthibault/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statsdutil "github.com/wetware/cljhost/internal/util/statsd"
)

type env map[string]string

func (e env) IsSet(key string) bool    { _, ok := e[key]; return ok }
func (e env) String(key string) string { return e[key] }

func (e env) Float64(key string) float64 {
	f, _ := strconv.ParseFloat(e[key], 64)
	return f
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		env  env
	}{
		{name: "Default", env: env{}},
		{name: "Rate", env: env{"statsd-rate": "1"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m := statsdutil.New(tt.env, log.New(log.WithLevel(log.FatalLevel)))

			sm, ok := m.(statsdutil.Metrics)
			require.True(t, ok, "should return a statsd client")
			defer sm.Close()

			assert.NotPanics(t, func() {
				m.Incr("invoke.arity.2")
				m.Duration("invoke", time.Millisecond)
				m.Duration("boot.vm", time.Second)
				m.Count("invoke.arity.0", 3)
				m.Decr("repl")
				m.WithPrefix("boot.").Gauge("vm", 1)
				m.WithPrefix("embedded.").Incr("invoke")
				m.Flush()
			}, "muted client should discard metrics")
		})
	}
}
