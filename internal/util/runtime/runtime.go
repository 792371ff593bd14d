package runtimeutil

import (
	"context"

	"github.com/lthibault/log"
	"github.com/urfave/cli/v2"

	"github.com/wetware/cljhost"
	"github.com/wetware/cljhost/internal/runtime"
	logutil "github.com/wetware/cljhost/internal/util/log"
	statsdutil "github.com/wetware/cljhost/internal/util/statsd"
)

func New(c *cli.Context) runtime.Env {
	logging := logutil.New(c)
	metrics := statsdutil.New(c, logging)

	return env{
		flags:   c,
		logging: logging,
		metrics: metrics,
	}
}

type env struct {
	flags
	logging log.Logger
	metrics cljhost.Metrics
}

func (env env) App() *cli.App {
	return env.flags.(*cli.Context).App
}

func (env env) Context() context.Context {
	return env.flags.(*cli.Context).Context
}

func (env env) Log() log.Logger {
	return env.logging
}

func (env env) Metrics() cljhost.Metrics {
	return env.metrics
}

type flags interface {
	Bool(string) bool
	IsSet(string) bool
	Path(string) string
	String(string) string
	StringSlice(string) []string
}
