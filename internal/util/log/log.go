// Package logutil configures cljhost loggers from a cli context.
package logutil

import (
	"io"

	"github.com/google/uuid"
	"github.com/lthibault/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/wetware/cljhost"
)

// New logger from a cli context.  The first call binds the logger to the
// application, and subsequent calls return it.  Each invocation of the
// application is tagged with a random session ID and the name of the JVM
// backend.
func New(c *cli.Context) log.Logger {
	if logger := get(c); logger != nil {
		return logger
	}

	return bind(c)
}

// WithLevel returns a log.Option that configures a logger's level.
// Logging is limited to fatal errors when the format is "none".
func WithLevel(c *cli.Context) log.Option {
	if c.String("logfmt") == "none" {
		return log.WithLevel(log.FatalLevel)
	}

	return level(c.String("loglvl"))
}

func level(name string) log.Option {
	switch name {
	case "trace", "t":
		return log.WithLevel(log.TraceLevel)
	case "debug", "d":
		return log.WithLevel(log.DebugLevel)
	case "warn", "warning", "w":
		return log.WithLevel(log.WarnLevel)
	case "error", "err", "e":
		return log.WithLevel(log.ErrorLevel)
	case "fatal", "f":
		return log.WithLevel(log.FatalLevel)
	}

	return log.WithLevel(log.InfoLevel)
}

// WithFormat returns an option that configures a logger's format.
func WithFormat(c *cli.Context) log.Option {
	switch c.String("logfmt") {
	case "none":
		return log.WithFormatter(nil)
	case "json":
		return log.WithFormatter(&logrus.JSONFormatter{
			PrettyPrint: c.Bool("prettyprint"),
		})
	}

	return log.WithFormatter(new(logrus.TextFormatter))
}

// withWriter sends logs to the application's ErrWriter, keeping stdout
// free for command output.
func withWriter(c *cli.Context) log.Option {
	if c.String("logfmt") == "none" {
		return log.WithWriter(io.Discard)
	}

	return log.WithWriter(c.App.ErrWriter)
}

// key with random component to avoid collision
const key = "cljhost.util.log:q7#Vd}e@X2m/0Lr!"

func bind(c *cli.Context) log.Logger {
	logger := log.New(
		WithLevel(c),
		WithFormat(c),
		withWriter(c)).
		WithField("version", cljhost.Version).
		WithField("session", uuid.NewString())

	if vm := c.String("vm"); vm != "" {
		logger = logger.WithField("vm", vm)
	}

	c.App.Metadata[key] = func() log.Logger {
		return logger
	}

	return logger
}

func get(c *cli.Context) log.Logger {
	if logger, ok := c.App.Metadata[key].(func() log.Logger); ok {
		return logger()
	}

	return nil
}
