// Package repl contains the `cljhost repl` command implementation.
package repl

import (
	"context"

	"github.com/thejerf/suture/v4"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/wetware/cljhost/internal/cmd"
	"github.com/wetware/cljhost/internal/runtime"
	runtimeutil "github.com/wetware/cljhost/internal/util/runtime"
	"github.com/wetware/cljhost/pkg/bootstrap"
)

var flags = append([]cli.Flag{
	&cli.IntFlag{
		Name:        "port",
		Aliases:     []string{"p"},
		Usage:       "listen on `port`",
		DefaultText: "random",
		EnvVars:     []string{"CLJHOST_REPL_PORT"},
	},
	&cli.StringFlag{
		Name:        "bind",
		Usage:       "bind to `addr`, e.g. 0.0.0.0",
		DefaultText: "localhost",
		EnvVars:     []string{"CLJHOST_REPL_BIND"},
	},
	&cli.StringSliceFlag{
		Name:  "param",
		Usage: "pass `key=value` to the server",
	},
	&cli.BoolFlag{
		Name:  "load-user-clj",
		Usage: "evaluate ./user.clj before starting the server",
	},
	&cli.BoolFlag{
		Name:  "kill-vm-after",
		Usage: "destroy the jvm when the server stops",
	},
	cmd.ClasspathArgsFlag(),
}, cmd.VersionFlags()...)

// Command constructor
func Command() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "start an embedded nrepl server",
		Flags:  flags,
		Action: run(),
	}
}

func run() cli.ActionFunc {
	return func(c *cli.Context) error {
		opt, err := options(c)
		if err != nil {
			return err
		}

		return runtime.Serve(runtimeutil.New(c),
			fx.Supply(opt),
			fx.Provide(newServer(c)))
	}
}

func options(c *cli.Context) (bootstrap.REPLOptions, error) {
	params, err := cmd.ParseParams(c.StringSlice("param"))
	if err != nil {
		return bootstrap.REPLOptions{}, err
	}

	if c.IsSet("port") {
		params["port"] = int64(c.Int("port"))
	}

	if c.IsSet("bind") {
		params["bind"] = c.String("bind")
	}

	return bootstrap.REPLOptions{
		Versions:    cmd.Versions(c),
		LoadUserCLJ: c.Bool("load-user-clj"),
		StartREPL:   true,
		KillVMAfter: c.Bool("kill-vm-after"),
		Params:      params,
	}, nil
}

type service struct {
	fx.Out

	Service suture.Service `group:"services"`
}

func newServer(c *cli.Context) func(bootstrap.Config, bootstrap.REPLOptions, *runtime.Outcome) service {
	return func(cfg bootstrap.Config, opt bootstrap.REPLOptions, out *runtime.Outcome) service {
		cfg.ClasspathArgs = cmd.ClasspathArgs(c)

		return service{
			Service: server{cfg: cfg, opt: opt, out: out},
		}
	}
}

// server runs the nREPL server.  The JVM cannot be restarted, so the
// server is never restarted either.
type server struct {
	cfg bootstrap.Config
	opt bootstrap.REPLOptions
	out *runtime.Outcome
}

func (s server) String() string { return "nrepl" }

func (s server) Serve(ctx context.Context) error {
	_, err := bootstrap.REPL(ctx, s.cfg, s.opt)
	return s.out.Exit(err)
}
