// Package call contains the `cljhost call` command implementation.
package call

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	ctxutil "github.com/wetware/cljhost/internal/util/ctx"

	"github.com/wetware/cljhost/internal/cmd"
	"github.com/wetware/cljhost/internal/runtime"
	runtimeutil "github.com/wetware/cljhost/internal/util/runtime"
	"github.com/wetware/cljhost/pkg/bootstrap"
	"github.com/wetware/cljhost/pkg/clj"
)

var flags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "embedded",
		Aliases: []string{"e"},
		Usage:   "initialize the embedded bridge before calling",
		EnvVars: []string{"CLJHOST_EMBEDDED"},
	},
	&cli.StringSliceFlag{
		Name:    "require",
		Aliases: []string{"r"},
		Usage:   "require `namespace` before calling",
	},
	cmd.ClasspathArgsFlag(),
}

// Command constructor
func Command() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "call a clojure function and print the result",
		ArgsUsage: "ns/fn [args...]",
		Flags:     flags,
		Action:    run(),
	}
}

func run() cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() == 0 {
			return errors.New("missing function name (expected ns/fn)")
		}

		ns, _, err := clj.Split(c.Args().First())
		if err != nil {
			return err
		}

		var cfg bootstrap.Config
		return runtime.Run(runtimeutil.New(c), func() error {
			cfg.Embedded = c.Bool("embedded")
			cfg.ClasspathArgs = cmd.ClasspathArgs(c)

			rt, err := bootstrap.Clojure(ctxutil.WithLifetime(c.Context), cfg)
			if err != nil {
				return err
			}

			for _, name := range append(c.StringSlice("require"), ns) {
				if err = rt.Require(name); err != nil {
					return err
				}
			}

			res, err := rt.Invoke(c.Args().First(), args(c)...)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.App.Writer, rt.Render(res))
			return err
		}, &cfg)
	}
}

func args(c *cli.Context) []any {
	tail := c.Args().Tail()
	args := make([]any, len(tail))
	for i, arg := range tail {
		args[i] = cmd.ParseValue(arg)
	}

	return args
}
