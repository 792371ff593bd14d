// Package classpath contains the `cljhost classpath` command implementation.
package classpath

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	ctxutil "github.com/wetware/cljhost/internal/util/ctx"

	"github.com/wetware/cljhost/internal/cmd"
	"github.com/wetware/cljhost/internal/runtime"
	runtimeutil "github.com/wetware/cljhost/internal/util/runtime"
	cp "github.com/wetware/cljhost/pkg/classpath"
)

var flags = append([]cli.Flag{
	&cli.BoolFlag{
		Name:  "repl",
		Usage: "include nrepl and cider-nrepl",
	},
	cmd.ClasspathArgsFlag(),
}, cmd.VersionFlags()...)

// Command constructor
func Command() *cli.Command {
	return &cli.Command{
		Name:      "classpath",
		Aliases:   []string{"cp"},
		Usage:     "print the classpath computed by the clojure cli",
		ArgsUsage: "[-- clojure cli args...]",
		Flags:     flags,
		Action:    run(),
	}
}

func run() cli.ActionFunc {
	return func(c *cli.Context) error {
		var src cp.Source
		return runtime.Run(runtimeutil.New(c), func() error {
			entries, err := resolve(ctxutil.WithLifetime(c.Context), c, src)
			if err != nil {
				return err
			}

			for _, entry := range entries {
				fmt.Fprintln(c.App.Writer, entry)
			}

			return nil
		}, &src)
	}
}

func resolve(ctx context.Context, c *cli.Context, src cp.Source) (cp.Classpath, error) {
	if c.Bool("repl") {
		return cp.REPL(ctx, src, cmd.Versions(c), Args(c)...)
	}

	return src.Resolve(ctx, Args(c)...)
}

// Args returns the arguments for the Clojure CLI: the --cp-arg values,
// followed by any positional arguments given after "--".
func Args(c *cli.Context) []string {
	return append(cmd.ClasspathArgs(c), c.Args().Slice()...)
}
