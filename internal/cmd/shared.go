// Package cmd contains flags and helpers shared by cljhost subcommands.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/wetware/cljhost/pkg/classpath"
)

// VersionFlags select the nREPL and cider-nrepl versions added to the
// classpath of a REPL.
func VersionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "nrepl-version",
			Usage:   "nrepl/nrepl maven `version`",
			Value:   classpath.DefaultVersions.NREPL,
			EnvVars: []string{"CLJHOST_NREPL_VERSION"},
		},
		&cli.StringFlag{
			Name:    "cider-version",
			Usage:   "cider/cider-nrepl maven `version`",
			Value:   classpath.DefaultVersions.CiderNREPL,
			EnvVars: []string{"CLJHOST_CIDER_VERSION"},
		},
	}
}

// Versions returns the versions selected by VersionFlags.
func Versions(c *cli.Context) classpath.Versions {
	return classpath.Versions{
		NREPL:      c.String("nrepl-version"),
		CiderNREPL: c.String("cider-version"),
	}
}

// ClasspathArgsFlag passes arguments, such as alias flags, to the
// Clojure CLI.
func ClasspathArgsFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "cp-arg",
		Usage: "pass `arg` to the clojure cli, e.g. --cp-arg=-A:dev",
	}
}

// ClasspathArgs returns the arguments selected by ClasspathArgsFlag.
func ClasspathArgs(c *cli.Context) []string {
	return c.StringSlice("cp-arg")
}

// ParseValue converts a command-line argument to a value that can be
// passed to Clojure.  Integers become longs; anything else is passed as
// a string.
func ParseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	return s
}

// ParseParams parses "key=value" pairs.  Values are converted with
// ParseValue.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", pair)
		}

		params[k] = ParseValue(v)
	}

	return params, nil
}
