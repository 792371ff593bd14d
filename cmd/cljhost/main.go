/*
	Wetware - the distributed programming language
	Copyright 2020, Louis Thibault.  All rights reserved.
*/

package main

import (
	"os"

	"github.com/lthibault/log"
	"github.com/urfave/cli/v2"

	"github.com/wetware/cljhost"
	"github.com/wetware/cljhost/internal/cmd/call"
	"github.com/wetware/cljhost/internal/cmd/classpath"
	"github.com/wetware/cljhost/internal/cmd/repl"
	"github.com/wetware/cljhost/internal/runtime"
	statsdutil "github.com/wetware/cljhost/internal/util/statsd"
	_ "github.com/wetware/cljhost/pkg/jvm/jni"
	_ "github.com/wetware/cljhost/pkg/jvm/sim"
)

var flags = []cli.Flag{
	// Logging
	&cli.StringFlag{
		Name:    "logfmt",
		Aliases: []string{"f"},
		Usage:   "`format` logs as text, json or none",
		Value:   "text",
		EnvVars: []string{"CLJHOST_LOGFMT"},
	},
	&cli.StringFlag{
		Name:    "loglvl",
		Usage:   "set logging `level` to trace, debug, info, warn, error or fatal",
		Value:   "info",
		EnvVars: []string{"CLJHOST_LOGLVL"},
	},
	&cli.PathFlag{
		Name:        "data",
		Usage:       "persist cache data to `path`",
		DefaultText: "disabled",
		EnvVars:     []string{"CLJHOST_DATA"},
	},
	&cli.BoolFlag{
		Name:    "no-cache",
		Usage:   "always run the clojure cli to compute classpaths",
		EnvVars: []string{"CLJHOST_NO_CACHE"},
	},
	// Statsd
	&cli.StringFlag{
		Name:        "statsd",
		Aliases:     []string{"metrics"},
		Usage:       "send metrics to udp `host:port`",
		EnvVars:     []string{"CLJHOST_STATSD"},
		DefaultText: "disabled",
	},
	&cli.Float64Flag{
		Name:    "statsd-rate",
		Usage:   "sample per-call metrics at `rate`",
		Value:   statsdutil.DefaultRate,
		EnvVars: []string{"CLJHOST_STATSD_RATE"},
	},
	// JVM
	&cli.StringFlag{
		Name:    "clojure",
		Usage:   "clojure cli `command`",
		Value:   "clojure",
		EnvVars: []string{"CLJHOST_CLOJURE"},
	},
	&cli.StringFlag{
		Name:    "vm",
		Usage:   "jvm `backend`",
		Value:   runtime.DefaultBackend,
		EnvVars: []string{"CLJHOST_VM"},
	},
	&cli.PathFlag{
		Name:        "libjvm",
		Usage:       "load the jvm from `path`",
		DefaultText: "$JAVA_HOME",
		EnvVars:     []string{"CLJHOST_LIBJVM"},
	},
	&cli.StringSliceFlag{
		Name:    "jvm-opt",
		Aliases: []string{"J"},
		Usage:   "pass `option` to the jvm, e.g. -Xmx2g",
		EnvVars: []string{"CLJHOST_JVM_OPTS"},
	},
	// Misc.
	&cli.BoolFlag{
		Name:    "prettyprint",
		Aliases: []string{"pp"},
		Usage:   "pretty-print JSON output",
		Hidden:  true,
	},
	&cli.BoolFlag{
		Name:   "log-fx",
		Usage:  "output fx dependency injection logs",
		Hidden: true,
	},
}

var commands = []*cli.Command{
	classpath.Command(),
	call.Command(),
	repl.Command(),
}

func main() {
	run(&cli.App{
		Name:                 "cljhost",
		HelpName:             "cljhost",
		Usage:                "host a clojure runtime from go",
		UsageText:            "cljhost [global options] command [command options] [arguments...]",
		Copyright:            "2020 The Wetware Project",
		Version:              cljhost.Version,
		EnableBashCompletion: true,
		Flags:                flags,
		Commands:             commands,
		Metadata: map[string]interface{}{
			"version": cljhost.Version,
		},
	})
}

func run(app *cli.App) {
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
