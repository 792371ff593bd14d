// Package bootstrap brings up a Clojure runtime from scratch: it computes
// a classpath with the Clojure CLI, starts the process-wide JVM and
// initializes clojure.lang.RT.
package bootstrap

import (
	"context"
	"time"

	"github.com/lthibault/log"
	"go.uber.org/multierr"

	"github.com/wetware/cljhost"
	"github.com/wetware/cljhost/pkg/classpath"
	"github.com/wetware/cljhost/pkg/clj"
	"github.com/wetware/cljhost/pkg/embedded"
	"github.com/wetware/cljhost/pkg/jvm"
)

// Config for a boot sequence.  Zero-valued fields take defaults.
type Config struct {
	Source   classpath.Source // defaults to classpath.Tool{}
	Process  *jvm.Process     // defaults to jvm.Default
	Launcher jvm.Launcher     // required
	Bridge   embedded.Bridge

	Log     log.Logger
	Metrics cljhost.Metrics

	// ClasspathArgs are passed to the Clojure CLI, e.g. "-A:dev".
	ClasspathArgs []string

	// Flags are extra JVM options.  Library overrides the location of
	// libjvm.
	Flags   []string
	Library string

	// Embedded initializes the embedded bridge after the runtime.
	Embedded bool
}

// REPLOptions control the REPL boot sequence.
type REPLOptions struct {
	Versions    classpath.Versions
	LoadUserCLJ bool // evaluate ./user.clj before starting the server
	StartREPL   bool
	KillVMAfter bool

	// Params are passed to the REPL server as a keyword map.
	Params map[string]any
}

// Clojure starts the JVM and returns an initialized runtime.  The bridge
// is initialized if cfg.Embedded is set.  If the process has already
// started a VM, Clojure fails with jvm.ErrAlreadyStarted without running
// the Clojure CLI.
func Clojure(ctx context.Context, cfg Config) (*clj.Runtime, error) {
	cfg = cfg.withDefaults()

	if err := cfg.Process.Idle(); err != nil {
		return nil, err
	}

	cp, err := timed(cfg, "boot.classpath", func() (classpath.Classpath, error) {
		return cfg.Source.Resolve(ctx, cfg.ClasspathArgs...)
	})
	if err != nil {
		return nil, err
	}

	rt, err := start(cfg, cp)
	if err != nil {
		return nil, err
	}

	if cfg.Embedded {
		if err = cfg.Bridge.Initialize(rt); err != nil {
			return nil, err
		}
	}

	return rt, nil
}

// REPL starts the JVM with a classpath that includes nREPL and
// cider-nrepl, initializes the runtime and the embedded bridge, and
// optionally starts an nREPL server.  Starting the server blocks until it
// stops or ctx expires.  If opt.KillVMAfter is set, the JVM is destroyed
// before returning and the runtime is no longer usable.
func REPL(ctx context.Context, cfg Config, opt REPLOptions) (*clj.Runtime, error) {
	cfg = cfg.withDefaults()

	if err := cfg.Process.Idle(); err != nil {
		return nil, err
	}

	cp, err := timed(cfg, "boot.classpath", func() (classpath.Classpath, error) {
		return classpath.REPL(ctx, cfg.Source, opt.Versions, cfg.ClasspathArgs...)
	})
	if err != nil {
		return nil, err
	}

	rt, err := start(cfg, cp)
	if err != nil {
		return nil, err
	}

	if opt.LoadUserCLJ {
		if err = rt.LoadFile("user.clj"); err != nil {
			return nil, err
		}
	}

	if err = cfg.Bridge.Initialize(rt); err != nil {
		return nil, err
	}

	if opt.StartREPL {
		err = cfg.Bridge.StartREPL(ctx, rt, opt.Params)
	}

	if opt.KillVMAfter {
		cfg.Log.Debug("destroying jvm")
		err = multierr.Append(err, cfg.Process.Kill())
	}

	return rt, err
}

func start(cfg Config, cp classpath.Classpath) (*clj.Runtime, error) {
	if cfg.Launcher == nil {
		return nil, jvm.ErrNoBackend
	}

	cfg.Log.WithField("entries", len(cp)).Debug("resolved classpath")

	vm, err := timed(cfg, "boot.vm", func() (jvm.VM, error) {
		return cfg.Process.Start(cfg.Launcher, jvm.Options{
			Classpath: cp,
			Headless:  true,
			Flags:     cfg.Flags,
			Library:   cfg.Library,
		})
	})
	if err != nil {
		return nil, err
	}

	rt := clj.New(vm,
		clj.WithLogger(cfg.Log),
		clj.WithMetrics(cfg.Metrics))

	if _, err = timed(cfg, "boot.rt", func() (struct{}, error) {
		return struct{}{}, rt.Init()
	}); err != nil {
		return nil, err
	}

	return rt, nil
}

func timed[T any](cfg Config, bucket string, f func() (T, error)) (T, error) {
	t0 := time.Now()
	defer func() {
		cfg.Metrics.Duration(bucket, time.Since(t0))
	}()

	return f()
}

func (cfg Config) withDefaults() Config {
	if cfg.Source == nil {
		cfg.Source = classpath.Tool{}
	}

	if cfg.Process == nil {
		cfg.Process = jvm.Default
	}

	if cfg.Log == nil {
		cfg.Log = log.New()
	}

	if cfg.Metrics == nil {
		cfg.Metrics = cljhost.NopMetrics{}
	}

	return cfg
}
