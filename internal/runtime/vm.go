package runtime

import (
	"fmt"

	ds "github.com/ipfs/go-datastore"
	"go.uber.org/fx"

	"github.com/wetware/cljhost/pkg/bootstrap"
	"github.com/wetware/cljhost/pkg/classpath"
	"github.com/wetware/cljhost/pkg/jvm"
)

/*************************************************************************
 *                                                                       *
 *  vm.go is responsible for locating and configuring the JVM.           *
 *                                                                       *
 *************************************************************************/

// DefaultBackend is the JVM backend used when none is configured.  It
// is only available in builds tagged "jni".
const DefaultBackend = "jni"

// VM provides the classpath source, the VM backend and the boot
// configuration derived from them.
func VM() fx.Option {
	return fx.Module("vm", fx.Provide(
		source,
		launcher,
		process,
		config))
}

func source(env Env, store ds.Batching) classpath.Source {
	tool := classpath.Tool{Command: env.String("clojure")}
	if env.Bool("no-cache") {
		return tool
	}

	return classpath.Cache{
		Source: tool,
		Store:  store,
		Scope:  tool.Command,
		Log:    env.Log().WithField("cache", "classpath"),
	}
}

func launcher(env Env) (jvm.Launcher, error) {
	name := env.String("vm")
	if name == "" {
		name = DefaultBackend
	}

	l, err := jvm.Lookup(name)
	if err != nil && name == DefaultBackend {
		return nil, fmt.Errorf("%w (rebuild with -tags jni, or select one of %v with --vm)",
			err, jvm.Backends())
	}

	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, jvm.Backends())
	}

	if name == "sim" {
		env.Log().Warn("using simulated jvm; clojure libraries on the classpath will not be loaded")
	}

	return l, nil
}

func process() *jvm.Process {
	return jvm.Default
}

func config(env Env, src classpath.Source, l jvm.Launcher, p *jvm.Process) bootstrap.Config {
	return bootstrap.Config{
		Source:   src,
		Process:  p,
		Launcher: l,
		Log:      env.Log(),
		Metrics:  env.Metrics(),
		Flags:    env.StringSlice("jvm-opt"),
		Library:  env.Path("libjvm"),
	}
}
