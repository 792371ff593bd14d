package sim

import (
	"github.com/wetware/cljhost/pkg/jvm"
)

// EmbeddedNS is the namespace of the libpython-clj2 embedded-mode entry
// points.  The simulator provides a stand-in that records its calls.
const EmbeddedNS = "libpython-clj2.embedded"

type embedState struct {
	initialized int
	serving     bool
	repl        chan *Map
}

// embedded returns the stand-in for libpython-clj2.embedded.  The REPL
// entry point blocks until the VM is closed, as the nREPL server would.
func (vm *VM) embedded() Namespace {
	vm.embed.repl = make(chan *Map, 1)

	return Namespace{
		"initialize!": Func(func(args ...any) (any, error) {
			if len(args) != 0 {
				return nil, arityException(len(args), EmbeddedNS+"/initialize!")
			}

			vm.mu.Lock()
			vm.embed.initialized++
			vm.mu.Unlock()

			return nil, nil
		}),

		"start-repl!": Func(func(args ...any) (any, error) {
			if len(args) > 1 {
				return nil, arityException(len(args), EmbeddedNS+"/start-repl!")
			}

			var opts *Map
			if len(args) == 1 && args[0] != nil {
				m, ok := args[0].(*Map)
				if !ok {
					return nil, classCast(args[0], "clojure.lang.IPersistentMap")
				}
				opts = m
			}

			vm.mu.Lock()
			serving := vm.embed.serving
			vm.embed.serving = true
			vm.mu.Unlock()

			if serving {
				return nil, &jvm.Exception{
					Class:   "java.net.BindException",
					Message: "Address already in use",
				}
			}

			vm.embed.repl <- opts

			<-vm.closed
			return nil, nil
		}),
	}
}

// EmbeddedInitialized returns the number of calls to initialize!.
func (vm *VM) EmbeddedInitialized() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.embed.initialized
}

// REPLStarted returns a channel that receives the options map passed to
// start-repl!, which is nil if the server was started without options.
func (vm *VM) REPLStarted() <-chan *Map {
	return vm.embed.repl
}
