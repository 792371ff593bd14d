// Package clj bootstraps a Clojure runtime inside a JVM and exposes its
// vars as Go callables.
//
// A Runtime must be initialized exactly once, after the VM has started and
// before any var is resolved.  Vars living in namespaces that have not been
// loaded must be required first; otherwise calls fail with an "unbound fn"
// exception from Clojure.
package clj

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lthibault/log"

	"github.com/wetware/cljhost"
	"github.com/wetware/cljhost/pkg/jvm"
)

const (
	rtClass     = "clojure/lang/RT"
	symbolClass = "clojure/lang/Symbol"
	ptrClass    = "tech/v3/datatype/ffi/Pointer"
)

var (
	rtInit     = jvm.Method(jvm.Void)
	rtVar      = jvm.Method(jvm.Class(varClass), jvm.StringType, jvm.StringType)
	rtLongCast = jvm.Method(jvm.Long, jvm.ObjectType)
	symIntern  = jvm.Method(jvm.Class(symbolClass), jvm.StringType)
	ptrNew     = jvm.Method(jvm.Class(ptrClass), jvm.Long)
)

const varClass = "clojure/lang/Var"

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger instance.
// If l == nil, a default logger is used.
func WithLogger(l log.Logger) Option {
	if l == nil {
		l = log.New()
	}

	return func(rt *Runtime) {
		rt.log = l
	}
}

// WithMetrics sets the metrics sink.
// If m == nil, metrics are discarded.
func WithMetrics(m cljhost.Metrics) Option {
	if m == nil {
		m = cljhost.NopMetrics{}
	}

	return func(rt *Runtime) {
		rt.metrics = m
	}
}

func withDefault(opt []Option) []Option {
	return append([]Option{
		WithLogger(nil),
		WithMetrics(nil),
	}, opt...)
}

// Runtime is the Clojure runtime hosted by a VM.
type Runtime struct {
	vm      jvm.VM
	log     log.Logger
	metrics cljhost.Metrics

	mu          sync.Mutex
	initialized bool

	require lazyVar
}

// New runtime bound to vm.  The runtime is not initialized; see Init.
func New(vm jvm.VM, opt ...Option) *Runtime {
	rt := &Runtime{
		vm:      vm,
		require: lazyVar{ns: "clojure.core", name: "require"},
	}

	for _, option := range withDefault(opt) {
		option(rt)
	}

	return rt
}

// VM returns the underlying virtual machine.
func (rt *Runtime) VM() jvm.VM { return rt.vm }

// Log returns the runtime's logger.
func (rt *Runtime) Log() log.Logger { return rt.log }

// Init calls clojure.lang.RT.init.  It must be called exactly once, and
// fails with ErrAlreadyInitialized thereafter.  A failed initialization
// may be retried.
func (rt *Runtime) Init() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.initialized {
		return ErrAlreadyInitialized
	}

	if _, err := rt.vm.CallStatic(rtClass, "init", rtInit); err != nil {
		return fmt.Errorf("RT.init: %w", err)
	}

	rt.initialized = true
	rt.log.Debug("clojure runtime initialized")
	return nil
}

// Initialized reports whether Init has completed successfully.
func (rt *Runtime) Initialized() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return rt.initialized
}

// FindVar looks up the var ns/name.  Clojure interns the var if it does
// not exist, so a var in a namespace that was never required resolves to
// an unbound var.  ErrSymbolNotFound is therefore only reported for
// malformed names, or when the VM fails to produce a var.  Calling an
// unbound var fails with a *jvm.Exception (java.lang.IllegalStateException,
// "Attempting to call unbound fn"); use Var.Bound to check beforehand.
func (rt *Runtime) FindVar(ns, name string) (*Var, error) {
	if !rt.Initialized() {
		return nil, ErrNotInitialized
	}

	res, err := rt.vm.CallStatic(rtClass, "var", rtVar, ns, name)
	if err != nil {
		return nil, &SymbolError{NS: ns, Name: name, Err: err}
	}

	obj, ok := res.(jvm.Object)
	if !ok || obj == nil {
		return nil, &SymbolError{NS: ns, Name: name}
	}

	rt.log.WithField("var", ns+"/"+name).Trace("resolved var")
	return &Var{Fn: *rt.wrap(obj), NS: ns, Name: name}, nil
}

// Resolve looks up a fully qualified name of the form "ns/name".
func (rt *Runtime) Resolve(qualified string) (*Var, error) {
	ns, name, err := Split(qualified)
	if err != nil {
		return nil, err
	}

	return rt.FindVar(ns, name)
}

// Invoke resolves a fully qualified name and calls it with args.
func (rt *Runtime) Invoke(qualified string, args ...any) (any, error) {
	v, err := rt.Resolve(qualified)
	if err != nil {
		return nil, err
	}

	return v.Invoke(args...)
}

// Fn wraps obj, which must implement clojure.lang.IFn.
func (rt *Runtime) Fn(obj jvm.Object) *Fn {
	return rt.wrap(obj)
}

// Symbol interns a clojure.lang.Symbol.
func (rt *Runtime) Symbol(name string) (jvm.Object, error) {
	res, err := rt.vm.CallStatic(symbolClass, "intern", symIntern, name)
	if err != nil {
		return nil, fmt.Errorf("intern symbol %q: %w", name, err)
	}

	obj, _ := res.(jvm.Object)
	return obj, nil
}

// Require loads the namespace ns.  This must happen before resolving any
// var in ns.  Requiring a loaded namespace is a no-op.
func (rt *Runtime) Require(ns string) error {
	require, err := rt.require.Get(rt)
	if err != nil {
		return err
	}

	sym, err := rt.Symbol(ns)
	if err != nil {
		return err
	}

	if _, err = require.Invoke(sym); err != nil {
		return fmt.Errorf("require %s: %w", ns, err)
	}

	rt.log.WithField("ns", ns).Debug("required namespace")
	return nil
}

// LoadFile evaluates the Clojure source file at path.
func (rt *Runtime) LoadFile(path string) error {
	_, err := rt.Invoke("clojure.core/load-file", path)
	return err
}

// LongCast casts obj to a primitive long using RT.longCast.
func (rt *Runtime) LongCast(obj any) (int64, error) {
	res, err := rt.vm.CallStatic(rtClass, "longCast", rtLongCast, unwrap([]any{obj})...)
	if err != nil {
		return 0, err
	}

	n, _ := res.(int64)
	return n, nil
}

// Pointer constructs a tech.v3.datatype.ffi.Pointer to addr, allowing
// host memory to be passed into Clojure.  The address must be non-zero.
func (rt *Runtime) Pointer(addr uintptr) (jvm.Object, error) {
	res, err := rt.vm.CallStatic(ptrClass, "constructNonZero", ptrNew, int64(addr))
	if err != nil {
		return nil, err
	}

	obj, _ := res.(jvm.Object)
	return obj, nil
}

// Object wraps a VM reference to expose java.lang.Object methods.
func (rt *Runtime) Object(obj jvm.Object) GenericObject {
	return GenericObject{vm: rt.vm, obj: obj}
}

// Render returns a human-readable representation of a value returned by
// the VM.
func (rt *Runtime) Render(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case jvm.Object:
		return rt.Object(x).String()
	}

	return fmt.Sprint(v)
}

func (rt *Runtime) wrap(obj jvm.Object) *Fn {
	return &Fn{vm: rt.vm, obj: obj, metrics: rt.metrics}
}

// Split a fully qualified name into its namespace and symbol.
func Split(qualified string) (ns, name string, err error) {
	ns, name, ok := strings.Cut(qualified, "/")
	if !ok || ns == "" || name == "" {
		return "", "", &SymbolError{
			NS:   ns,
			Name: name,
			Err:  fmt.Errorf("malformed name %q (expected ns/name)", qualified),
		}
	}

	return ns, name, nil
}

// lazyVar memoizes the resolution of a var.  Once resolved, the handle is
// never invalidated; failures are not cached.
type lazyVar struct {
	ns, name string

	mu sync.Mutex
	v  *Var
}

func (lv *lazyVar) Get(rt *Runtime) (*Var, error) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if lv.v != nil {
		return lv.v, nil
	}

	v, err := rt.FindVar(lv.ns, lv.name)
	if err == nil {
		lv.v = v
	}

	return v, err
}
