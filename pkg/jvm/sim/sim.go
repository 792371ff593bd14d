// Package sim provides a simulated JVM that hosts a miniature,
// Clojure-compatible runtime.
//
// The simulator answers the same reflective calls as a real JVM running
// clojure.lang.RT (RT.init, RT.var, RT.longCast, Symbol.intern, Var.invoke,
// ...), and journals every call it receives.  It is registered as the
// "sim" backend and is primarily intended for tests and dry runs.
package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wetware/cljhost/pkg/jvm"
)

func init() {
	jvm.Register("sim", jvm.LauncherFunc(func(opt jvm.Options) (jvm.VM, error) {
		return New(WithOptions(opt))
	}))
}

var (
	_ jvm.VM     = (*VM)(nil)
	_ jvm.Object = (*Var)(nil)
)

// Event is a journaled call.
type Event struct {
	Static bool
	Class  string  // set for static calls
	Target uintptr // receiver handle, set for instance calls
	Method string
	Desc   jvm.Descriptor
	Args   []any
}

func (e Event) String() string {
	if e.Static {
		return fmt.Sprintf("%s.%s%s %v", e.Class, e.Method, e.Desc, e.Args)
	}

	return fmt.Sprintf("#%d.%s%s %v", e.Target, e.Method, e.Desc, e.Args)
}

// Namespace maps var names to root values.  Func values are invokable.
type Namespace map[string]any

// Option configures a simulated VM.
type Option func(*VM)

// WithOptions records the start-up options, as a real VM would receive
// them.
func WithOptions(opt jvm.Options) Option {
	return func(vm *VM) {
		vm.opts = opt
	}
}

// WithNamespace makes ns loadable through clojure.core/require.  Its vars
// are defined when it is first required.
func WithNamespace(name string, ns Namespace) Option {
	return func(vm *VM) {
		vm.loadable[name] = ns
	}
}

// WithFile makes path loadable through clojure.core/load-file.  Loading
// the file defines the vars of ns.
func WithFile(path, name string, ns Namespace) Option {
	return func(vm *VM) {
		vm.files[path] = file{ns: name, defs: ns}
	}
}

type file struct {
	ns   string
	defs Namespace
}

type (
	staticFn   func(vm *VM, args []any) (any, error)
	instanceFn func(vm *VM, obj jvm.Object, args []any) (any, error)
)

// VM is a simulated Java Virtual Machine.
type VM struct {
	nextID uintptr

	mu     sync.Mutex
	opts   jvm.Options
	booted bool
	closed chan struct{}
	once   sync.Once

	vars     store
	symbols  map[string]*Symbol
	keywords map[string]*Keyword
	loadable map[string]Namespace
	files    map[string]file

	journal []Event
	embed   embedState
}

// New simulated VM.
func New(opt ...Option) (*VM, error) {
	vars, err := newStore()
	if err != nil {
		return nil, err
	}

	vm := &VM{
		closed:   make(chan struct{}),
		vars:     vars,
		symbols:  make(map[string]*Symbol),
		keywords: make(map[string]*Keyword),
		loadable: make(map[string]Namespace),
		files:    make(map[string]file),
	}

	vm.loadable[EmbeddedNS] = vm.embedded()

	for _, option := range opt {
		option(vm)
	}

	return vm, nil
}

// Options returns the start-up options.
func (vm *VM) Options() jvm.Options { return vm.opts }

// Journal returns a copy of all calls received so far, in order.
func (vm *VM) Journal() []Event {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return append([]Event(nil), vm.journal...)
}

// Initialized reports whether RT.init has been called.
func (vm *VM) Initialized() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.booted
}

// Define binds ns/name to v, interning the var if needed.  The namespace
// is marked as loaded.
func (vm *VM) Define(ns, name string, v any) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.define(ns, Namespace{name: v})
}

// Done is closed when the VM is destroyed.
func (vm *VM) Done() <-chan struct{} { return vm.closed }

func (vm *VM) Close() error {
	vm.once.Do(func() { close(vm.closed) })
	return nil
}

func (vm *VM) CallStatic(class, method string, d jvm.Descriptor, args ...any) (any, error) {
	args = normalize(args)

	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.journal = append(vm.journal, Event{
		Static: true,
		Class:  class,
		Method: method,
		Desc:   d,
		Args:   args,
	})

	if err := vm.alive(); err != nil {
		return nil, err
	}

	params, _, err := d.Parse()
	if err != nil {
		return nil, err
	}

	if err = jvm.CheckArgs(params, args); err != nil {
		return nil, err
	}

	fn, ok := statics[class+"."+method+string(d)]
	if !ok {
		return nil, noSuchMethod(class, method, d)
	}

	return fn(vm, args)
}

func (vm *VM) Call(obj jvm.Object, method string, d jvm.Descriptor, args ...any) (any, error) {
	args = normalize(args)

	vm.mu.Lock()
	var target uintptr
	if obj != nil {
		target = obj.Handle()
	}
	vm.journal = append(vm.journal, Event{
		Target: target,
		Method: method,
		Desc:   d,
		Args:   args,
	})

	if err := vm.alive(); err != nil {
		vm.mu.Unlock()
		return nil, err
	}

	if obj == nil {
		vm.mu.Unlock()
		return nil, &jvm.Exception{Class: "java.lang.NullPointerException"}
	}

	params, _, err := d.Parse()
	if err == nil {
		err = jvm.CheckArgs(params, args)
	}

	if err != nil {
		vm.mu.Unlock()
		return nil, err
	}

	// IFn.invoke runs user code, which may call back into the VM, so
	// it is dispatched without holding the lock.
	if method == "invoke" {
		v, ok := obj.(*Var)
		if !ok {
			vm.mu.Unlock()
			return nil, classCast(obj, "clojure.lang.IFn")
		}

		root, bound := v.root, v.bound
		vm.mu.Unlock()
		return invoke(v, root, bound, args)
	}

	defer vm.mu.Unlock()

	fn, ok := methods[method+string(d)]
	if !ok {
		return nil, noSuchMethod(className(obj), method, d)
	}

	return fn(vm, obj, args)
}

func (vm *VM) alive() error {
	select {
	case <-vm.closed:
		return jvm.ErrNotStarted
	default:
		return nil
	}
}

func (vm *VM) id() uintptr {
	return atomic.AddUintptr(&vm.nextID, 1)
}

// define binds each entry of defs in ns and marks ns as loaded.  Callers
// must hold the lock.
func (vm *VM) define(ns string, defs Namespace) error {
	for name, val := range defs {
		v, err := vm.vars.Intern(ns, name, vm.id)
		if err != nil {
			return err
		}

		v.root, v.bound = val, true
	}

	if vm.vars.Loaded(ns) {
		return nil
	}

	return vm.vars.MarkLoaded(ns)
}

func (vm *VM) symbol(name string) *Symbol {
	if s, ok := vm.symbols[name]; ok {
		return s
	}

	s := &Symbol{id: vm.id(), Name: name}
	vm.symbols[name] = s
	return s
}

func (vm *VM) keyword(name string) *Keyword {
	if k, ok := vm.keywords[name]; ok {
		return k
	}

	k := &Keyword{id: vm.id(), Name: name}
	vm.keywords[name] = k
	return k
}

func invoke(v *Var, root any, bound bool, args []any) (any, error) {
	if !bound {
		return nil, &jvm.Exception{
			Class:   "java.lang.IllegalStateException",
			Message: fmt.Sprintf("Attempting to call unbound fn: %s", v),
		}
	}

	fn, ok := root.(Func)
	if !ok {
		return nil, classCast(root, "clojure.lang.IFn")
	}

	return fn(args...)
}

// normalize widens integers to int64, as boxing into java.lang.Long would.
func normalize(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch x := arg.(type) {
		case int:
			out[i] = int64(x)
		case int8:
			out[i] = int64(x)
		case int16:
			out[i] = int64(x)
		case int32:
			out[i] = int64(x)
		case uint:
			out[i] = int64(x)
		case uint8:
			out[i] = int64(x)
		case uint16:
			out[i] = int64(x)
		case uint32:
			out[i] = int64(x)
		case uint64:
			out[i] = int64(x)
		case uintptr:
			out[i] = int64(x)
		case float32:
			out[i] = float64(x)
		default:
			out[i] = arg
		}
	}

	return out
}

func noSuchMethod(class, method string, d jvm.Descriptor) error {
	return &jvm.Exception{
		Class:   "java.lang.NoSuchMethodError",
		Message: fmt.Sprintf("%s.%s%s", class, method, d),
	}
}

func classCast(v any, to string) error {
	return &jvm.Exception{
		Class:   "java.lang.ClassCastException",
		Message: fmt.Sprintf("class %s cannot be cast to class %s", className(v), to),
	}
}
