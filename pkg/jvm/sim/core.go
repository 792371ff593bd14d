package sim

import (
	"fmt"
	"strings"

	"github.com/wetware/cljhost/pkg/jvm"
)

// core returns the subset of clojure.core provided by the simulator.
func (vm *VM) core() Namespace {
	return Namespace{
		"require":   Func(vm.require),
		"load-file": Func(vm.loadFile),
		"keyword":   Func(vm.keywordFn),
		"symbol":    Func(vm.symbolFn),
		"assoc":     Func(vm.assoc),
		"get":       Func(get),
		"count":     Func(count),
		"str":       Func(str),
		"+":         Func(add),
	}
}

func (vm *VM) require(args ...any) (any, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for _, arg := range args {
		sym, ok := arg.(*Symbol)
		if !ok {
			return nil, &jvm.Exception{
				Class:   "java.lang.Exception",
				Message: fmt.Sprintf("Unsupported option(s) supplied: %s", render(arg)),
			}
		}

		if vm.vars.Loaded(sym.Name) {
			continue
		}

		defs, ok := vm.loadable[sym.Name]
		if !ok {
			return nil, &jvm.Exception{
				Class:   "java.io.FileNotFoundException",
				Message: fmt.Sprintf("Could not locate %s__init.class, %[1]s.clj or %[1]s.cljc on classpath.", nsPath(sym.Name)),
			}
		}

		if err := vm.define(sym.Name, defs); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func (vm *VM) loadFile(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, arityException(len(args), "clojure.core/load-file")
	}

	path, ok := args[0].(string)
	if !ok {
		return nil, classCast(args[0], "java.lang.String")
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	f, ok := vm.files[path]
	if !ok {
		return nil, &jvm.Exception{
			Class:   "java.io.FileNotFoundException",
			Message: fmt.Sprintf("%s (No such file or directory)", path),
		}
	}

	return nil, vm.define(f.ns, f.defs)
}

func (vm *VM) keywordFn(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, arityException(len(args), "clojure.core/keyword")
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch x := args[0].(type) {
	case *Keyword:
		return x, nil
	case *Symbol:
		return vm.keyword(x.Name), nil
	case string:
		return vm.keyword(x), nil
	}

	return nil, nil
}

func (vm *VM) symbolFn(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, arityException(len(args), "clojure.core/symbol")
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch x := args[0].(type) {
	case *Symbol:
		return x, nil
	case *Keyword:
		return vm.symbol(x.Name), nil
	case string:
		return vm.symbol(x), nil
	}

	return nil, classCast(args[0], "java.lang.String")
}

// assoc returns a new map containing the entries of the first argument,
// which may be nil, plus the supplied key/value pairs.
func (vm *VM) assoc(args ...any) (any, error) {
	if len(args) < 3 || len(args)%2 == 0 {
		return nil, &jvm.Exception{
			Class:   "java.lang.IllegalArgumentException",
			Message: "assoc expects even number of arguments after map/vector, found odd number",
		}
	}

	var base *Map
	switch x := args[0].(type) {
	case nil:
	case *Map:
		base = x
	default:
		return nil, classCast(x, "clojure.lang.Associative")
	}

	m := make(map[any]any, base.Len()+len(args)/2)
	if base != nil {
		for k, v := range base.m {
			m[k] = v
		}
	}

	for i := 1; i < len(args); i += 2 {
		m[args[i]] = args[i+1]
	}

	return &Map{id: vm.id(), m: m}, nil
}

func get(args ...any) (any, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, arityException(len(args), "clojure.core/get")
	}

	var notFound any
	if len(args) == 3 {
		notFound = args[2]
	}

	if m, ok := args[0].(*Map); ok {
		if v, ok := m.Get(args[1]); ok {
			return v, nil
		}
	}

	return notFound, nil
}

func count(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, arityException(len(args), "clojure.core/count")
	}

	switch x := args[0].(type) {
	case nil:
		return int64(0), nil
	case *Map:
		return int64(x.Len()), nil
	case string:
		return int64(len([]rune(x))), nil
	}

	return nil, &jvm.Exception{
		Class:   "java.lang.UnsupportedOperationException",
		Message: fmt.Sprintf("count not supported on this type: %s", className(args[0])),
	}
}

func str(args ...any) (any, error) {
	var b strings.Builder
	for _, arg := range args {
		if arg != nil {
			b.WriteString(render(arg))
		}
	}

	return b.String(), nil
}

func add(args ...any) (any, error) {
	var sum int64
	for _, arg := range args {
		n, ok := arg.(int64)
		if !ok {
			return nil, classCast(arg, "java.lang.Number")
		}
		sum += n
	}

	return sum, nil
}

func nsPath(ns string) string {
	return strings.ReplaceAll(strings.ReplaceAll(ns, ".", "/"), "-", "_")
}

func arityException(n int, name string) error {
	return &jvm.Exception{
		Class:   "clojure.lang.ArityException",
		Message: fmt.Sprintf("Wrong number of args (%d) passed to: %s", n, name),
	}
}
