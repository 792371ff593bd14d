package sim

import (
	"fmt"

	"github.com/wetware/cljhost/pkg/jvm"
)

var (
	varType     = jvm.Class("clojure/lang/Var")
	symbolType  = jvm.Class("clojure/lang/Symbol")
	pointerType = jvm.Class("tech/v3/datatype/ffi/Pointer")
	classType   = jvm.Class("java/lang/Class")
)

// statics is the static method table, keyed by class, method name and
// descriptor.
var statics = map[string]staticFn{
	"clojure/lang/RT.init" + string(jvm.Method(jvm.Void)): rtInit,

	"clojure/lang/RT.var" + string(jvm.Method(varType, jvm.StringType, jvm.StringType)): rtVar,

	"clojure/lang/RT.longCast" + string(jvm.Method(jvm.Long, jvm.ObjectType)): rtLongCast,

	"clojure/lang/Symbol.intern" + string(jvm.Method(symbolType, jvm.StringType)): symbolIntern,

	"tech/v3/datatype/ffi/Pointer.constructNonZero" + string(jvm.Method(pointerType, jvm.Long)): pointerConstruct,
}

// methods is the instance method table, keyed by method name and
// descriptor.  IFn.invoke is handled separately.
var methods = map[string]instanceFn{
	"deref" + string(jvm.Method(jvm.ObjectType)):   varDeref,
	"isBound" + string(jvm.Method(jvm.Boolean)):    varIsBound,
	"toString" + string(jvm.Method(jvm.StringType)): toString,
	"getClass" + string(jvm.Method(classType)):     getClass,
}

func rtInit(vm *VM, _ []any) (any, error) {
	if vm.booted {
		return nil, nil
	}

	vm.booted = true
	return nil, vm.define("clojure.core", vm.core())
}

func rtVar(vm *VM, args []any) (any, error) {
	if !vm.booted {
		return nil, &jvm.Exception{
			Class:   "java.lang.IllegalStateException",
			Message: "clojure.lang.RT is not initialized",
		}
	}

	ns, _ := args[0].(string)
	name, _ := args[1].(string)
	if ns == "" || name == "" {
		return nil, &jvm.Exception{Class: "java.lang.NullPointerException"}
	}

	v, err := vm.vars.Intern(ns, name, vm.id)
	if err != nil {
		return nil, err
	}

	return v, nil
}

func rtLongCast(vm *VM, args []any) (any, error) {
	switch x := args[0].(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	}

	return nil, classCast(args[0], "java.lang.Number")
}

func symbolIntern(vm *VM, args []any) (any, error) {
	name, ok := args[0].(string)
	if !ok {
		return nil, classCast(args[0], "java.lang.String")
	}

	return vm.symbol(name), nil
}

func pointerConstruct(vm *VM, args []any) (any, error) {
	addr := args[0].(int64)
	if addr == 0 {
		return nil, &jvm.Exception{
			Class:   "java.lang.RuntimeException",
			Message: "Pointer address is zero",
		}
	}

	return &Pointer{id: vm.id(), Address: addr}, nil
}

func varDeref(vm *VM, obj jvm.Object, _ []any) (any, error) {
	v, ok := obj.(*Var)
	if !ok {
		return nil, classCast(obj, "clojure.lang.IDeref")
	}

	if !v.bound {
		return &unbound{id: vm.id(), v: v}, nil
	}

	return v.root, nil
}

func varIsBound(_ *VM, obj jvm.Object, _ []any) (any, error) {
	v, ok := obj.(*Var)
	if !ok {
		return nil, noSuchMethod(className(obj), "isBound", jvm.Method(jvm.Boolean))
	}

	return v.bound, nil
}

func toString(_ *VM, obj jvm.Object, _ []any) (any, error) {
	return render(obj), nil
}

func getClass(vm *VM, obj jvm.Object, _ []any) (any, error) {
	return &Class{id: vm.id(), Name: className(obj)}, nil
}

// unbound is the value of a var without a root binding
// (clojure.lang.Var$Unbound).
type unbound struct {
	id uintptr
	v  *Var
}

func (u *unbound) Handle() uintptr { return u.id }
func (u *unbound) String() string  { return fmt.Sprintf("Unbound: %s", u.v) }
