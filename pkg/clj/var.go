package clj

import (
	"github.com/wetware/cljhost/pkg/jvm"
)

var ideref = jvm.Method(jvm.ObjectType)

// Var is a handle to a clojure.lang.Var.  A var is a named reference
// cell:  the handle remains valid when the var is re-bound, and calls
// are forwarded to the current root binding.
type Var struct {
	Fn
	NS, Name string
}

func (v *Var) String() string { return "#'" + v.NS + "/" + v.Name }

// Deref returns the var's current root value.
func (v *Var) Deref() (any, error) {
	return v.vm.Call(v.obj, "deref", ideref)
}

// Bound reports whether the var has a root binding.
func (v *Var) Bound() (bool, error) {
	res, err := v.vm.Call(v.obj, "isBound", jvm.Method(jvm.Boolean))
	if err != nil {
		return false, err
	}

	bound, _ := res.(bool)
	return bound, nil
}
