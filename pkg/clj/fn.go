package clj

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wetware/cljhost"
	"github.com/wetware/cljhost/pkg/jvm"
)

// MaxArity is the largest number of positional arguments accepted by
// clojure.lang.IFn.invoke.
const MaxArity = 19

var invokers [MaxArity + 1]invoker

func init() {
	for n := range invokers {
		invokers[n] = invoker{
			desc:   jvm.ObjectMethod(n),
			bucket: "invoke.arity." + strconv.Itoa(n),
		}
	}
}

// invoker is a slot in the dispatch table.  Each slot is bound to the
// IFn.invoke overload of matching arity.
type invoker struct {
	desc   jvm.Descriptor
	bucket string
}

func (iv invoker) call(vm jvm.VM, obj jvm.Object, args []any) (any, error) {
	return vm.Call(obj, "invoke", iv.desc, args...)
}

// Kwargs are keyword arguments.  They are not supported by IFn, and are
// accepted by Apply only in order to be rejected explicitly.
type Kwargs map[string]any

// Fn is a callable handle to a clojure.lang.IFn.  It is stateless beyond
// the wrapped reference, and safe to call repeatedly.
type Fn struct {
	vm      jvm.VM
	obj     jvm.Object
	metrics cljhost.Metrics
}

// NewFn wraps obj, which must implement clojure.lang.IFn.
func NewFn(vm jvm.VM, obj jvm.Object) *Fn {
	return &Fn{vm: vm, obj: obj, metrics: cljhost.NopMetrics{}}
}

// Object returns the wrapped reference.
func (f *Fn) Object() jvm.Object { return f.obj }

// Invoke calls the function with positional arguments.  The IFn.invoke
// overload is selected by the number of arguments.
func (f *Fn) Invoke(args ...any) (any, error) {
	if len(args) > MaxArity {
		return nil, &ArityError{Got: len(args)}
	}

	iv := invokers[len(args)]
	f.metrics.Incr(iv.bucket)

	defer func(t time.Time) {
		f.metrics.Duration("invoke", time.Since(t))
	}(time.Now())

	return iv.call(f.vm, f.obj, unwrap(args))
}

// Apply calls the function with positional and keyword arguments.  Any
// keyword argument causes Apply to fail with ErrKeywordArgs, regardless
// of the positional arguments.
func (f *Fn) Apply(args []any, kw Kwargs) (any, error) {
	if len(kw) > 0 {
		return nil, fmt.Errorf("%w (got %d); pass a keyword map instead",
			ErrKeywordArgs, len(kw))
	}

	return f.Invoke(args...)
}

// wrapper is implemented by handles that wrap a VM reference, such as
// *Fn, *Var and GenericObject.
type wrapper interface {
	Object() jvm.Object
}

// unwrap replaces wrappers in args with the references they hold, so
// that vars and objects obtained from a Runtime can be passed back to it.
// Values that are already VM references are passed through.
func unwrap(args []any) []any {
	var out []any
	for i, arg := range args {
		if _, ok := arg.(jvm.Object); ok {
			continue
		}

		w, ok := arg.(wrapper)
		if !ok {
			continue
		}

		if out == nil {
			out = append([]any(nil), args...)
		}
		out[i] = w.Object()
	}

	if out == nil {
		return args
	}

	return out
}
