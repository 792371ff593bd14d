package clj

import (
	"github.com/wetware/cljhost/pkg/jvm"
)

var (
	toString = jvm.Method(jvm.StringType)
	getClass = jvm.Method(jvm.Class("java/lang/Class"))
)

// GenericObject exposes the java.lang.Object methods of a VM reference.
type GenericObject struct {
	vm  jvm.VM
	obj jvm.Object
}

// Object returns the wrapped reference.
func (o GenericObject) Object() jvm.Object { return o.obj }

// String calls toString.  Errors are rendered in place of the value.
func (o GenericObject) String() string {
	s, err := o.ToString()
	if err != nil {
		return "#<error: " + err.Error() + ">"
	}

	return s
}

// ToString calls toString and reports any error.
func (o GenericObject) ToString() (string, error) {
	if o.obj == nil {
		return "nil", nil
	}

	res, err := o.vm.Call(o.obj, "toString", toString)
	if err != nil {
		return "", err
	}

	s, _ := res.(string)
	return s, nil
}

// Class returns the object's java.lang.Class.
func (o GenericObject) Class() (GenericObject, error) {
	res, err := o.vm.Call(o.obj, "getClass", getClass)
	if err != nil {
		return GenericObject{}, err
	}

	cls, _ := res.(jvm.Object)
	return GenericObject{vm: o.vm, obj: cls}, nil
}
