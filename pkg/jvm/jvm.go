//go:generate mockgen -source=jvm.go -destination=../../internal/mock/pkg/jvm/jvm.go -package=mock_jvm

// Package jvm exposes the reflective call surface of a Java Virtual Machine.
//
// A VM is reached exclusively through static and instance method calls that
// name their target by class, method and JNI method descriptor.  Values that
// live inside the VM are represented by the opaque Object handle.  Concrete
// VMs are provided by backends (see Register), and a process can host at most
// one of them over its lifetime (see Process).
package jvm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyStarted is returned when attempting to start a second VM in
	// the same process.  The JVM does not support restarts.
	ErrAlreadyStarted = errors.New("jvm already started")

	// ErrNotStarted is returned when the VM is requested before it has been
	// started, or after it was killed.
	ErrNotStarted = errors.New("jvm not started")

	// ErrNoBackend is returned by Lookup for unregistered backend names.
	ErrNoBackend = errors.New("no such backend")

	// ErrSignature is returned when call arguments do not match the method
	// descriptor.
	ErrSignature = errors.New("signature mismatch")

	// ErrForeignObject is returned when an Object created by one VM is
	// passed to another.
	ErrForeignObject = errors.New("foreign object")
)

// Object is an opaque handle to a value owned by the VM.  The host holds a
// reference, never a copy.
type Object interface {
	// Handle returns an identifier that is unique for the lifetime of the
	// referenced value.  It is intended for logging and equality checks.
	Handle() uintptr
}

// VM is a running Java Virtual Machine.
//
// Arguments are marshaled according to the method descriptor:  Go strings
// become java.lang.String, integers become long (or a boxed Long for
// reference parameters), float64 becomes double (or Double), bool becomes
// boolean (or Boolean), nil becomes null and Objects are passed through.
//
// Return values are unmarshaled from the descriptor's return type:  V yields
// nil, J yields int64, I yields int32, Z yields bool, D yields float64,
// java.lang.String yields a Go string and any other reference yields an
// Object, or nil for null.
type VM interface {
	// CallStatic invokes a static method.  The class name uses slashes as
	// separators, e.g. "clojure/lang/RT".
	CallStatic(class, method string, d Descriptor, args ...any) (any, error)

	// Call invokes an instance method on obj.
	Call(obj Object, method string, d Descriptor, args ...any) (any, error)

	// Close destroys the VM.  It cannot be restarted.
	Close() error
}

// Launcher starts a VM.  Each backend provides one.
type Launcher interface {
	Launch(Options) (VM, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(Options) (VM, error)

func (f LauncherFunc) Launch(opt Options) (VM, error) {
	return f(opt)
}

// Options configure a VM at start-up.
type Options struct {
	// Classpath is the ordered list of locations searched for classes.
	Classpath []string

	// Headless disables the graphical subsystem (java.awt.headless).
	Headless bool

	// Flags are additional raw VM options, e.g. "-Xmx2g".
	Flags []string

	// Library is the path to the libjvm shared object.  Backends that
	// load the VM dynamically fall back to $JAVA_HOME when it is empty.
	Library string
}

// VMArgs renders the options as JVM initialization arguments.
func (opt Options) VMArgs(sep string) []string {
	args := make([]string, 0, len(opt.Flags)+2)
	if len(opt.Classpath) > 0 {
		args = append(args, "-Djava.class.path="+strings.Join(opt.Classpath, sep))
	}

	if opt.Headless {
		args = append(args, "-Djava.awt.headless=true")
	}

	return append(args, opt.Flags...)
}

// Exception is a Java exception raised by a method call.
type Exception struct {
	Class   string // binary class name, e.g. java.lang.IllegalStateException
	Message string
}

// ParseException parses the output of Throwable.toString().
func ParseException(s string) *Exception {
	class, msg, _ := strings.Cut(s, ": ")
	return &Exception{Class: class, Message: msg}
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Class
	}

	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// CheckArgs reports whether args can be passed to a method with the
// given parameter types.
func CheckArgs(params []Type, args []any) error {
	if len(params) != len(args) {
		return fmt.Errorf("%w: expected %d argument(s), got %d",
			ErrSignature, len(params), len(args))
	}

	for i, p := range params {
		if !p.Accepts(args[i]) {
			return fmt.Errorf("%w: argument %d (%T) not assignable to %s",
				ErrSignature, i, args[i], p)
		}
	}

	return nil
}
