//go:build jni && cgo

package jni

/*
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include <dlfcn.h>
#include <jni.h>

typedef jint (*create_vm_fn)(JavaVM **, void **, void *);

static void *cljhost_dlopen(const char *path) {
	return dlopen(path, RTLD_NOW | RTLD_GLOBAL);
}

static jint cljhost_create_vm(void *lib, char **opts, int n, JavaVM **vm) {
	create_vm_fn create = (create_vm_fn) dlsym(lib, "JNI_CreateJavaVM");
	if (create == NULL) {
		return JNI_ERR;
	}

	JavaVMOption *options = calloc(n > 0 ? n : 1, sizeof(JavaVMOption));
	for (int i = 0; i < n; i++) {
		options[i].optionString = opts[i];
	}

	JavaVMInitArgs args;
	args.version = JNI_VERSION_1_8;
	args.nOptions = n;
	args.options = options;
	args.ignoreUnrecognized = JNI_FALSE;

	JNIEnv *env;
	jint rc = create(vm, (void **) &env, &args);
	free(options);
	return rc;
}

static jint cljhost_attach(JavaVM *vm, JNIEnv **env) {
	return (*vm)->AttachCurrentThreadAsDaemon(vm, (void **) env, NULL);
}

static jint cljhost_destroy(JavaVM *vm) {
	return (*vm)->DestroyJavaVM(vm);
}

static jclass cljhost_find_class(JNIEnv *env, const char *name) {
	return (*env)->FindClass(env, name);
}

static jclass cljhost_object_class(JNIEnv *env, jobject obj) {
	return (*env)->GetObjectClass(env, obj);
}

static jmethodID cljhost_method(JNIEnv *env, jclass c, const char *name, const char *sig, int stat) {
	if (stat) {
		return (*env)->GetStaticMethodID(env, c, name, sig);
	}
	return (*env)->GetMethodID(env, c, name, sig);
}

static jobject cljhost_global(JNIEnv *env, jobject obj) {
	return (*env)->NewGlobalRef(env, obj);
}

static void cljhost_delete_global(JNIEnv *env, jobject obj) {
	(*env)->DeleteGlobalRef(env, obj);
}

static void cljhost_delete_local(JNIEnv *env, jobject obj) {
	(*env)->DeleteLocalRef(env, obj);
}

static jboolean cljhost_instance_of(JNIEnv *env, jobject obj, jclass c) {
	return (*env)->IsInstanceOf(env, obj, c);
}

static jstring cljhost_new_string(JNIEnv *env, const jchar *s, jsize n) {
	return (*env)->NewString(env, s, n);
}

static jsize cljhost_string_length(JNIEnv *env, jstring s) {
	return (*env)->GetStringLength(env, s);
}

static void cljhost_string_region(JNIEnv *env, jstring s, jsize n, jchar *buf) {
	(*env)->GetStringRegion(env, s, 0, n, buf);
}

static jthrowable cljhost_exception(JNIEnv *env) {
	jthrowable t = (*env)->ExceptionOccurred(env);
	if (t != NULL) {
		(*env)->ExceptionClear(env);
	}
	return t;
}

static jvalue cljhost_call_static(JNIEnv *env, jclass c, jmethodID m, char kind, jvalue *args) {
	jvalue r;
	r.j = 0;

	switch (kind) {
	case 'V': (*env)->CallStaticVoidMethodA(env, c, m, args); break;
	case 'Z': r.z = (*env)->CallStaticBooleanMethodA(env, c, m, args); break;
	case 'B': r.b = (*env)->CallStaticByteMethodA(env, c, m, args); break;
	case 'C': r.c = (*env)->CallStaticCharMethodA(env, c, m, args); break;
	case 'S': r.s = (*env)->CallStaticShortMethodA(env, c, m, args); break;
	case 'I': r.i = (*env)->CallStaticIntMethodA(env, c, m, args); break;
	case 'J': r.j = (*env)->CallStaticLongMethodA(env, c, m, args); break;
	case 'F': r.f = (*env)->CallStaticFloatMethodA(env, c, m, args); break;
	case 'D': r.d = (*env)->CallStaticDoubleMethodA(env, c, m, args); break;
	default:  r.l = (*env)->CallStaticObjectMethodA(env, c, m, args);
	}

	return r;
}

static jvalue cljhost_call(JNIEnv *env, jobject obj, jmethodID m, char kind, jvalue *args) {
	jvalue r;
	r.j = 0;

	switch (kind) {
	case 'V': (*env)->CallVoidMethodA(env, obj, m, args); break;
	case 'Z': r.z = (*env)->CallBooleanMethodA(env, obj, m, args); break;
	case 'B': r.b = (*env)->CallByteMethodA(env, obj, m, args); break;
	case 'C': r.c = (*env)->CallCharMethodA(env, obj, m, args); break;
	case 'S': r.s = (*env)->CallShortMethodA(env, obj, m, args); break;
	case 'I': r.i = (*env)->CallIntMethodA(env, obj, m, args); break;
	case 'J': r.j = (*env)->CallLongMethodA(env, obj, m, args); break;
	case 'F': r.f = (*env)->CallFloatMethodA(env, obj, m, args); break;
	case 'D': r.d = (*env)->CallDoubleMethodA(env, obj, m, args); break;
	default:  r.l = (*env)->CallObjectMethodA(env, obj, m, args);
	}

	return r;
}
*/
import "C"

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/wetware/cljhost/pkg/jvm"
)

func init() {
	jvm.Register("jni", jvm.LauncherFunc(Launch))
}

var (
	_ jvm.VM     = (*VM)(nil)
	_ jvm.Object = (*ref)(nil)
)

// Launch loads libjvm and creates the VM.  The JNI does not support
// creating more than one VM per process, nor creating one after a VM was
// destroyed.
func Launch(opt jvm.Options) (jvm.VM, error) {
	lib, err := dlopen(Candidates(opt, runtime.GOOS, os.Getenv("JAVA_HOME")))
	if err != nil {
		return nil, err
	}

	args := opt.VMArgs(string(os.PathListSeparator))
	cargs := make([]*C.char, len(args)+1)
	for i, arg := range args {
		cargs[i] = C.CString(arg)
		defer C.free(unsafe.Pointer(cargs[i]))
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vm := &VM{classes: make(map[string]C.jclass)}
	if rc := C.cljhost_create_vm(lib, &cargs[0], C.int(len(args)), &vm.jvm); rc != C.JNI_OK {
		return nil, fmt.Errorf("JNI_CreateJavaVM: error %d", int(rc))
	}

	return vm, nil
}

func dlopen(paths []string) (unsafe.Pointer, error) {
	var errs []string
	for _, path := range paths {
		cpath := C.CString(path)
		lib := C.cljhost_dlopen(cpath)
		C.free(unsafe.Pointer(cpath))

		if lib != nil {
			return lib, nil
		}

		errs = append(errs, C.GoString(C.dlerror()))
	}

	return nil, fmt.Errorf("load libjvm: %s", strings.Join(errs, "; "))
}

// VM is a JVM running in the host process.
type VM struct {
	jvm *C.JavaVM

	mu      sync.Mutex
	closed  bool
	classes map[string]C.jclass // global refs
}

// env attaches the calling thread and returns its JNI environment.  The
// goroutine stays locked to the thread until release is called.
func (vm *VM) env() (env *C.JNIEnv, release func(), err error) {
	vm.mu.Lock()
	closed := vm.closed
	vm.mu.Unlock()

	if closed {
		return nil, nil, jvm.ErrNotStarted
	}

	runtime.LockOSThread()
	if rc := C.cljhost_attach(vm.jvm, &env); rc != C.JNI_OK {
		runtime.UnlockOSThread()
		return nil, nil, fmt.Errorf("attach thread: error %d", int(rc))
	}

	return env, runtime.UnlockOSThread, nil
}

func (vm *VM) Close() error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return nil
	}
	vm.closed = true
	vm.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var env *C.JNIEnv
	if rc := C.cljhost_attach(vm.jvm, &env); rc != C.JNI_OK {
		return fmt.Errorf("attach thread: error %d", int(rc))
	}

	if rc := C.cljhost_destroy(vm.jvm); rc != C.JNI_OK {
		return fmt.Errorf("DestroyJavaVM: error %d", int(rc))
	}

	return nil
}

func (vm *VM) CallStatic(class, method string, d jvm.Descriptor, args ...any) (any, error) {
	params, ret, err := d.Parse()
	if err != nil {
		return nil, err
	}

	if err = jvm.CheckArgs(params, args); err != nil {
		return nil, err
	}

	env, release, err := vm.env()
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := vm.class(env, class)
	if err != nil {
		return nil, err
	}

	m, err := methodID(env, c, class, method, d, true)
	if err != nil {
		return nil, err
	}

	call, err := vm.marshal(env, params, args)
	if err != nil {
		return nil, err
	}
	defer call.free(env)

	r := C.cljhost_call_static(env, c, m, C.char(ret.Kind()), call.values())
	runtime.KeepAlive(args)

	return vm.result(env, ret, r)
}

func (vm *VM) Call(obj jvm.Object, method string, d jvm.Descriptor, args ...any) (any, error) {
	self, err := vm.own(obj)
	if err != nil {
		return nil, err
	}

	if self == nil {
		return nil, &jvm.Exception{Class: "java.lang.NullPointerException"}
	}

	params, ret, err := d.Parse()
	if err != nil {
		return nil, err
	}

	if err = jvm.CheckArgs(params, args); err != nil {
		return nil, err
	}

	env, release, err := vm.env()
	if err != nil {
		return nil, err
	}
	defer release()

	c := C.cljhost_object_class(env, self.obj)
	defer C.cljhost_delete_local(env, C.jobject(c))

	m, err := methodID(env, c, "", method, d, false)
	if err != nil {
		return nil, err
	}

	call, err := vm.marshal(env, params, args)
	if err != nil {
		return nil, err
	}
	defer call.free(env)

	r := C.cljhost_call(env, self.obj, m, C.char(ret.Kind()), call.values())
	runtime.KeepAlive(self)
	runtime.KeepAlive(args)

	return vm.result(env, ret, r)
}

// class returns a global reference to the named class, which is cached
// for the lifetime of the VM.
func (vm *VM) class(env *C.JNIEnv, name string) (C.jclass, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if c, ok := vm.classes[name]; ok {
		return c, nil
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	local := C.cljhost_find_class(env, cname)
	if err := exception(env); err != nil {
		return nil, err
	}

	c := C.jclass(C.cljhost_global(env, C.jobject(local)))
	C.cljhost_delete_local(env, C.jobject(local))

	vm.classes[name] = c
	return c, nil
}

func methodID(env *C.JNIEnv, c C.jclass, class, method string, d jvm.Descriptor, static bool) (C.jmethodID, error) {
	cname := C.CString(method)
	defer C.free(unsafe.Pointer(cname))

	csig := C.CString(string(d))
	defer C.free(unsafe.Pointer(csig))

	var stat C.int
	if static {
		stat = 1
	}

	m := C.cljhost_method(env, c, cname, csig, stat)
	if err := exception(env); err != nil {
		return nil, err
	}

	if m == nil {
		return nil, &jvm.Exception{
			Class:   "java.lang.NoSuchMethodError",
			Message: strings.TrimPrefix(class+"."+method+string(d), "."),
		}
	}

	return m, nil
}

// frame holds the marshaled arguments of a call, and the local
// references created for them.
type frame struct {
	args   []C.jvalue
	locals []C.jobject
}

func (f *frame) values() *C.jvalue {
	if len(f.args) == 0 {
		return nil
	}

	return &f.args[0]
}

func (f *frame) free(env *C.JNIEnv) {
	for _, obj := range f.locals {
		C.cljhost_delete_local(env, obj)
	}
}

func (vm *VM) marshal(env *C.JNIEnv, params []jvm.Type, args []any) (*frame, error) {
	f := &frame{args: make([]C.jvalue, len(args))}

	for i, p := range params {
		v := unsafe.Pointer(&f.args[i])

		switch p.Kind() {
		case 'Z':
			if args[i].(bool) {
				*(*C.jboolean)(v) = C.JNI_TRUE
			}
		case 'B':
			*(*C.jbyte)(v) = C.jbyte(toInt64(args[i]))
		case 'C':
			*(*C.jchar)(v) = C.jchar(toInt64(args[i]))
		case 'S':
			*(*C.jshort)(v) = C.jshort(toInt64(args[i]))
		case 'I':
			*(*C.jint)(v) = C.jint(toInt64(args[i]))
		case 'J':
			*(*C.jlong)(v) = C.jlong(toInt64(args[i]))
		case 'F':
			*(*C.jfloat)(v) = C.jfloat(toFloat64(args[i]))
		case 'D':
			*(*C.jdouble)(v) = C.jdouble(toFloat64(args[i]))
		default:
			obj, local, err := vm.box(env, args[i])
			if err != nil {
				f.free(env)
				return nil, err
			}

			if local {
				f.locals = append(f.locals, obj)
			}

			*(*C.jobject)(v) = obj
		}
	}

	return f, nil
}

// box converts a Go value to a reference.  Local references must be
// deleted by the caller.
func (vm *VM) box(env *C.JNIEnv, arg any) (obj C.jobject, local bool, err error) {
	switch x := arg.(type) {
	case nil:
		return nil, false, nil

	case jvm.Object:
		r, err := vm.own(x)
		if err != nil || r == nil {
			return nil, false, err
		}
		return r.obj, false, nil

	case string:
		obj = C.jobject(newString(env, x))
		return obj, true, exception(env)

	case bool:
		res, err := vm.valueOf(env, "java/lang/Boolean", jvm.Boolean, x)
		return res, true, err

	case float32, float64:
		res, err := vm.valueOf(env, "java/lang/Double", jvm.Double, toFloat64(x))
		return res, true, err
	}

	res, err := vm.valueOf(env, "java/lang/Long", jvm.Long, toInt64(arg))
	return res, true, err
}

// valueOf calls the boxing factory of a wrapper class, which returns a
// local reference.
func (vm *VM) valueOf(env *C.JNIEnv, class string, t jvm.Type, v any) (C.jobject, error) {
	c, err := vm.class(env, class)
	if err != nil {
		return nil, err
	}

	d := jvm.Method(jvm.Class(class), t)
	m, err := methodID(env, c, class, "valueOf", d, true)
	if err != nil {
		return nil, err
	}

	f, err := vm.marshal(env, []jvm.Type{t}, []any{v})
	if err != nil {
		return nil, err
	}

	r := C.cljhost_call_static(env, c, m, 'L', f.values())
	if err = exception(env); err != nil {
		return nil, err
	}

	return *(*C.jobject)(unsafe.Pointer(&r)), nil
}

func (vm *VM) result(env *C.JNIEnv, ret jvm.Type, r C.jvalue) (any, error) {
	if err := exception(env); err != nil {
		return nil, err
	}

	v := unsafe.Pointer(&r)

	switch ret.Kind() {
	case 'V':
		return nil, nil
	case 'Z':
		return *(*C.jboolean)(v) != C.JNI_FALSE, nil
	case 'B':
		return int8(*(*C.jbyte)(v)), nil
	case 'C':
		return rune(*(*C.jchar)(v)), nil
	case 'S':
		return int16(*(*C.jshort)(v)), nil
	case 'I':
		return int32(*(*C.jint)(v)), nil
	case 'J':
		return int64(*(*C.jlong)(v)), nil
	case 'F':
		return float32(*(*C.jfloat)(v)), nil
	case 'D':
		return float64(*(*C.jdouble)(v)), nil
	}

	obj := *(*C.jobject)(v)
	if obj == nil {
		return nil, nil
	}
	defer C.cljhost_delete_local(env, obj)

	return vm.unbox(env, obj)
}

// unbox converts strings and boxed scalars to Go values, and wraps any
// other reference in a global ref.
func (vm *VM) unbox(env *C.JNIEnv, obj C.jobject) (any, error) {
	for _, u := range unboxers {
		c, err := vm.class(env, u.class)
		if err != nil {
			return nil, err
		}

		if C.cljhost_instance_of(env, obj, c) == C.JNI_FALSE {
			continue
		}

		if u.class == "java/lang/String" {
			return goString(env, C.jstring(obj)), exception(env)
		}

		m, err := methodID(env, c, u.class, u.method, jvm.Method(u.kind), false)
		if err != nil {
			return nil, err
		}

		r := C.cljhost_call(env, obj, m, C.char(u.kind.Kind()), nil)
		return vm.result(env, u.kind, r)
	}

	r := &ref{vm: vm, obj: C.cljhost_global(env, obj)}
	runtime.SetFinalizer(r, (*ref).release)
	return r, nil
}

var unboxers = []struct {
	class, method string
	kind          jvm.Type
}{
	{class: "java/lang/String"},
	{"java/lang/Long", "longValue", jvm.Long},
	{"java/lang/Integer", "intValue", jvm.Int},
	{"java/lang/Double", "doubleValue", jvm.Double},
	{"java/lang/Boolean", "booleanValue", jvm.Boolean},
}

func (vm *VM) own(obj jvm.Object) (*ref, error) {
	if obj == nil {
		return nil, nil
	}

	r, ok := obj.(*ref)
	if !ok || r.vm != vm {
		return nil, fmt.Errorf("%w: %T", jvm.ErrForeignObject, obj)
	}

	return r, nil
}

// exception returns the pending Java exception, if any, and clears it.
func exception(env *C.JNIEnv) error {
	t := C.cljhost_exception(env)
	if t == nil {
		return nil
	}
	defer C.cljhost_delete_local(env, C.jobject(t))

	c := C.cljhost_object_class(env, C.jobject(t))
	defer C.cljhost_delete_local(env, C.jobject(c))

	name := C.CString("toString")
	defer C.free(unsafe.Pointer(name))

	sig := C.CString("()Ljava/lang/String;")
	defer C.free(unsafe.Pointer(sig))

	m := C.cljhost_method(env, c, name, sig, 0)
	if m == nil {
		C.cljhost_exception(env)
		return &jvm.Exception{Class: "java.lang.Throwable"}
	}

	r := C.cljhost_call(env, C.jobject(t), m, 'L', nil)
	s := *(*C.jobject)(unsafe.Pointer(&r))
	if C.cljhost_exception(env) != nil || s == nil {
		return &jvm.Exception{Class: "java.lang.Throwable"}
	}
	defer C.cljhost_delete_local(env, s)

	return jvm.ParseException(goString(env, C.jstring(s)))
}

// newString creates a java.lang.String from UTF-16, so that NUL and
// supplementary characters survive the round trip.
func newString(env *C.JNIEnv, s string) C.jstring {
	u := append(encodeString(s), 0)
	return C.cljhost_new_string(env, (*C.jchar)(unsafe.Pointer(&u[0])), C.jsize(len(u)-1))
}

func goString(env *C.JNIEnv, s C.jstring) string {
	n := C.cljhost_string_length(env, s)
	buf := make([]uint16, int(n)+1)
	C.cljhost_string_region(env, s, n, (*C.jchar)(unsafe.Pointer(&buf[0])))
	return decodeString(buf[:n])
}

// ref is a global reference to a Java object.
type ref struct {
	vm  *VM
	obj C.jobject
}

func (r *ref) Handle() uintptr { return uintptr(unsafe.Pointer(r.obj)) }

func (r *ref) release() {
	env, release, err := r.vm.env()
	if err != nil {
		return // VM destroyed
	}
	defer release()

	C.cljhost_delete_global(env, r.obj)
}
