// Package jni is the JNI-backed VM.  It loads libjvm with dlopen, creates
// the VM in-process and calls into it through the JNI invocation API.
//
// The backend is compiled with the "jni" build tag and requires cgo and
// the JDK headers:
//
//	CGO_CFLAGS="-I$JAVA_HOME/include -I$JAVA_HOME/include/linux" \
//	    go build -tags jni ./...
//
// Each call locks its goroutine to an OS thread, which is attached to the
// VM as a daemon thread.  There is no dispatcher goroutine, so Java code
// may call back into the host from any thread.  Without the build tag the
// package is empty and the "jni" backend is not registered.
package jni
