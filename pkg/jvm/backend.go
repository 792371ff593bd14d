package jvm

import (
	"fmt"
	"sort"
	"sync"
)

var backends = struct {
	sync.RWMutex
	m map[string]Launcher
}{m: make(map[string]Launcher)}

// Register makes a backend available by name.  It is intended to be
// called from the init function of backend packages, and panics if the
// name is already taken or l is nil.
func Register(name string, l Launcher) {
	backends.Lock()
	defer backends.Unlock()

	if l == nil {
		panic("jvm: Register launcher is nil")
	}

	if _, dup := backends.m[name]; dup {
		panic("jvm: Register called twice for backend " + name)
	}

	backends.m[name] = l
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Launcher, error) {
	backends.RLock()
	defer backends.RUnlock()

	if l, ok := backends.m[name]; ok {
		return l, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoBackend, name)
}

// Backends returns the sorted names of registered backends.
func Backends() []string {
	backends.RLock()
	defer backends.RUnlock()

	names := make([]string, 0, len(backends.m))
	for name := range backends.m {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
