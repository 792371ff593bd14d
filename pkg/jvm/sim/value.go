package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Func is a native implementation of clojure.lang.IFn.
type Func func(args ...any) (any, error)

// Var is a named reference cell.  The NS and Name fields are indexed and
// must not change after interning.  The root is guarded by the VM lock.
type Var struct {
	id       uintptr
	NS, Name string

	bound bool
	root  any
}

func (v *Var) Handle() uintptr { return v.id }
func (v *Var) String() string  { return "#'" + v.NS + "/" + v.Name }

// Symbol is an interned clojure.lang.Symbol.
type Symbol struct {
	id   uintptr
	Name string
}

func (s *Symbol) Handle() uintptr { return s.id }
func (s *Symbol) String() string  { return s.Name }

// Keyword is an interned clojure.lang.Keyword.
type Keyword struct {
	id   uintptr
	Name string
}

func (k *Keyword) Handle() uintptr { return k.id }
func (k *Keyword) String() string  { return ":" + k.Name }

// Map is an immutable associative structure, analogous to
// clojure.lang.PersistentHashMap.
type Map struct {
	id uintptr
	m  map[any]any
}

func (m *Map) Handle() uintptr { return m.id }

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.m)
}

// Get returns the value associated with key.
func (m *Map) Get(key any) (v any, ok bool) {
	if m == nil {
		return nil, false
	}

	v, ok = m.m[key]
	return
}

// Keys returns the map's keys in printed order.
func (m *Map) Keys() []any {
	if m == nil {
		return nil
	}

	keys := make([]any, 0, len(m.m))
	for k := range m.m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		return render(keys[i]) < render(keys[j])
	})

	return keys
}

func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", render(k), render(m.m[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// Pointer is a tech.v3.datatype.ffi.Pointer.
type Pointer struct {
	id      uintptr
	Address int64
}

func (p *Pointer) Handle() uintptr { return p.id }
func (p *Pointer) String() string  { return fmt.Sprintf("{:address 0x%016X}", p.Address) }

// Class is a java.lang.Class.
type Class struct {
	id   uintptr
	Name string
}

func (c *Class) Handle() uintptr { return c.id }
func (c *Class) String() string  { return "class " + c.Name }

func className(v any) string {
	switch v.(type) {
	case *Var:
		return "clojure.lang.Var"
	case *Symbol:
		return "clojure.lang.Symbol"
	case *Keyword:
		return "clojure.lang.Keyword"
	case *Map:
		return "clojure.lang.PersistentHashMap"
	case *Pointer:
		return "tech.v3.datatype.ffi.Pointer"
	case *Class:
		return "java.lang.Class"
	case Func:
		return "clojure.lang.AFunction"
	case string:
		return "java.lang.String"
	case int64:
		return "java.lang.Long"
	case float64:
		return "java.lang.Double"
	case bool:
		return "java.lang.Boolean"
	}

	return "java.lang.Object"
}

// render prints v the way Clojure's str/pr would, for the subset of
// values the simulator knows about.
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case Func:
		return "#function"
	}

	return fmt.Sprint(v)
}
