package jvm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDescriptor is returned when parsing a malformed descriptor.
var ErrDescriptor = errors.New("invalid descriptor")

// Type is a JVM field descriptor, e.g. "J" or "Ljava/lang/Object;".
type Type string

const (
	Void    Type = "V"
	Boolean Type = "Z"
	Byte    Type = "B"
	Char    Type = "C"
	Short   Type = "S"
	Int     Type = "I"
	Long    Type = "J"
	Float   Type = "F"
	Double  Type = "D"

	ObjectType Type = "Ljava/lang/Object;"
	StringType Type = "Ljava/lang/String;"
)

// Class returns the descriptor for the named class.  Both binary
// ("java.lang.String") and internal ("java/lang/String") names are
// accepted.
func Class(name string) Type {
	return Type("L" + strings.ReplaceAll(name, ".", "/") + ";")
}

// ArrayOf returns the descriptor of an array whose elements are of type t.
func ArrayOf(t Type) Type { return "[" + t }

// Kind returns the leading character of the descriptor.  Arrays and
// classes both report a reference kind ('[' and 'L' respectively).
func (t Type) Kind() byte {
	if t == "" {
		return 0
	}

	return t[0]
}

// IsReference returns true if values of type t are objects.
func (t Type) IsReference() bool {
	k := t.Kind()
	return k == 'L' || k == '['
}

// ClassName returns the internal class name of a class descriptor, or
// the empty string for primitives and arrays.
func (t Type) ClassName() string {
	if t.Kind() != 'L' {
		return ""
	}

	return string(t[1 : len(t)-1])
}

// Accepts reports whether a Go value can be marshaled into a parameter of
// type t.
func (t Type) Accepts(v any) bool {
	switch t.Kind() {
	case 'J', 'I', 'S', 'B', 'C':
		return isInteger(v)

	case 'Z':
		_, ok := v.(bool)
		return ok

	case 'D', 'F':
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false

	case 'L', '[':
		switch v.(type) {
		case nil, string, bool, float32, float64, Object:
			return true
		}
		return isInteger(v)
	}

	return false
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return true
	}

	return false
}

// Descriptor is a JNI method descriptor, e.g.
// "(Ljava/lang/String;)Lclojure/lang/Symbol;".
type Descriptor string

// Method builds the descriptor of a method taking params and returning ret.
func Method(ret Type, params ...Type) Descriptor {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(string(p))
	}
	b.WriteByte(')')
	b.WriteString(string(ret))
	return Descriptor(b.String())
}

// ObjectMethod returns the descriptor of a method that takes n
// java.lang.Object parameters and returns a java.lang.Object.
func ObjectMethod(n int) Descriptor {
	params := make([]Type, n)
	for i := range params {
		params[i] = ObjectType
	}

	return Method(ObjectType, params...)
}

// Parse splits the descriptor into its parameter and return types.
func (d Descriptor) Parse() (params []Type, ret Type, err error) {
	s := string(d)
	if len(s) < 3 || s[0] != '(' {
		return nil, "", fmt.Errorf("%w: %q", ErrDescriptor, s)
	}

	i := 1
	for i < len(s) && s[i] != ')' {
		var t Type
		if t, i, err = scan(s, i); err != nil {
			return nil, "", err
		}

		if t == Void {
			return nil, "", fmt.Errorf("%w: void parameter in %q", ErrDescriptor, s)
		}

		params = append(params, t)
	}

	if i >= len(s) {
		return nil, "", fmt.Errorf("%w: unterminated parameter list in %q", ErrDescriptor, s)
	}

	if ret, i, err = scan(s, i+1); err != nil {
		return nil, "", err
	}

	if i != len(s) {
		return nil, "", fmt.Errorf("%w: trailing data in %q", ErrDescriptor, s)
	}

	return params, ret, nil
}

// Arity returns the number of parameters declared by the descriptor.
func (d Descriptor) Arity() (int, error) {
	params, _, err := d.Parse()
	return len(params), err
}

func scan(s string, i int) (Type, int, error) {
	if i >= len(s) {
		return "", i, fmt.Errorf("%w: unexpected end of %q", ErrDescriptor, s)
	}

	switch s[i] {
	case 'V', 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D':
		return Type(s[i : i+1]), i + 1, nil

	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 2 {
			return "", i, fmt.Errorf("%w: bad class reference at %d in %q", ErrDescriptor, i, s)
		}
		return Type(s[i : i+end+1]), i + end + 1, nil

	case '[':
		elem, j, err := scan(s, i+1)
		if err != nil {
			return "", i, err
		}

		if elem == Void {
			return "", i, fmt.Errorf("%w: void array in %q", ErrDescriptor, s)
		}
		return Type(s[i:j]), j, nil
	}

	return "", i, fmt.Errorf("%w: unexpected %q at %d in %q", ErrDescriptor, s[i], i, s)
}
