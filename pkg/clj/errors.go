package clj

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when resolving vars before Init.
	ErrNotInitialized = errors.New("clojure runtime not initialized")

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("clojure runtime already initialized")

	// ErrSymbolNotFound is returned when a var cannot be resolved.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrArity is returned when invoking a function with more positional
	// arguments than IFn supports.
	ErrArity = errors.New("arity not supported")

	// ErrKeywordArgs is returned when a call supplies keyword arguments.
	// Use Runtime.KeywordMap to pass options as a single map instead.
	ErrKeywordArgs = errors.New("keyword arguments not supported")
)

// SymbolError reports a failed var resolution.
type SymbolError struct {
	NS, Name string
	Err      error // cause, if any
}

func (e *SymbolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s/%s", ErrSymbolNotFound, e.NS, e.Name)
	}

	return fmt.Sprintf("%s: %s/%s: %v", ErrSymbolNotFound, e.NS, e.Name, e.Err)
}

func (e *SymbolError) Is(target error) bool { return target == ErrSymbolNotFound }
func (e *SymbolError) Unwrap() error        { return e.Err }

// ArityError reports a call with an unsupported number of positional
// arguments.
type ArityError struct {
	Got int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: %d positional arguments (max %d)", ErrArity, e.Got, MaxArity)
}

func (e *ArityError) Is(target error) bool { return target == ErrArity }
