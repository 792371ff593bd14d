//go:generate mockgen -source=classpath.go -destination=../../internal/mock/pkg/classpath/classpath.go -package=mock_classpath

// Package classpath computes JVM classpaths with the Clojure CLI.
//
// The CLI is asked to print its resolved classpath (clojure -Spath).  It
// picks up deps.edn from its working directory, and further dependencies
// can be injected inline with -Sdeps.
package classpath

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand is the Clojure CLI executable.
const DefaultCommand = "clojure"

// ErrResolve is matched by all classpath resolution failures.
var ErrResolve = errors.New("classpath resolution failed")

// Classpath is an ordered list of filesystem locations.
type Classpath []string

// Parse splits the output of `clojure -Spath` on the platform path
// separator.
func Parse(out string) Classpath {
	out = strings.TrimSpace(out)
	if out == "" {
		return Classpath{}
	}

	return strings.Split(out, string(os.PathListSeparator))
}

func (cp Classpath) String() string {
	return strings.Join(cp, string(os.PathListSeparator))
}

// Source resolves a classpath from Clojure CLI arguments.
type Source interface {
	Resolve(ctx context.Context, args ...string) (Classpath, error)
}

// Runner executes a subprocess and returns its standard output.
type Runner interface {
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Exec runs subprocesses with os/exec.
type Exec struct{}

func (Exec) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return out, err
}

// Tool resolves classpaths by running the Clojure CLI.  The zero-value
// Tool runs DefaultCommand in the current working directory.
type Tool struct {
	Command string // defaults to DefaultCommand
	Dir     string // working directory
	Runner  Runner // defaults to Exec
}

// Resolve runs `<command> <args...> -Spath`.
func (t Tool) Resolve(ctx context.Context, args ...string) (Classpath, error) {
	argv := append(append(make([]string, 0, len(args)+1), args...), "-Spath")

	out, err := t.runner().Output(ctx, t.Dir, t.command(), argv...)
	if err != nil {
		return nil, &Error{Command: t.command(), Args: argv, Err: err}
	}

	return Parse(string(out)), nil
}

func (t Tool) command() string {
	if t.Command == "" {
		return DefaultCommand
	}

	return t.Command
}

func (t Tool) runner() Runner {
	if t.Runner == nil {
		return Exec{}
	}

	return t.Runner
}

// Error reports a failed invocation of the Clojure CLI.
type Error struct {
	Command string
	Args    []string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s: %v",
		ErrResolve, e.Command, strings.Join(e.Args, " "), e.Err)
}

func (e *Error) Is(target error) bool { return target == ErrResolve }
func (e *Error) Unwrap() error        { return e.Err }
