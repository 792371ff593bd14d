package classpath

import (
	"context"
	"fmt"
)

const (
	DefaultNREPLVersion      = "0.8.3"
	DefaultCiderNREPLVersion = "0.25.5"
)

// DefaultVersions of the nREPL server and the CIDER middleware.
var DefaultVersions = Versions{
	NREPL:      DefaultNREPLVersion,
	CiderNREPL: DefaultCiderNREPLVersion,
}

// Versions of the dependencies injected by REPL.  Empty fields default
// to DefaultVersions.
type Versions struct {
	NREPL      string
	CiderNREPL string
}

func (v Versions) nrepl() string {
	if v.NREPL == "" {
		return DefaultNREPLVersion
	}

	return v.NREPL
}

func (v Versions) cider() string {
	if v.CiderNREPL == "" {
		return DefaultCiderNREPLVersion
	}

	return v.CiderNREPL
}

// Deps returns the inline deps.edn map that adds nREPL and cider-nrepl.
func Deps(v Versions) string {
	return fmt.Sprintf(`{:deps {nrepl/nrepl {:mvn/version "%s"} cider/cider-nrepl {:mvn/version "%s"}}}`,
		v.nrepl(), v.cider())
}

// REPL resolves a classpath that additionally contains an nREPL server
// and the cider-nrepl middleware.  The extra args are passed after the
// -Sdeps argument.
func REPL(ctx context.Context, src Source, v Versions, args ...string) (Classpath, error) {
	return src.Resolve(ctx, append([]string{"-Sdeps", Deps(v)}, args...)...)
}
