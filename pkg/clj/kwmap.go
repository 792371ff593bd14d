package clj

import (
	"fmt"
	"sort"

	"github.com/wetware/cljhost/pkg/jvm"
)

// KeywordMap converts m into a persistent Clojure map whose keys are
// keywords.  It folds clojure.core/assoc over the entries, starting from
// nil, so an empty m yields nil.  Keys are visited in sorted order; the
// resulting map does not depend on it.
func (rt *Runtime) KeywordMap(m map[string]any) (jvm.Object, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return rt.assocKeywords(keys, m)
}

// assocKeywords folds the entries of m into a map, in the order given
// by keys.
func (rt *Runtime) assocKeywords(keys []string, m map[string]any) (jvm.Object, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	keyword, err := rt.Resolve("clojure.core/keyword")
	if err != nil {
		return nil, err
	}

	assoc, err := rt.Resolve("clojure.core/assoc")
	if err != nil {
		return nil, err
	}

	var acc any
	for _, k := range keys {
		kw, err := keyword.Invoke(k)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", k, err)
		}

		if acc, err = assoc.Invoke(acc, kw, m[k]); err != nil {
			return nil, fmt.Errorf("assoc %q: %w", k, err)
		}
	}

	obj, _ := acc.(jvm.Object)
	return obj, nil
}
