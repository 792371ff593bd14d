package jni

import (
	"math"
	"path/filepath"
	"unicode/utf16"

	"github.com/wetware/cljhost/pkg/jvm"
)

// Candidates returns the paths at which libjvm is searched, in order.
func Candidates(opt jvm.Options, goos, javaHome string) []string {
	if opt.Library != "" {
		return []string{opt.Library}
	}

	name := "libjvm.so"
	switch goos {
	case "darwin":
		name = "libjvm.dylib"
	case "windows":
		name = "jvm.dll"
	}

	if javaHome == "" {
		return []string{name} // let the dynamic loader search
	}

	var dirs []string
	if goos == "windows" {
		dirs = []string{"bin/server", "jre/bin/server"}
	} else {
		dirs = []string{"lib/server", "jre/lib/server", "jre/lib/amd64/server", "lib"}
	}

	paths := make([]string, len(dirs))
	for i, dir := range dirs {
		paths[i] = filepath.Join(javaHome, dir, name)
	}

	return paths
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case uintptr:
		return int64(x)
	}

	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}

	return math.NaN()
}

// encodeString converts s to the UTF-16 code units of a java.lang.String.
// Invalid UTF-8 is replaced with U+FFFD.
func encodeString(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func decodeString(u []uint16) string {
	return string(utf16.Decode(u))
}
