package jni

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wetware/cljhost/pkg/jvm"
)

func TestCandidates(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name, goos, home string
		opt              jvm.Options
		want             []string
	}{
		{
			name: "explicit",
			goos: "linux",
			home: "/usr/lib/jvm/java-17",
			opt:  jvm.Options{Library: "/opt/jdk/lib/server/libjvm.so"},
			want: []string{"/opt/jdk/lib/server/libjvm.so"},
		},
		{
			name: "no JAVA_HOME",
			goos: "linux",
			want: []string{"libjvm.so"},
		},
		{
			name: "linux",
			goos: "linux",
			home: "/usr/lib/jvm/java-17",
			want: []string{
				"/usr/lib/jvm/java-17/lib/server/libjvm.so",
				"/usr/lib/jvm/java-17/jre/lib/server/libjvm.so",
				"/usr/lib/jvm/java-17/jre/lib/amd64/server/libjvm.so",
				"/usr/lib/jvm/java-17/lib/libjvm.so",
			},
		},
		{
			name: "darwin",
			goos: "darwin",
			home: "/Library/Java/Home",
			want: []string{
				"/Library/Java/Home/lib/server/libjvm.dylib",
				"/Library/Java/Home/jre/lib/server/libjvm.dylib",
				"/Library/Java/Home/jre/lib/amd64/server/libjvm.dylib",
				"/Library/Java/Home/lib/libjvm.dylib",
			},
		},
	} {
		assert.Equal(t, tt.want, Candidates(tt.opt, tt.goos, tt.home), tt.name)
	}
}

func TestConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(-3), toInt64(int8(-3)))
	assert.Equal(t, int64(42), toInt64(uint16(42)))
	assert.Equal(t, int64(1<<40), toInt64(1<<40))
	assert.Equal(t, float64(1.5), toFloat64(float32(1.5)))
	assert.True(t, math.IsNaN(toFloat64("nope")))
}

func TestStringCodec(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"",
		"clojure.core",
		"nul\x00inside",
		"caf\u00e9",
		"emoji \U0001F600",
	} {
		u := encodeString(s)
		assert.Equal(t, s, decodeString(u), "should round-trip %q", s)
	}

	assert.Len(t, encodeString("\U0001F600"), 2, "should use a surrogate pair")
	assert.Equal(t, []uint16{'a', 0, 'b'}, encodeString("a\x00b"), "should keep NUL")
}
