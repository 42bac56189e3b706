package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/a/b/c", "/a/b/c"},
		{"/a/./b", "/a/b"},
		{"/a/b/../c", "/a/c"},
		{"/a//b", "/a/b"},
		{"/a/b/", "/a/b"},
		{"/../a", "/a"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "Normalize(%q)", tc.in)
	}
}

func TestNormalizeRejectsRelative(t *testing.T) {
	_, err := Normalize("a/b")
	assert.Error(t, err)
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	_, err := Normalize("")
	assert.Error(t, err)
}

func TestNumComponents(t *testing.T) {
	assert.Equal(t, 1, NumComponents("/"))
	assert.Equal(t, 3, NumComponents("/a/b/c"))
	assert.Equal(t, 4, NumComponents("/a/b/c/"))
}

// Path round-trip: concatenating Split's segments with "/" reproduces the
// path stripped of its leading slash (testable property 3).
func TestSplitRoundTrip(t *testing.T) {
	cases := []string{"/a", "/a/b", "/a/b/c"}
	for _, p := range cases {
		segs := Split(p)
		joined := segs[0]
		for _, s := range segs[1:] {
			joined += "/" + s
		}
		assert.Equal(t, p[1:], joined, "Split(%q)", p)
		assert.Len(t, segs, NumComponents(p))
	}
}

func TestSplitRoot(t *testing.T) {
	segs := Split("/")
	require.Len(t, segs, 1)
	assert.Equal(t, "", segs[0])
}

func TestSplitTrailingSlashEmitsEmptySegment(t *testing.T) {
	segs := Split("/a/b/")
	require.Len(t, segs, 3)
	assert.Equal(t, []string{"a", "b", ""}, segs)
}
