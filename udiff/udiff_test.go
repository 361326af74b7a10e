package udiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHunk_SingleLineReplacement(t *testing.T) {
	h := BuildHunk("a", "b")
	assert.Equal(t, "@@ -1,1 +1,1 @@\n-a\n+b", h)
}

func TestBuildHunk_MultiLine(t *testing.T) {
	h := BuildHunk("one\ntwo\n", "one\nTWO\nthree\n")
	assert.Equal(t, "@@ -1,2 +1,3 @@\n-one\n-two\n+one\n+TWO\n+three", h)
}

func TestBuildHunk_EmptyOldIsPureAddition(t *testing.T) {
	h := BuildHunk("", "new content\n")
	assert.Equal(t, "@@ -1,0 +1,1 @@\n+new content", h)
}

func TestBuildHunk_EmptyNewIsPureDeletion(t *testing.T) {
	h := BuildHunk("gone\n", "")
	assert.Equal(t, "@@ -1,1 +1,0 @@\n-gone", h)
}

func TestConcatenate_PrefixesFileHeader(t *testing.T) {
	d := Concatenate("src/main.go", []string{"@@ -1,1 +1,1 @@\n-a\n+b"})
	assert.Equal(t, "--- a/src/main.go\n+++ b/src/main.go\n@@ -1,1 +1,1 @@\n-a\n+b\n", d)
}

func TestConcatenate_ZeroHunksIsEmpty(t *testing.T) {
	assert.Equal(t, "", Concatenate("x.txt", nil))
}

func TestExtractHunks_DiscardsFileHeader(t *testing.T) {
	patch := "--- a/x.txt\n+++ b/x.txt\n@@ -1,1 +1,1 @@\n-a\n+b\n"
	hunks := ExtractHunks(patch)
	require.Len(t, hunks, 1)
	assert.Equal(t, "@@ -1,1 +1,1 @@\n-a\n+b", hunks[0])
}

func TestExtractHunks_MultipleHunks(t *testing.T) {
	patch := "--- a/x\n+++ b/x\n@@ -1,1 +1,1 @@\n-a\n+b\n@@ -5,1 +5,2 @@\n-c\n+c1\n+c2\n"
	hunks := ExtractHunks(patch)
	require.Len(t, hunks, 2)
	assert.Equal(t, "@@ -1,1 +1,1 @@\n-a\n+b", hunks[0])
	assert.Equal(t, "@@ -5,1 +5,2 @@\n-c\n+c1\n+c2", hunks[1])
}

func TestExtractHunks_NoMarkersYieldsNil(t *testing.T) {
	assert.Nil(t, ExtractHunks("this is not a patch"))
	assert.Nil(t, ExtractHunks(""))
}

func TestRoundTrip(t *testing.T) {
	// concatenate(p, extractHunks(concatenate(p, [buildHunk(o,n)]))) must
	// reproduce the same diff exactly.
	first := Concatenate("f.txt", []string{BuildHunk("a", "b")})
	second := Concatenate("f.txt", ExtractHunks(first))
	assert.Equal(t, first, second)
	assert.Contains(t, second, "-a")
	assert.Contains(t, second, "+b")
}

func TestRoundTrip_MultiHunk(t *testing.T) {
	first := FromReplacements("pkg/a.go", []Replacement{
		{Old: "x := 1\n", New: "x := 2\n"},
		{Old: "return x\n", New: "return x * 2\n"},
	})
	second := Concatenate("pkg/a.go", ExtractHunks(first))
	assert.Equal(t, first, second)
}

func TestFromReplacements_OneHunkPerReplacement(t *testing.T) {
	d := FromReplacements("a.txt", []Replacement{
		{Old: "1", New: "2"},
		{Old: "3", New: "4"},
	})
	hunks := ExtractHunks(d)
	assert.Len(t, hunks, 2)
}

func TestRewrap(t *testing.T) {
	patch := "--- a/old/path\n+++ b/old/path\n@@ -1,1 +1,1 @@\n-a\n+b\n"
	d, ok := Rewrap("new/path", patch)
	require.True(t, ok)
	assert.Contains(t, d, "--- a/new/path")
	assert.Contains(t, d, "+++ b/new/path")
	assert.Contains(t, d, "-a")

	_, ok = Rewrap("new/path", "no hunks here")
	assert.False(t, ok)
}
