package patcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_AlignedPatch(t *testing.T) {
	issues := Verify("a\nb\nc\n", "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c")
	assert.Empty(t, issues)
}

func TestVerify_ShiftedHunk(t *testing.T) {
	original := "x\na\nb\nc\ny"
	patch := "@@ -4,3 +4,3 @@\n a\n-b\n+B\n c"

	issues := Verify(original, patch)
	require.Len(t, issues, 1)
	assert.Equal(t, Issue{Hunk: 1, Line: 4, Reason: "context does not match original", FoundAt: 2}, issues[0])
	assert.Equal(t, "hunk 1 at line 4: context does not match original (target lines found at line 2)", issues[0].String())
}

func TestVerify_LengthMismatch(t *testing.T) {
	issues := Verify("a\nb\nc", "@@ -1,1 +1,1 @@\n a\n b\n c")
	require.Len(t, issues, 1)
	assert.Equal(t, "header declares 1 original line(s), body has 3", issues[0].Reason)
}

func TestVerify_NotFoundAnywhere(t *testing.T) {
	issues := Verify("a\nb", "@@ -1,1 +1,1 @@\n-zzz\n+y")
	require.Len(t, issues, 1)
	assert.Equal(t, 0, issues[0].FoundAt)
}

func TestVerify_PureAdditionHunk(t *testing.T) {
	assert.Empty(t, Verify("", "@@ -0,0 +1,2 @@\n+x\n+y"))
}

func TestVerify_SecondHunkNumbered(t *testing.T) {
	original := "l1\nl2\nl3\nl4\nl5"
	patch := "@@ -1,1 +1,1 @@\n-l1\n+L1\n@@ -4,1 +4,1 @@\n-l3\n+L3"

	issues := Verify(original, patch)
	require.Len(t, issues, 1)
	assert.Equal(t, 2, issues[0].Hunk)
	assert.Equal(t, 3, issues[0].FoundAt)
}

func TestMatchBlock_IgnoresWhitespace(t *testing.T) {
	source := []string{"func f() {", "", "    return   1", "}"}
	assert.Equal(t, 1, matchBlock(source, []string{"func f() {", "return 1"}))
	assert.Equal(t, 0, matchBlock(source, []string{"return 2"}))
	assert.Equal(t, 0, matchBlock(source, []string{"", "  "}))
}
