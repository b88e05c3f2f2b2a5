package diff

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Compute
// ---------------------------------------------------------------------------

func TestCompute_Identical(t *testing.T) {
	doc := "{\n  \"rex\": [1, 2]\n}\n"

	r, err := Compute(doc, doc, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, r.Changed)
	assert.Empty(t, r.Hunks)
	assert.Equal(t, "no changes", r.Summary())
}

func TestCompute_Changed(t *testing.T) {
	old := "{\n  \"dodo\": [20, 1],\n  \"rex\": [1, 2]\n}\n"
	cur := "{\n  \"dodo\": [20, 1],\n  \"rex\": [1, 3]\n}\n"

	r, err := Compute(old, cur, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.Changed)
	require.Len(t, r.Hunks, 1)
	assert.Contains(t, r.Unified, `-  "rex": [1, 2]`)
	assert.Contains(t, r.Unified, `+  "rex": [1, 3]`)
	assert.Equal(t, 1, r.Added)
	assert.Equal(t, 1, r.Removed)
	assert.Equal(t, "+1 -1 in 1 hunk(s)", r.Summary())
}

func TestCompute_Labels(t *testing.T) {
	r, err := Compute("a\n", "b\n", Options{OldLabel: "output/dv.json", NewLabel: "dvjson", Context: 3})
	require.NoError(t, err)
	assert.Contains(t, r.Unified, "--- output/dv.json")
	assert.Contains(t, r.Unified, "+++ dvjson")
}

func TestCompute_EmptySides(t *testing.T) {
	r, err := Compute("", "a\nb\n", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.Equal(t, 2, r.Added)

	r, err = Compute("a\nb\n", "", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.Equal(t, 2, r.Removed)
}

// ---------------------------------------------------------------------------
// Against
// ---------------------------------------------------------------------------

func TestAgainst_ExistingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dv.json")
	require.NoError(t, os.WriteFile(p, []byte("line1\nline2\n"), 0o600))

	r, err := Against(p, []byte("line1\nline3\n"), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.Equal(t, "current", r.OldLabel)
}

func TestAgainst_MissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing.json")

	opts := DefaultOptions()
	opts.OldLabel = ""

	r, err := Against(p, []byte("x\n"), opts)
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.Equal(t, p, r.OldLabel)
	assert.Equal(t, 1, r.Added)
}

func TestAgainst_Unreadable(t *testing.T) {
	_, err := Against(t.TempDir(), []byte("x\n"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

func TestWrite_Plain(t *testing.T) {
	r, err := Compute("line1\nline2\n", "line1\nline3\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, r, false)

	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "-line2")
	assert.Contains(t, out, "+line3")
}

func TestWrite_Color(t *testing.T) {
	r, err := Compute("line1\nline2\n", "line1\nline3\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, r, true)
	assert.Contains(t, buf.String(), "\033[31m-line2")
	assert.Contains(t, buf.String(), "\033[32m+line3")
}

func TestWrite_UpToDate(t *testing.T) {
	r, err := Compute("same\n", "same\n", Options{OldLabel: "output/dv.json", NewLabel: "new", Context: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, r, false)
	assert.Equal(t, "output/dv.json is up to date.\n", buf.String())
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b\n", "c"}, splitLines("a\nb\nc"))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb\n"))
	assert.Empty(t, splitLines(""))
}
