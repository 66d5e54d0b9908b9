package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStore(t *testing.T) {
	s := MapStore{"a.go": "package a"}

	got, ok := s.Lookup("a.go")
	assert.True(t, ok)
	assert.Equal(t, "package a", got)

	_, ok = s.Lookup("b.go")
	assert.False(t, ok)
}

func TestDirStore_FirstDirWins(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(second, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(second, "pkg", "x.go"), []byte("second"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "y.go"), []byte("second y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(first, "y.go"), []byte("first y"), 0o644))

	s, err := NewDirStore([]string{first, second})
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, s.Dirs())

	got, ok := s.Lookup("pkg/x.go")
	assert.True(t, ok)
	assert.Equal(t, "second", got)

	got, ok = s.Lookup("y.go")
	assert.True(t, ok)
	assert.Equal(t, "first y", got)

	_, ok = s.Lookup("nope.go")
	assert.False(t, ok)

	_, ok = s.Lookup("pkg")
	assert.False(t, ok, "directories are not files")
}

func TestDirStore_DefaultsToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("f.txt", []byte("here"), 0o644))

	s, err := NewDirStore(nil)
	require.NoError(t, err)
	got, ok := s.Lookup("f.txt")
	assert.True(t, ok)
	assert.Equal(t, "here", got)
}

func TestDirStore_RefusesEscape(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret"), []byte("s"), 0o644))

	s, err := NewDirStore([]string{root})
	require.NoError(t, err)

	_, ok := s.Lookup("../secret")
	assert.False(t, ok)

	_, err = s.ResolveExisting("../secret")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestJoin(t *testing.T) {
	got, err := Join("/repo", "a/b/../c.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo", "a", "c.go"), got)

	for _, bad := range []string{"..", "../x", "a/../../x", "/etc/passwd"} {
		_, err := Join("/repo", bad)
		assert.ErrorIs(t, err, ErrOutsideRoot, bad)
	}
}

func TestSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	got, err := GetFileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
	assert.Equal(t, got, ContentSHA256("abc"))

	_, err = GetFileSHA256(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
