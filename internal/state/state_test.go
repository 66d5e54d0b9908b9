package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, root string) *Manager {
	t.Helper()
	m, err := NewAt(root)
	require.NoError(t, err)
	clock := time.Unix(1700000000, 0)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return m
}

func TestRecordAndReload(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)
	assert.Empty(t, m.Entries())

	require.NoError(t, m.Record("out.zip", []FileRecord{
		{Path: "a.go", ContentHash: "h1"},
		{Path: "b/c.go", ContentHash: "h2"},
	}))
	require.NoError(t, m.Record("/tmp/out", nil))

	reloaded, err := NewAt(root)
	require.NoError(t, err)
	entries := reloaded.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, HistoryEntry{Timestamp: 1700000002, Target: "/tmp/out"}, entries[0])
	assert.Equal(t, HistoryEntry{
		Timestamp: 1700000001,
		Target:    "out.zip",
		Files: []FileRecord{
			{Path: "a.go", ContentHash: "h1"},
			{Path: "b/c.go", ContentHash: "h2"},
		},
	}, entries[1])
	assert.Equal(t, int64(1700000001), entries[1].Time().Unix())
}

func TestRecord_TrimsToMaxEntries(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	for i := 0; i < MaxEntries+5; i++ {
		require.NoError(t, m.Record("stdout", nil))
	}
	entries := m.Entries()
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, int64(1700000000+MaxEntries+5), entries[0].Timestamp)
}

func TestLoad_InvalidFile(t *testing.T) {
	tests := map[string]string{
		"bad timestamp":     "yesterday\nout.zip\n",
		"missing target":    "1700000000\n",
		"incomplete record": "1700000000\nout.zip\na.go\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, stateDirName, historyFileName)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := NewAt(root)
			assert.ErrorContains(t, err, "invalid history file")
		})
	}
}

func TestNewAt_DoesNotCreateDirectory(t *testing.T) {
	root := t.TempDir()
	m, err := NewAt(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, stateDirName, historyFileName), m.Path())

	_, err = os.Stat(filepath.Join(root, stateDirName))
	assert.True(t, os.IsNotExist(err))
}
