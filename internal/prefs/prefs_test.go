package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, err)
	assert.True(t, s.AutoFocus())
	assert.True(t, s.BeepOnScan())
	assert.False(t, s.TorchOn())
	assert.False(t, s.BulkMode())
	assert.False(t, s.SaveHistory())
}

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s, err := NewStore(path)
	require.NoError(t, err)
	s.SetTorchOn(true)
	s.SetLastSeenVersion("1.4.0")

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.True(t, reopened.TorchOn())
	assert.Equal(t, "1.4.0", reopened.LastSeenVersion())
	assert.True(t, reopened.AutoFocus(), "untouched defaults survive a rewrite")
}

func TestLoadsUserEditedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	edited := "bulk_mode: true\nauto_focus: false\nsave_history: true\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	s, err := NewStore(path)
	require.NoError(t, err)
	assert.True(t, s.BulkMode())
	assert.False(t, s.AutoFocus())
	assert.True(t, s.SaveHistory())
	assert.True(t, s.BeepOnScan(), "absent keys keep their defaults")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(Values{TorchOn: true})
	assert.True(t, s.TorchOn())
	s.SetTorchOn(false)
	assert.False(t, s.TorchOn())
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewMemoryStore(DefaultValues())
	snap := s.Snapshot()
	snap.TorchOn = true
	assert.False(t, s.TorchOn())
}
