package history

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history.yaml"))
}

func TestAppendAndEntries(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Append(&barcode.Result{Text: "hello", Format: barcode.FormatQR}))
	require.NoError(t, s.Append(&barcode.Result{Text: "4006381333931", Format: barcode.FormatEAN13}))

	entries, err := s.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, "QR_CODE", entries[0].Format)
	assert.Equal(t, "EAN_13", entries[1].Format)
	assert.False(t, entries[0].ScannedAt.IsZero())
}

func TestEntriesEmptyWithoutFile(t *testing.T) {
	s := tempStore(t)
	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClear(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Append(&barcode.Result{Text: "x", Format: barcode.FormatQR}))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear()) // idempotent

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentAppends(t *testing.T) {
	s := tempStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(&barcode.Result{Text: "c", Format: barcode.FormatQR}))
		}()
	}
	wg.Wait()

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}
