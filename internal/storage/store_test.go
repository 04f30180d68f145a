package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

type fakeSettings struct {
	mu     sync.Mutex
	resets [][]string
}

func (f *fakeSettings) Reset(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, keys)
	return nil
}

func openTestStore(t *testing.T, opts ...Option) *Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), DBFileName)
	defaults := []Option{WithLogger(log.Discard()), WithSettings(&fakeSettings{})}
	h, err := Open(context.Background(), path, append(defaults, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func migratedStore(t *testing.T) *Handle {
	t.Helper()
	h := openTestStore(t)
	_, err := h.Migrate(context.Background())
	require.NoError(t, err)
	return h
}

func TestOpen_CreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", DBFileName)
	h, err := Open(context.Background(), path, WithLogger(log.Discard()))
	require.NoError(t, err)
	defer h.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, h.Path())

	v, err := h.CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestOpen_PathWithURIDelimiters(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "a#b?c", DBFileName)

	h, err := Open(ctx, path, WithLogger(log.Discard()))
	require.NoError(t, err)
	defer h.Close()
	_, err = h.Migrate(ctx)
	require.NoError(t, err)

	assert.FileExists(t, path)
	names, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "a#b?c", names[0].Name())
}

func TestDSN(t *testing.T) {
	got, err := dsn("/data/a#b?c/" + DBFileName)
	require.NoError(t, err)
	assert.Equal(t, "file:///data/a%23b%3Fc/lancamentos.sqlite?"+dsnPragmas, got)
}

func TestOpen_UnavailableLocation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Open(context.Background(), filepath.Join(blocker, "sub", DBFileName), WithLogger(log.Discard()))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.True(t, core.IsFatal(err))
}

func TestGate_InitializesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), DBFileName)
	gate := NewGate(path, WithLogger(log.Discard()))

	var wg sync.WaitGroup
	handles := make([]*Handle, 8)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := gate.Handle(context.Background())
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	require.NotNil(t, handles[0])
	t.Cleanup(func() { handles[0].Close() })
	for _, h := range handles[1:] {
		assert.Same(t, handles[0], h)
	}
	v, err := handles[0].CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LatestVersion, v)
}

func TestGate_FailureIsSticky(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	gate := NewGate(filepath.Join(blocker, DBFileName), WithLogger(log.Discard()))

	h, err := gate.Handle(context.Background())
	assert.Nil(t, h)
	require.ErrorIs(t, err, core.ErrStorageUnavailable)

	// The failure is remembered even once the location becomes usable.
	require.NoError(t, os.Remove(blocker))
	h, err2 := gate.Handle(context.Background())
	assert.Nil(t, h)
	assert.Equal(t, err, err2)
}
