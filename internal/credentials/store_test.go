package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPersister struct {
	key     string
	saveErr error
}

func (m *memoryPersister) Load(ctx context.Context) (string, error) { return m.key, nil }
func (m *memoryPersister) Save(ctx context.Context, key string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.key = key
	return nil
}
func (m *memoryPersister) Delete(ctx context.Context) error { m.key = ""; return nil }

func TestStoreOverrideThenFallback(t *testing.T) {
	ctx := context.Background()
	env := "env-key"
	store, err := NewStore(ctx, &memoryPersister{}, func() string { return env })
	require.NoError(t, err)

	assert.False(t, store.HasStored())
	assert.Equal(t, "env-key", store.APIKey())

	require.NoError(t, store.Set(ctx, "  user-key  "))
	assert.True(t, store.HasStored())
	assert.Equal(t, "user-key", store.APIKey())

	require.NoError(t, store.Clear(ctx))
	assert.False(t, store.HasStored())
	assert.Equal(t, "env-key", store.APIKey())

	env = ""
	assert.Equal(t, "", store.APIKey(), "fallback is read at call time")
}

func TestStoreLoadsPersistedKey(t *testing.T) {
	store, err := NewStore(context.Background(), &memoryPersister{key: "saved"}, nil)
	require.NoError(t, err)

	assert.True(t, store.HasStored())
	assert.Equal(t, "saved", store.APIKey())
}

func TestStoreSetEmptyClears(t *testing.T) {
	ctx := context.Background()
	p := &memoryPersister{key: "saved"}
	store, err := NewStore(ctx, p, nil)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, ""))
	assert.False(t, store.HasStored())
	assert.Empty(t, p.key)
}

func TestStoreSetFailureKeepsPreviousKey(t *testing.T) {
	ctx := context.Background()
	p := &memoryPersister{key: "old"}
	store, err := NewStore(ctx, p, nil)
	require.NoError(t, err)

	p.saveErr = errors.New("disk full")
	assert.Error(t, store.Set(ctx, "new"))
	assert.Equal(t, "old", store.APIKey())
}

func TestFilePersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	p := NewFilePersister(path)

	key, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, p.Save(ctx, "AIza-test"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	key, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIza-test", key)

	require.NoError(t, p.Save(ctx, "AIza-replaced"))
	key, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIza-replaced", key)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "credentials.yaml", entries[0].Name())

	require.NoError(t, p.Delete(ctx))
	require.NoError(t, p.Delete(ctx), "deleting twice is fine")

	key, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
}
