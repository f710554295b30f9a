package scratch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllocateCreatesEmptyWritableDir(t *testing.T) {
	space := NewSpace(filepath.Join(t.TempDir(), "work"), zap.NewNop())

	dir, err := space.Allocate()
	require.NoError(t, err)
	defer space.Release(dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "probe"), []byte("x"), 0644))
}

func TestAllocateReturnsUniqueDirs(t *testing.T) {
	space := NewSpace(t.TempDir(), zap.NewNop())

	a, err := space.Allocate()
	require.NoError(t, err)
	b, err := space.Allocate()
	require.NoError(t, err)
	defer space.Release(a)
	defer space.Release(b)

	assert.NotEqual(t, a, b)
}

func TestReleaseRemovesNonEmptyDir(t *testing.T) {
	space := NewSpace(t.TempDir(), zap.NewNop())

	dir, err := space.Allocate()
	require.NoError(t, err)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "frame0001.png"), []byte("data"), 0644))

	space.Release(dir)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestReleaseToleratesMissingDir(t *testing.T) {
	space := NewSpace(t.TempDir(), zap.NewNop())
	space.Release(filepath.Join(t.TempDir(), "never-created"))
	space.Release("")
}
