package frames

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "frame0001.png", FileName(1, "png"))
	assert.Equal(t, "frame0042.png", FileName(42, "png"))
	assert.Equal(t, "frame9999.jpg", FileName(9999, "jpg"))
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "frame%04d.png", Pattern("png"))
}

func TestCounterCount(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(i, "png")), []byte("x"), 0644))
	}

	n, err := NewCounter().Count(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestCounterCountEmptyDir(t *testing.T) {
	n, err := NewCounter().Count(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCounterCountIsNotRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "frame0001.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame0001.png"), []byte("x"), 0644))

	n, err := NewCounter().Count(dir)
	require.NoError(t, err)
	// the nested dir counts as one entry, its contents do not
	assert.Equal(t, 2, n)
}

func TestCounterCountMissingDir(t *testing.T) {
	_, err := NewCounter().Count(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrFrameListing))
}
