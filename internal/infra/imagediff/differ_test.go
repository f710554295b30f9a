package imagediff

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFrame(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestDiffIdenticalFrames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeFrame(t, a, 8, 8, color.RGBA{R: 120, G: 80, B: 40, A: 255})
	writeFrame(t, b, 8, 8, color.RGBA{R: 120, G: 80, B: 40, A: 255})

	n, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, b, 0.1, "")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDiffMismatchingFrames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeFrame(t, a, 8, 8, color.RGBA{A: 255})
	writeFrame(t, b, 8, 8, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	n, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, b, 0.1, "")
	require.NoError(t, err)
	assert.Equal(t, 64, n)
}

func TestDiffThresholdTolerance(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	// one gray step apart: a perceptually negligible difference
	writeFrame(t, a, 8, 8, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	writeFrame(t, b, 8, 8, color.RGBA{R: 101, G: 101, B: 101, A: 255})

	differ := NewDiffer(zap.NewNop())

	n, err := differ.Diff(context.Background(), a, b, 0.1, "")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "sub-threshold difference should not count")

	n, err = differ.Diff(context.Background(), a, b, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 64, n, "zero threshold flags every changed pixel")
}

func TestDiffWritesDiffImage(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	out := filepath.Join(dir, "diff.png")
	writeFrame(t, a, 8, 8, color.RGBA{A: 255})
	writeFrame(t, b, 8, 8, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	n, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, b, 0.1, out)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDiffSkipsDiffImageForIdenticalFrames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	out := filepath.Join(dir, "diff.png")
	writeFrame(t, a, 8, 8, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	writeFrame(t, b, 8, 8, color.RGBA{R: 9, G: 9, B: 9, A: 255})

	n, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, b, 0.1, out)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestDiffMissingFrame(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writeFrame(t, a, 8, 8, color.RGBA{A: 255})

	_, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, filepath.Join(dir, "missing.png"), 0.1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrImageRead))
}

func TestDiffUndecodableFrame(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	garbage := filepath.Join(dir, "b.png")
	writeFrame(t, a, 8, 8, color.RGBA{A: 255})
	require.NoError(t, os.WriteFile(garbage, []byte("not a png"), 0644))

	_, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, garbage, 0.1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrImageRead))
}

func TestDiffDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeFrame(t, a, 8, 8, color.RGBA{A: 255})
	writeFrame(t, b, 16, 8, color.RGBA{A: 255})

	_, err := NewDiffer(zap.NewNop()).Diff(context.Background(), a, b, 0.1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrFrameSizeMismatch))
	assert.Contains(t, err.Error(), "8x8")
	assert.Contains(t, err.Error(), "16x8")
}
