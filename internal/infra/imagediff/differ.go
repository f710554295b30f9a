// Package imagediff compares two frame images pixel by pixel using a
// perceptual color metric, tolerating sub-threshold differences.
package imagediff

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
	"github.com/orisano/pixelmatch"
	"go.uber.org/zap"
)

type Differ struct {
	logger *zap.Logger
}

func NewDiffer(logger *zap.Logger) *Differ {
	return &Differ{logger: logger}
}

// Diff returns the count of mismatching pixels between the two frames.
// Both images are decoded fully into memory; they must share
// dimensions. When diffPath is non-empty and pixels differ, a visual
// diff image is written there (a write failure there is logged, not
// fatal, since the count is already known).
func (d *Differ) Diff(ctx context.Context, frameAPath, frameBPath string, threshold float64, diffPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	imgA, err := decodeImage(frameAPath)
	if err != nil {
		return 0, err
	}
	imgB, err := decodeImage(frameBPath)
	if err != nil {
		return 0, err
	}

	opts := []pixelmatch.MatchOption{pixelmatch.Threshold(threshold)}
	var diffImage image.Image
	if diffPath != "" {
		opts = append(opts, pixelmatch.WriteTo(&diffImage))
	}

	count, err := pixelmatch.MatchPixel(imgA, imgB, opts...)
	if err != nil {
		if errors.Is(err, pixelmatch.ErrImageSizesNotMatch) {
			return 0, fmt.Errorf("%w: %s is %dx%d, %s is %dx%d",
				entity.ErrFrameSizeMismatch,
				frameAPath, imgA.Bounds().Dx(), imgA.Bounds().Dy(),
				frameBPath, imgB.Bounds().Dx(), imgB.Bounds().Dy(),
			)
		}
		return 0, fmt.Errorf("pixel match: %w", err)
	}

	if diffPath != "" && count > 0 && diffImage != nil {
		if err := writePNG(diffPath, diffImage); err != nil {
			d.logger.Warn("failed to write diff image",
				zap.String("path", diffPath),
				zap.Error(err),
			)
		}
	}

	return count, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrImageRead, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrImageRead, path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
