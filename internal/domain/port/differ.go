package port

import "context"

// FrameDiffer computes the perceptual pixel mismatch count between two
// same-sized frame images. threshold is the per-pixel sensitivity in
// [0,1]; lower values flag smaller differences. When diffPath is
// non-empty and pixels differ, a visual diff image is written there.
type FrameDiffer interface {
	Diff(ctx context.Context, frameAPath, frameBPath string, threshold float64, diffPath string) (int, error)
}
