package port

import "context"

// FrameExtractor splits a video into sequentially numbered still
// images inside outputDir. The frame count is not reported; callers
// re-derive it by counting the directory after extraction.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath string, outputDir string) error
}
