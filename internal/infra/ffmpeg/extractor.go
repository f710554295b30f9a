package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
	"github.com/joakimgrr/framecatcher/internal/infra/frames"
	"go.uber.org/zap"
)

// Extractor splits a video into numbered still images using the
// ffmpeg binary. Informational ffmpeg logging is suppressed; anything
// the process writes to stderr is treated as a failure signal, so a
// run succeeds only on a clean exit with an empty error stream.
type Extractor struct {
	format string
	logger *zap.Logger
}

func NewExtractor(format string, logger *zap.Logger) *Extractor {
	return &Extractor{format: format, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, videoPath string, outputDir string) error {
	if duration, err := e.probeDuration(ctx, videoPath); err != nil {
		e.logger.Warn("could not probe video duration", zap.String("video", videoPath), zap.Error(err))
	} else {
		e.logger.Debug("extracting frames",
			zap.String("video", videoPath),
			zap.Float64("duration_secs", duration),
		)
	}

	framePattern := filepath.Join(outputDir, frames.Pattern(e.format))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-y",
		framePattern,
	)

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil || stderr.Len() > 0 {
		diag := strings.TrimSpace(stderr.String())
		if err != nil {
			return fmt.Errorf("%w: %s: %v: %s", entity.ErrFrameExtraction, videoPath, err, diag)
		}
		return fmt.Errorf("%w: %s: %s", entity.ErrFrameExtraction, videoPath, diag)
	}
	return nil
}

func (e *Extractor) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
