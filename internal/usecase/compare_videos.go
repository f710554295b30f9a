package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joakimgrr/framecatcher/internal/domain/entity"
	"github.com/joakimgrr/framecatcher/internal/domain/port"
	"github.com/joakimgrr/framecatcher/internal/infra/frames"
	"github.com/joakimgrr/framecatcher/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CompareVideosUseCase drives the whole comparison lifecycle: split
// both videos into frames, reconcile frame counts, diff index-aligned
// frame pairs, and aggregate the outcome. Compare is the pure pipeline;
// Execute wraps it with the queue/storage/repository plumbing.
type CompareVideosUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor port.FrameExtractor
	counter   port.FrameCounter
	differ    port.FrameDiffer
	scratch   port.ScratchSpace
	archiver  port.Archiver
	reports   port.ReportWriter
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       CompareConfig
}

type CompareConfig struct {
	TempDir         string
	MaxRetries      int
	FrameFormat     string
	FrameInterval   int
	DiffThreshold   float64
	StopOnFirstFail bool
}

func NewCompareVideosUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor port.FrameExtractor,
	counter port.FrameCounter,
	differ port.FrameDiffer,
	scratch port.ScratchSpace,
	archiver port.Archiver,
	reports port.ReportWriter,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg CompareConfig,
) *CompareVideosUseCase {
	return &CompareVideosUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		counter:   counter,
		differ:    differ,
		scratch:   scratch,
		archiver:  archiver,
		reports:   reports,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// Compare runs the frame comparison pipeline for two local video
// files. The two extractions run concurrently; diffing is strictly
// sequential by ascending sampled index, which bounds peak memory to
// two decoded frames and keeps per-frame timings reproducible.
//
// A frame-count mismatch is a completed comparison with Pass=false,
// not an error. Every other failure aborts the run with no partial
// result; scratch directories are released on all paths.
func (uc *CompareVideosUseCase) Compare(
	ctx context.Context,
	videoAPath, videoBPath string,
	settings entity.ComparisonSettings,
) (*entity.ComparisonResult, error) {
	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CompareVideosUseCase.Compare")
	defer span.End()
	span.SetAttributes(
		attribute.String("video.a", videoAPath),
		attribute.String("video.b", videoBPath),
	)

	result := entity.NewComparisonResult(settings)

	// Allocate one scratch directory per video, in parallel. Any
	// directory that did get allocated is released even when the
	// sibling allocation fails.
	var dirs [2]string
	g, _ := errgroup.WithContext(ctx)
	for i := range dirs {
		g.Go(func() error {
			dir, err := uc.scratch.Allocate()
			dirs[i] = dir
			return err
		})
	}
	allocErr := g.Wait()
	for _, dir := range dirs {
		if dir != "" {
			defer uc.scratch.Release(dir)
		}
	}
	if allocErr != nil {
		return nil, allocErr
	}

	// Extraction phase: both videos split concurrently, joined before
	// count reconciliation. splitToFrames covers the slower of the two.
	extractStart := time.Now()
	ctx2, spanEx := tracer.Start(ctx, "extract_frames")
	g, gctx := errgroup.WithContext(ctx2)
	g.Go(func() error { return uc.extractor.Extract(gctx, videoAPath, dirs[0]) })
	g.Go(func() error { return uc.extractor.Extract(gctx, videoBPath, dirs[1]) })
	if err := g.Wait(); err != nil {
		spanEx.End()
		return nil, err
	}
	spanEx.End()
	result.Times.SplitToFrames = time.Since(extractStart).Milliseconds()
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(extractStart).Seconds())

	// Count reconciliation.
	_, spanCount := tracer.Start(ctx, "count_frames")
	var counts [2]int
	g, _ = errgroup.WithContext(ctx)
	for i := range dirs {
		g.Go(func() error {
			n, err := uc.counter.Count(dirs[i])
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		spanCount.End()
		return nil, err
	}
	spanCount.End()

	result.VideoA.FrameCount = counts[0]
	result.VideoB.FrameCount = counts[1]

	if counts[0] != counts[1] {
		// Mismatched totals make per-frame alignment meaningless, so
		// the diff phase is skipped entirely.
		result.MarkCountMismatch()
		uc.logger.Info("frame count mismatch, skipping diff phase",
			zap.Int("frames_a", counts[0]),
			zap.Int("frames_b", counts[1]),
		)
		uc.writeReport(ctx, result)
		return result, nil
	}

	// Diff phase: sampled indices 1, 1+k, 1+2k, … below the frame
	// count. Index 0 is intentionally skipped; 0 or 1 frames means
	// nothing to diff and a trivial pass.
	diffStart := time.Now()
	ctx3, spanDiff := tracer.Start(ctx, "diff_frames")
	frameCount := counts[0]
	for i := 1; i < frameCount; i += settings.FrameInterval {
		name := frames.FileName(i, uc.cfg.FrameFormat)

		diffPath := ""
		if settings.DiffImageDir != "" {
			diffPath = filepath.Join(settings.DiffImageDir, fmt.Sprintf("diff%04d.png", i))
		}

		frameStart := time.Now()
		diff, err := uc.differ.Diff(ctx3,
			filepath.Join(dirs[0], name),
			filepath.Join(dirs[1], name),
			settings.Threshold,
			diffPath,
		)
		if err != nil {
			spanDiff.End()
			return nil, err
		}

		result.RecordFrame(i, diff, time.Since(frameStart).Milliseconds())
		metrics.FramesDiffedTotal.Inc()

		if diff > 0 {
			metrics.MismatchedFramesTotal.Inc()
			if diffPath != "" {
				result.DiffImages = append(result.DiffImages, diffPath)
			}
			if settings.StopOnFirstFail {
				result.MarkPartial()
				uc.logger.Info("stopping on first mismatching frame",
					zap.Int("frame", i),
					zap.Int("diff_pixels", diff),
				)
				break
			}
		}
	}
	spanDiff.End()
	result.Times.DiffFrames = time.Since(diffStart).Milliseconds()
	metrics.StageDuration.WithLabelValues("diff").Observe(time.Since(diffStart).Seconds())

	uc.writeReport(ctx, result)
	return result, nil
}

// writeReport persists report.json when requested. The comparison
// itself already completed, so a write failure is only a warning.
func (uc *CompareVideosUseCase) writeReport(ctx context.Context, result *entity.ComparisonResult) {
	if !result.Settings.WriteToFile {
		return
	}
	path, err := uc.reports.Write(ctx, result)
	if err != nil {
		uc.logger.Warn("failed to persist comparison report", zap.Error(err))
		return
	}
	uc.logger.Debug("comparison report written", zap.String("path", path))
}

// Execute handles one queued comparison request end to end.
func (uc *CompareVideosUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CompareVideosUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.ComparisonRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_a_key", msg.VideoAKey),
		attribute.String("job.video_b_key", msg.VideoBKey),
	)

	log := uc.logger.With(
		zap.String("job_id", msg.JobID.String()),
		zap.String("video_a_key", msg.VideoAKey),
		zap.String("video_b_key", msg.VideoBKey),
	)

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewComparisonJob(msg.UserID, msg.VideoAKey, msg.VideoBKey, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.comparisonPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	return nil
}

func (uc *CompareVideosUseCase) comparisonPipeline(
	ctx context.Context,
	job *entity.ComparisonJob,
	msg entity.ComparisonRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download both videos from MinIO, concurrently.
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_videos")
	videoAPath := filepath.Join(workDir, "a.mp4")
	videoBPath := filepath.Join(workDir, "b.mp4")
	g, gctx := errgroup.WithContext(ctx2)
	g.Go(func() error { return uc.storage.DownloadVideo(gctx, msg.VideoAKey, videoAPath) })
	g.Go(func() error { return uc.storage.DownloadVideo(gctx, msg.VideoBKey, videoBPath) })
	if err := g.Wait(); err != nil {
		spanDl.End()
		log.Error("failed to download videos", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_videos: "+err.Error(), log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	settings := uc.effectiveSettings(msg)
	if msg.SaveDiffImages {
		diffDir := filepath.Join(workDir, "diffs")
		if err := os.MkdirAll(diffDir, 0755); err != nil {
			return fmt.Errorf("create diff image dir: %w", err)
		}
		settings.DiffImageDir = diffDir
	}

	result, err := uc.Compare(ctx, videoAPath, videoBPath, settings)
	if err != nil {
		log.Error("comparison failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "compare: "+err.Error(), log)
	}

	reportKey, err := uc.uploadReport(ctx, job, msg, result)
	if err != nil {
		log.Error("report upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_report: "+err.Error(), log)
	}

	diffImagesKey := ""
	if len(result.DiffImages) > 0 {
		diffImagesKey, err = uc.uploadDiffImages(ctx, job, msg, workDir, result.DiffImages)
		if err != nil {
			log.Error("diff image upload failed", zap.Error(err))
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_diff_images: "+err.Error(), log)
		}
	}

	job.MarkCompleted(result, reportKey, diffImagesKey)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	outcome := "fail"
	if result.Pass {
		outcome = "pass"
	}
	metrics.ComparisonsTotal.WithLabelValues(outcome).Inc()

	log.Info("comparison completed",
		zap.Bool("pass", result.Pass),
		zap.String("type", string(result.Type)),
		zap.Int("frames_a", result.VideoA.FrameCount),
		zap.Int("frames_b", result.VideoB.FrameCount),
		zap.Int("frames_diffed", len(result.Frames)),
		zap.String("report_key", reportKey),
	)

	return nil
}

// effectiveSettings merges per-request settings over the worker's
// configured defaults.
func (uc *CompareVideosUseCase) effectiveSettings(msg entity.ComparisonRequestMessage) entity.ComparisonSettings {
	settings := msg.Settings
	if settings.FrameInterval == 0 {
		settings.FrameInterval = uc.cfg.FrameInterval
	}
	if settings.Threshold == 0 {
		settings.Threshold = uc.cfg.DiffThreshold
	}
	if !settings.StopOnFirstFail {
		settings.StopOnFirstFail = uc.cfg.StopOnFirstFail
	}
	return settings
}

func (uc *CompareVideosUseCase) uploadReport(
	ctx context.Context,
	job *entity.ComparisonJob,
	msg entity.ComparisonRequestMessage,
	result *entity.ComparisonResult,
) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	key := fmt.Sprintf("%s/report_%s.json", msg.UserID, job.ID.String())
	if err := uc.storage.UploadReport(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", err
	}
	return key, nil
}

func (uc *CompareVideosUseCase) uploadDiffImages(
	ctx context.Context,
	job *entity.ComparisonJob,
	msg entity.ComparisonRequestMessage,
	workDir string,
	diffImages []string,
) (string, error) {
	zipPath := filepath.Join(workDir, "diffs.zip")
	if err := uc.archiver.CreateZip(ctx, diffImages, zipPath); err != nil {
		return "", fmt.Errorf("create diff zip: %w", err)
	}

	zipFile, err := os.Open(zipPath)
	if err != nil {
		return "", fmt.Errorf("open diff zip: %w", err)
	}
	defer zipFile.Close()

	stat, err := zipFile.Stat()
	if err != nil {
		return "", fmt.Errorf("stat diff zip: %w", err)
	}

	key := fmt.Sprintf("%s/diffs_%s.zip", msg.UserID, job.ID.String())
	if err := uc.storage.UploadArchive(ctx, key, zipFile, stat.Size()); err != nil {
		return "", err
	}
	return key, nil
}

func (uc *CompareVideosUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.ComparisonJob,
	msg entity.ComparisonRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *CompareVideosUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.ComparisonJob,
	msg entity.ComparisonRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.ComparisonsTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		videoKeys := msg.VideoAKey + ", " + msg.VideoBKey
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), videoKeys, errMsg)
	}

	return nil
}

func (uc *CompareVideosUseCase) publishStatus(ctx context.Context, job *entity.ComparisonJob, log *zap.Logger) {
	statusMsg := entity.ComparisonStatusMessage{
		JobID:         job.ID,
		UserID:        job.UserID,
		Status:        job.Status,
		Pass:          job.Pass,
		ResultType:    job.ResultType,
		FrameCountA:   job.FrameCountA,
		FrameCountB:   job.FrameCountB,
		ReportKey:     job.ReportKey,
		DiffImagesKey: job.DiffImagesKey,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
