package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ComparisonJob tracks one queued video comparison through its
// lifecycle.
type ComparisonJob struct {
	ID            uuid.UUID
	UserID        string
	VideoAKey     string
	VideoBKey     string
	Status        JobStatus
	Pass          *bool
	ResultType    string
	FrameCountA   int
	FrameCountB   int
	FramesDiffed  int
	ReportKey     string
	DiffImagesKey string
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewComparisonJob(userID, videoAKey, videoBKey string, maxAttempts int) *ComparisonJob {
	now := time.Now().UTC()
	return &ComparisonJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoAKey:   videoAKey,
		VideoBKey:   videoBKey,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *ComparisonJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *ComparisonJob) MarkCompleted(result *ComparisonResult, reportKey, diffImagesKey string) {
	now := time.Now().UTC()
	pass := result.Pass
	j.Status = JobStatusCompleted
	j.Pass = &pass
	j.ResultType = string(result.Type)
	j.FrameCountA = result.VideoA.FrameCount
	j.FrameCountB = result.VideoB.FrameCount
	j.FramesDiffed = len(result.Frames)
	j.ReportKey = reportKey
	j.DiffImagesKey = diffImagesKey
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *ComparisonJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *ComparisonJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
