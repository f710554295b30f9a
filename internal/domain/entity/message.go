package entity

import "github.com/google/uuid"

// ComparisonRequestMessage is the inbound message from the
// video.compare queue.
type ComparisonRequestMessage struct {
	JobID          uuid.UUID          `json:"job_id"`
	UserID         string             `json:"user_id"`
	VideoAKey      string             `json:"video_a_key"`
	VideoBKey      string             `json:"video_b_key"`
	UserEmail      string             `json:"user_email"`
	Settings       ComparisonSettings `json:"settings"`
	SaveDiffImages bool               `json:"save_diff_images"`
}

// ComparisonStatusMessage is the outbound message published to the
// video.compare.status queue.
type ComparisonStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	UserID        string    `json:"user_id"`
	Status        JobStatus `json:"status"`
	Pass          *bool     `json:"pass,omitempty"`
	ResultType    string    `json:"result_type,omitempty"`
	FrameCountA   int       `json:"frame_count_a,omitempty"`
	FrameCountB   int       `json:"frame_count_b,omitempty"`
	ReportKey     string    `json:"report_key,omitempty"`
	DiffImagesKey string    `json:"diff_images_key,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempt       int       `json:"attempt"`
	MaxAttempts   int       `json:"max_attempts"`
}
