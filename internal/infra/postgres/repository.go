package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joakimgrr/framecatcher/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.ComparisonJob) error {
	query := `
		INSERT INTO comparison_jobs (
			id, user_id, video_a_key, video_b_key, status, pass,
			result_type, frame_count_a, frame_count_b, frames_diffed,
			report_key, diff_images_key, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoAKey, job.VideoBKey, string(job.Status), job.Pass,
		job.ResultType, job.FrameCountA, job.FrameCountB, job.FramesDiffed,
		job.ReportKey, job.DiffImagesKey, job.Attempt, job.MaxAttempts,
		job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.ComparisonJob) error {
	query := `
		UPDATE comparison_jobs SET
			status=$2, pass=$3, result_type=$4, frame_count_a=$5,
			frame_count_b=$6, frames_diffed=$7, report_key=$8,
			diff_images_key=$9, attempt=$10, error_message=$11,
			updated_at=$12, completed_at=$13
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.Pass, job.ResultType, job.FrameCountA,
		job.FrameCountB, job.FramesDiffed, job.ReportKey,
		job.DiffImagesKey, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ComparisonJob, error) {
	query := `
		SELECT id, user_id, video_a_key, video_b_key, status, pass,
			result_type, frame_count_a, frame_count_b, frames_diffed,
			report_key, diff_images_key, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM comparison_jobs WHERE id=$1`

	job := &entity.ComparisonJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoAKey, &job.VideoBKey, &status, &job.Pass,
		&job.ResultType, &job.FrameCountA, &job.FrameCountB, &job.FramesDiffed,
		&job.ReportKey, &job.DiffImagesKey, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
