package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise/compass-backend/internal/model"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// AttemptRepository handles assessment attempt and result persistence.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a fresh IN_PROGRESS attempt and fills in the
// generated ID and timestamps.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	responses, err := json.Marshal(a.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	timings, err := json.Marshal(a.SectionTimings)
	if err != nil {
		return fmt.Errorf("marshal timings: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_attempts
		   (student_id, stream_id, grade_level, status,
		    current_section_index, current_question_index,
		    responses, section_timings, timer_remaining, elapsed_time, adaptive_session_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		a.StudentID, a.StreamID, a.GradeLevel, a.Status,
		a.CurrentSectionIndex, a.CurrentQuestionIndex,
		responses, timings, a.TimerRemaining, a.ElapsedTime, a.AdaptiveSessionID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

const attemptColumns = `id, student_id, stream_id, grade_level, status,
	current_section_index, current_question_index,
	responses, section_timings, timer_remaining, elapsed_time, adaptive_session_id,
	created_at, updated_at`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	var responses, timings []byte
	err := row.Scan(
		&a.ID, &a.StudentID, &a.StreamID, &a.GradeLevel, &a.Status,
		&a.CurrentSectionIndex, &a.CurrentQuestionIndex,
		&responses, &timings, &a.TimerRemaining, &a.ElapsedTime, &a.AdaptiveSessionID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(responses, &a.Responses); err != nil {
		return nil, fmt.Errorf("unmarshal responses: %w", err)
	}
	if err := json.Unmarshal(timings, &a.SectionTimings); err != nil {
		return nil, fmt.Errorf("unmarshal timings: %w", err)
	}
	return a, nil
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM assessment_attempts WHERE id = $1`, id))
}

// GetInProgressByStudent returns the student's most recent IN_PROGRESS
// attempt, or ErrAttemptNotFound.
func (r *AttemptRepository) GetInProgressByStudent(ctx context.Context, studentID int) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM assessment_attempts
		 WHERE student_id = $1 AND status = 'IN_PROGRESS'
		 ORDER BY created_at DESC LIMIT 1`, studentID))
}

// UpdateProgress writes one full progress snapshot over the attempt
// row. Snapshots are self-contained, so last-write-wins is correct.
func (r *AttemptRepository) UpdateProgress(ctx context.Context, snap model.ProgressSnapshot) error {
	responses, err := json.Marshal(snap.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	timings, err := json.Marshal(snap.SectionTimings)
	if err != nil {
		return fmt.Errorf("marshal timings: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_attempts SET
		   current_section_index = $1, current_question_index = $2,
		   responses = $3, section_timings = $4,
		   timer_remaining = $5, elapsed_time = $6, adaptive_session_id = $7,
		   updated_at = NOW()
		 WHERE id = $8 AND status = 'IN_PROGRESS'`,
		snap.SectionIndex, snap.QuestionIndex,
		responses, timings,
		snap.TimerRemaining, snap.ElapsedTime, snap.AdaptiveSessionID,
		snap.AttemptID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// MarkStatus transitions an attempt to a terminal status.
func (r *AttemptRepository) MarkStatus(ctx context.Context, id string, status model.AttemptStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_attempts SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = 'IN_PROGRESS'`,
		status, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// LatestCompletedAt returns when the student last completed an
// attempt, or nil if they never have. Used by the retake cooldown.
func (r *AttemptRepository) LatestCompletedAt(ctx context.Context, studentID int) (*time.Time, error) {
	var completedAt time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT updated_at FROM assessment_attempts
		 WHERE student_id = $1 AND status = 'COMPLETED'
		 ORDER BY updated_at DESC LIMIT 1`, studentID,
	).Scan(&completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &completedAt, nil
}
