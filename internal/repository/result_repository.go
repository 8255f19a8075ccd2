package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise/compass-backend/internal/model"
)

var ErrResultNotFound = errors.New("assessment result not found")

// ResultRepository persists immutable assessment results. Score maps
// and recommendations go into one jsonb payload column; the indexed
// columns exist for lookups.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Save inserts a result. The ID is assigned here so the stored
// payload already carries it.
func (r *ResultRepository) Save(ctx context.Context, res *model.AssessmentResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO assessment_results (id, attempt_id, student_id, grade_level, stream_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.AttemptID, res.StudentID, res.GradeLevel, res.StreamID, payload, res.CreatedAt,
	)
	return err
}

func scanResult(row pgx.Row) (*model.AssessmentResult, error) {
	var payload []byte
	res := &model.AssessmentResult{}
	err := row.Scan(&res.ID, &res.CreatedAt, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return res, nil
}

// GetByID retrieves a result by its UUID.
func (r *ResultRepository) GetByID(ctx context.Context, id string) (*model.AssessmentResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT id, created_at, payload FROM assessment_results WHERE id = $1`, id))
}

// GetLatestByStudent retrieves the student's most recent result.
func (r *ResultRepository) GetLatestByStudent(ctx context.Context, studentID int) (*model.AssessmentResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT id, created_at, payload FROM assessment_results
		 WHERE student_id = $1 ORDER BY created_at DESC LIMIT 1`, studentID))
}
