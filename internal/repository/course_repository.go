package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise/compass-backend/internal/model"
)

// CourseRepository handles the recommendation catalog.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// ListByStream returns the catalog entries applicable to a stream.
// Courses with no stream restriction apply everywhere.
func (r *CourseRepository) ListByStream(ctx context.Context, streamID string) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, family, description, riasec_types, aptitude_strengths, streams
		 FROM courses
		 WHERE streams = '{}' OR $1 = ANY(streams)
		 ORDER BY name`, streamID)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Family, &c.Description,
			&c.RiasecTypes, &c.AptitudeStrengths, &c.Streams); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Upsert inserts or replaces one catalog entry. Used by the seeder.
func (r *CourseRepository) Upsert(ctx context.Context, c model.Course) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO courses (id, name, category, family, description, riasec_types, aptitude_strengths, streams)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, category = EXCLUDED.category, family = EXCLUDED.family,
		   description = EXCLUDED.description, riasec_types = EXCLUDED.riasec_types,
		   aptitude_strengths = EXCLUDED.aptitude_strengths, streams = EXCLUDED.streams`,
		c.ID, c.Name, c.Category, c.Family, c.Description, c.RiasecTypes, c.AptitudeStrengths, c.Streams)
	return err
}
