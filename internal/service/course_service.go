package service

import (
	"context"

	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
)

// CourseService exposes the recommendation catalog to the scoring
// engine.
type CourseService struct {
	courses *repository.CourseRepository
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses *repository.CourseRepository) *CourseService {
	return &CourseService{courses: courses}
}

// CoursesFor returns the catalog entries applicable to a stream.
func (s *CourseService) CoursesFor(ctx context.Context, streamID string) ([]model.Course, error) {
	return s.courses.ListByStream(ctx, streamID)
}
