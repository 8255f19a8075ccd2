package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
	"github.com/pathwise/compass-backend/internal/session"
)

// QuestionService assembles section lists from the question banks.
// An empty load is retried once after a short delay before the
// session surfaces an error to the student.
type QuestionService struct {
	questions  *repository.QuestionRepository
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository, cfg *config.Config, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions:  questions,
		retryDelay: cfg.QuestionRetryDelay,
		log:        log.With().Str("component", "question_service").Logger(),
	}
}

// SectionsFor loads the ordered section list for a grade/stream pair.
// Returns session.ErrNoQuestions when both the load and its single
// retry come back empty.
func (s *QuestionService) SectionsFor(ctx context.Context, gradeLevel, streamID string) ([]model.Section, error) {
	sections, err := s.load(ctx, gradeLevel, streamID)
	if err == nil && len(sections) > 0 {
		return sections, nil
	}
	if err != nil {
		s.log.Warn().Err(err).
			Str("grade_level", gradeLevel).
			Str("stream_id", streamID).
			Msg("Section load failed, retrying once")
	} else {
		s.log.Warn().
			Str("grade_level", gradeLevel).
			Str("stream_id", streamID).
			Msg("Section load empty, retrying once")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.retryDelay):
	}

	sections, err = s.load(ctx, gradeLevel, streamID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	if len(sections) == 0 {
		return nil, session.ErrNoQuestions
	}
	return sections, nil
}

func (s *QuestionService) load(ctx context.Context, gradeLevel, streamID string) ([]model.Section, error) {
	sections, err := s.questions.ListSections(ctx, gradeLevel, streamID)
	if err != nil {
		return nil, err
	}
	// A section list where every non-adaptive section is empty is as
	// unusable as no sections at all.
	usable := false
	for _, sec := range sections {
		if sec.IsAdaptive || sec.QuestionCount > 0 {
			usable = true
			break
		}
	}
	if !usable {
		return nil, nil
	}
	return sections, nil
}
