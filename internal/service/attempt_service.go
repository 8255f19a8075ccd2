package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
)

const resultCacheTTL = 24 * time.Hour

// AttemptService sits between the session controllers and storage.
// Progress snapshots go through the Redis outbox and are written to
// PostgreSQL by the progress worker; completion and abandonment are
// written synchronously.
type AttemptService struct {
	attempts *repository.AttemptRepository
	results  *repository.ResultRepository
	rdb      *redis.Client
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attempts *repository.AttemptRepository,
	results *repository.ResultRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		results:  results,
		rdb:      rdb,
		cfg:      cfg,
		log:      log.With().Str("component", "attempt_service").Logger(),
	}
}

// CreateAttempt opens a fresh IN_PROGRESS attempt row.
func (s *AttemptService) CreateAttempt(ctx context.Context, studentID int, gradeLevel, streamID string, sections []model.Section) (string, error) {
	a := &model.Attempt{
		StudentID:      studentID,
		StreamID:       streamID,
		GradeLevel:     gradeLevel,
		Status:         model.AttemptStatusInProgress,
		Responses:      map[string]model.Answer{},
		SectionTimings: map[string]int{},
	}
	if err := s.attempts.Create(ctx, a); err != nil {
		return "", fmt.Errorf("create attempt: %w", err)
	}
	return a.ID.String(), nil
}

// UpdateProgress pushes one snapshot to the persistence outbox. The
// DB write happens in the progress worker; losing a snapshot only
// costs the delta since the previous one.
func (s *AttemptService) UpdateProgress(ctx context.Context, snap model.ProgressSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue snapshot: %w", err)
	}
	return nil
}

// CompleteAttempt stores the result and marks the attempt COMPLETED,
// both synchronously: submission must not report success before the
// result is durable.
func (s *AttemptService) CompleteAttempt(ctx context.Context, attemptID string, result *model.AssessmentResult) (string, error) {
	if err := s.results.Save(ctx, result); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	if err := s.attempts.MarkStatus(ctx, attemptID, model.AttemptStatusCompleted); err != nil {
		return "", fmt.Errorf("mark completed: %w", err)
	}
	s.log.Info().
		Str("attempt_id", attemptID).
		Str("result_id", result.ID.String()).
		Msg("Attempt completed")
	return result.ID.String(), nil
}

// AbandonAttempt marks the attempt ABANDONED.
func (s *AttemptService) AbandonAttempt(ctx context.Context, attemptID string) error {
	if err := s.attempts.MarkStatus(ctx, attemptID, model.AttemptStatusAbandoned); err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			return nil
		}
		return fmt.Errorf("mark abandoned: %w", err)
	}
	return nil
}

// CheckInProgressAttempt returns the student's resumable attempt, or
// nil when there is none.
func (s *AttemptService) CheckInProgressAttempt(ctx context.Context, studentID int) (*model.Attempt, error) {
	a, err := s.attempts.GetInProgressByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// CheckEligibility enforces the retake cooldown.
func (s *AttemptService) CheckEligibility(ctx context.Context, studentID int) (model.Eligibility, error) {
	completedAt, err := s.attempts.LatestCompletedAt(ctx, studentID)
	if err != nil {
		return model.Eligibility{}, fmt.Errorf("latest completion: %w", err)
	}
	if completedAt == nil {
		return model.Eligibility{CanTake: true}, nil
	}
	next := completedAt.AddDate(0, 0, s.cfg.RetakeCooldownDays)
	if time.Now().Before(next) {
		return model.Eligibility{CanTake: false, NextAvailableDate: &next}, nil
	}
	return model.Eligibility{CanTake: true}, nil
}

// GetResult loads a stored result, enforcing ownership. Results are
// immutable, so a positive lookup is cached in Redis.
func (s *AttemptService) GetResult(ctx context.Context, studentID int, resultID string) (*model.AssessmentResult, error) {
	cacheKey := config.CacheKey.ResultKey(resultID)
	if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var res model.AssessmentResult
		if err := json.Unmarshal(cached, &res); err == nil {
			if res.StudentID != studentID {
				return nil, repository.ErrResultNotFound
			}
			return &res, nil
		}
	}

	res, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if res.StudentID != studentID {
		return nil, repository.ErrResultNotFound
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, payload, resultCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Result cache write failed")
		}
	}
	return res, nil
}

// GetLatestResult loads the student's most recent result.
func (s *AttemptService) GetLatestResult(ctx context.Context, studentID int) (*model.AssessmentResult, error) {
	return s.results.GetLatestByStudent(ctx, studentID)
}
