package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates persisted attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusAbandoned  AttemptStatus = "ABANDONED"
)

// Attempt is one persisted instance of a student taking the
// assessment, resumable by coordinate.
type Attempt struct {
	ID                   uuid.UUID         `json:"id"`
	StudentID            int               `json:"student_id"`
	StreamID             string            `json:"stream_id"`
	GradeLevel           string            `json:"grade_level"`
	Status               AttemptStatus     `json:"status"`
	CurrentSectionIndex  int               `json:"current_section_index"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	Responses            map[string]Answer `json:"responses"`
	SectionTimings       map[string]int    `json:"section_timings"`
	TimerRemaining       *int              `json:"timer_remaining,omitempty"`
	ElapsedTime          *int              `json:"elapsed_time,omitempty"`
	AdaptiveSessionID    *string           `json:"adaptive_session_id,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// HasProgress reports whether the attempt holds at least one answer.
// Attempts without progress are abandoned instead of resumed.
func (a *Attempt) HasProgress() bool {
	return len(a.Responses) > 0
}

// ProgressSnapshot is the full coordinate set pushed through the
// persistence outbox. Each write carries the whole state, so a late
// write racing an earlier one is safe (last-write-wins).
type ProgressSnapshot struct {
	AttemptID         string            `json:"attempt_id"`
	StudentID         int               `json:"student_id"`
	SectionIndex      int               `json:"section_index"`
	QuestionIndex     int               `json:"question_index"`
	Responses         map[string]Answer `json:"responses"`
	SectionTimings    map[string]int    `json:"section_timings"`
	TimerRemaining    *int              `json:"timer_remaining,omitempty"`
	ElapsedTime       *int              `json:"elapsed_time,omitempty"`
	AdaptiveSessionID *string           `json:"adaptive_session_id,omitempty"`
}

// Eligibility is the retake-cooldown gate result.
type Eligibility struct {
	CanTake           bool       `json:"can_take"`
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
}
