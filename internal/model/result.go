package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchLevel buckets a course match score.
type MatchLevel string

const (
	MatchExcellent MatchLevel = "Excellent"
	MatchGood      MatchLevel = "Good"
	MatchFair      MatchLevel = "Fair"
	MatchLow       MatchLevel = "Low"
)

// CourseRecommendation is one scored course suggestion.
type CourseRecommendation struct {
	CourseID   string     `json:"course_id"`
	CourseName string     `json:"course_name"`
	Category   string     `json:"category"`
	MatchScore float64    `json:"match_score"`
	MatchLevel MatchLevel `json:"match_level"`
	Reasons    []string   `json:"reasons,omitempty"`
}

// CategoryScore is a correct/total tally for one scorable category.
type CategoryScore struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AdaptiveSummary is the read-only outcome of the adaptive aptitude
// section as reported by the external engine.
type AdaptiveSummary struct {
	SessionID         string `json:"session_id"`
	QuestionsAnswered int    `json:"questions_answered"`
	CorrectAnswers    int    `json:"correct_answers"`
	FinalDifficulty   int    `json:"final_difficulty"`
}

// AssessmentResult is the immutable outcome of a successfully
// submitted attempt.
type AssessmentResult struct {
	ID         uuid.UUID `json:"id"`
	AttemptID  uuid.UUID `json:"attempt_id"`
	StudentID  int       `json:"student_id"`
	GradeLevel string    `json:"grade_level"`
	StreamID   string    `json:"stream_id"`

	// InterestScores are raw RIASEC sums; InterestMax is the
	// per-type ceiling used for normalization.
	InterestScores map[string]int `json:"interest_scores"`
	InterestMax    int            `json:"interest_max"`
	TopInterests   []string       `json:"top_interests"`

	// PersonalityScores are Big Five traits normalized to 0-100.
	PersonalityScores map[string]float64 `json:"personality_scores"`

	AptitudeScores map[string]CategoryScore `json:"aptitude_scores"`
	TopAptitudes   []string                 `json:"top_aptitudes"`

	KnowledgeScore  float64          `json:"knowledge_score"`
	AdaptiveSummary *AdaptiveSummary `json:"adaptive_summary,omitempty"`

	SectionTimings  map[string]int         `json:"section_timings"`
	Recommendations []CourseRecommendation `json:"course_recommendations"`

	CreatedAt time.Time `json:"created_at"`
}
