// Package adaptive wraps the external adaptive-difficulty engine
// behind a narrow contract. The difficulty-selection policy itself is
// the engine's business; the session controller only consumes the
// next question and the completion signal.
package adaptive

import (
	"context"
	"errors"

	"github.com/pathwise/compass-backend/internal/model"
)

// ErrNoSession is returned by operations that need a live engine
// session before StartTest/ResumeTest succeeded.
var ErrNoSession = errors.New("no active adaptive session")

// SubmitResult is the engine's verdict on one submitted answer.
type SubmitResult struct {
	IsCorrect     bool `json:"is_correct"`
	TestComplete  bool `json:"test_complete"`
	NewDifficulty int  `json:"new_difficulty"`
}

// Progress is the engine-reported advancement through the adaptive test.
type Progress struct {
	QuestionsAnswered       int     `json:"questions_answered"`
	EstimatedTotalQuestions int     `json:"estimated_total_questions"`
	CompletionPercentage    float64 `json:"completion_percentage"`
}

// Adapter is the contract the session controller drives the adaptive
// section through. Implementations must be safe to call from a single
// goroutine at a time; the controller serializes access.
type Adapter interface {
	// StartTest opens a fresh engine session and loads the first question.
	StartTest(ctx context.Context) error
	// ResumeTest reattaches to an existing engine session.
	ResumeTest(ctx context.Context, sessionID string) error
	// CheckAndResumeSession tries ResumeTest and reports whether the
	// session was still resumable. A false return is not an error.
	CheckAndResumeSession(ctx context.Context, sessionID string) (bool, error)
	// SubmitAnswer submits the selected option letter for the current
	// question and advances to the next one unless the test completed.
	SubmitAnswer(ctx context.Context, choice string) (SubmitResult, error)

	SessionID() string
	Progress() Progress
	CurrentQuestion() *model.Question
	// Summary is valid once the engine reported test completion.
	Summary() *model.AdaptiveSummary
}
