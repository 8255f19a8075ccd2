package session

import (
	"time"

	"github.com/pathwise/compass-backend/internal/adaptive"
	"github.com/pathwise/compass-backend/internal/model"
)

// SectionView is the client-facing summary of the current section.
type SectionView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Index         int      `json:"index"`
	QuestionCount int      `json:"question_count"`
	ResponseScale []string `json:"response_scale,omitempty"`
	IsTimed       bool     `json:"is_timed"`
	IsAptitude    bool     `json:"is_aptitude"`
	IsAdaptive    bool     `json:"is_adaptive"`
}

// State is the externally visible session snapshot, rendered for the
// HTTP layer and pushed over the WebSocket stream on every tick.
type State struct {
	Phase         Phase  `json:"phase"`
	GradeLevel    string `json:"grade_level,omitempty"`
	StreamID      string `json:"stream_id,omitempty"`
	SectionIndex  int    `json:"section_index"`
	QuestionIndex int    `json:"question_index"`
	SectionCount  int    `json:"section_count"`

	Section  *SectionView       `json:"section,omitempty"`
	Question *model.Question    `json:"question,omitempty"`
	Answer   *model.Answer      `json:"answer,omitempty"`
	Answered bool               `json:"answered"`
	Timer    TimerSnapshot      `json:"timer"`
	Adaptive *adaptive.Progress `json:"adaptive_progress,omitempty"`

	ResultID          string     `json:"result_id,omitempty"`
	SubmitError       string     `json:"submit_error,omitempty"`
	AdaptiveError     string     `json:"adaptive_error,omitempty"`
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
}

// State renders the current snapshot. The question is stripped of its
// answer key before leaving the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Phase:             c.phase,
		GradeLevel:        c.gradeLevel,
		StreamID:          c.streamID,
		SectionIndex:      c.sectionIndex,
		QuestionIndex:     c.questionIndex,
		SectionCount:      len(c.list),
		Timer:             c.timer.Snapshot(),
		ResultID:          c.resultID,
		NextAvailableDate: c.nextAvailable,
	}
	if c.submitErr != nil {
		st.SubmitError = c.submitErr.Error()
	}
	if c.adaptiveErr != nil {
		st.AdaptiveError = c.adaptiveErr.Error()
	}

	sec := c.sectionLocked()
	if sec == nil {
		return st
	}
	st.Section = &SectionView{
		ID:            sec.ID,
		Title:         sec.Title,
		Index:         c.sectionIndex,
		QuestionCount: sec.QuestionCount,
		ResponseScale: sec.ResponseScale,
		IsTimed:       sec.IsTimed,
		IsAptitude:    sec.IsAptitude,
		IsAdaptive:    sec.IsAdaptive,
	}

	if sec.IsAdaptive {
		p := c.adapter.Progress()
		st.Adaptive = &p
	}

	if c.phase != PhaseAnswering {
		return st
	}

	if q := c.questionLocked(); q != nil {
		safe := q.ForStudent()
		st.Question = &safe
		if a, ok := c.answers.Get(model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}); ok {
			st.Answer = &a
		}
		st.Answered = c.isCurrentAnsweredLocked()
	}
	return st
}

// Result returns the computed result once the session completed.
func (c *Controller) Result() *model.AssessmentResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Phase returns the current phase.
func (c *Controller) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// AttemptID returns the persisted attempt id, empty while local-only.
func (c *Controller) AttemptID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptID
}
