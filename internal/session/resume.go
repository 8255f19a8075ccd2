package session

import (
	"context"
	"fmt"

	"github.com/pathwise/compass-backend/internal/model"
)

// Resume reconstructs a live session from a persisted attempt,
// re-entering the answering phase directly at the stored coordinates.
// Intro screens the student already saw are skipped, with one
// exception: if the current section is adaptive and its external
// engine session can no longer be resumed, the session lands on that
// section's intro instead of an answering screen with no question.
func (c *Controller) Resume(ctx context.Context, attempt *model.Attempt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseGradeSelect {
		return ErrWrongPhase
	}

	list, err := c.sections.SectionsFor(ctx, attempt.GradeLevel, attempt.StreamID)
	if err != nil {
		return fmt.Errorf("rebuild sections: %w", err)
	}

	c.gradeLevel = attempt.GradeLevel
	c.streamID = attempt.StreamID
	c.list = list
	c.attemptID = attempt.ID.String()
	c.answers.Restore(attempt.Responses)
	for id, secs := range attempt.SectionTimings {
		c.sectionTimings[id] = secs
	}

	c.sectionIndex = clampIndex(attempt.CurrentSectionIndex, len(list))
	sec := c.sectionLocked()
	if sec == nil {
		return fmt.Errorf("attempt %s has no sections", c.attemptID)
	}
	c.questionIndex = 0
	if !sec.IsAdaptive {
		c.questionIndex = clampIndex(attempt.CurrentQuestionIndex, sec.QuestionCount)
	}

	if attempt.AdaptiveSessionID != nil {
		c.adaptiveSessionID = *attempt.AdaptiveSessionID
	}

	if sec.IsAdaptive {
		ok, err := c.adapter.CheckAndResumeSession(ctx, c.adaptiveSessionID)
		if err != nil || !ok {
			if err != nil {
				c.log.Warn().Err(err).Msg("Adaptive resume failed, showing section intro")
			}
			c.adaptiveSessionID = ""
			c.phase = PhaseSectionIntro
			return nil
		}
		c.phase = PhaseAnswering
		c.timer.ResetElapsed()
		c.armTimerLocked()
		c.log.Info().Int("section", c.sectionIndex).Msg("Attempt resumed into adaptive section")
		return nil
	}

	// Restore the section's clock to its persisted value.
	c.timer.ResetElapsed()
	if attempt.ElapsedTime != nil {
		c.timer.RestoreElapsed(*attempt.ElapsedTime)
	}
	c.sharedRemaining = sec.TimeLimit
	if attempt.TimerRemaining != nil && *attempt.TimerRemaining >= 0 && *attempt.TimerRemaining <= sec.TimeLimit {
		c.sharedRemaining = *attempt.TimerRemaining
	}

	c.phase = PhaseAnswering
	c.armTimerLocked()
	c.log.Info().
		Int("section", c.sectionIndex).
		Int("question", c.questionIndex).
		Int("answers", c.answers.Len()).
		Msg("Attempt resumed")
	return nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if n > 0 && i >= n {
		return n - 1
	}
	return i
}
