package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/adaptive"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/scoring"
)

// Phase enumerates the session state machine states.
type Phase string

const (
	PhaseGradeSelect     Phase = "grade_select"
	PhaseCategorySelect  Phase = "category_select"
	PhaseSectionIntro    Phase = "section_intro"
	PhaseAnswering       Phase = "answering"
	PhaseSectionComplete Phase = "section_complete"
	PhaseSubmitting      Phase = "submitting"
	PhaseComplete        Phase = "complete"
	PhaseRestricted      Phase = "restricted"
)

// fallbackAdaptiveChoice is auto-submitted when the adaptive
// per-question countdown expires with nothing selected.
const fallbackAdaptiveChoice = "A"

// Sentinel errors surfaced to the HTTP layer. Navigation-guard
// violations are deliberately NOT errors: they are silent no-ops.
var (
	ErrInvalidGrade    = errors.New("unknown grade level")
	ErrInvalidCategory = errors.New("unknown category")
	ErrWrongPhase      = errors.New("operation not valid in current phase")
	ErrNoQuestions     = errors.New("no questions available for this section")
	ErrAdaptiveEngine  = errors.New("adaptive engine unavailable")
)

// ProgressGateway is the persistence collaborator the controller
// pushes best-effort state through. Every call may fail without
// blocking the session; failures are logged and the session continues
// from local state.
type ProgressGateway interface {
	CreateAttempt(ctx context.Context, studentID int, gradeLevel, streamID string, sections []model.Section) (string, error)
	UpdateProgress(ctx context.Context, snap model.ProgressSnapshot) error
	CompleteAttempt(ctx context.Context, attemptID string, result *model.AssessmentResult) (string, error)
	AbandonAttempt(ctx context.Context, attemptID string) error
}

// Scorer computes the final result from the collected answers.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) (*model.AssessmentResult, error)
}

// SectionSource assembles the fixed section list for a grade/stream.
// Implementations own the retry-once policy for empty loads.
type SectionSource interface {
	SectionsFor(ctx context.Context, gradeLevel, streamID string) ([]model.Section, error)
}

// Config carries the controller's collaborators and knobs.
type Config struct {
	Log              zerolog.Logger
	Gateway          ProgressGateway
	Adapter          adaptive.Adapter
	Scorer           Scorer
	Sections         SectionSource
	AdaptiveSeconds  int
	HeartbeatSeconds int
}

// Controller owns one student's assessment session: the phase
// machine, the section/question pointers, the answer store and the
// timer driver. All collaborator effects are driven from its
// operations; callers from the manager tick loop and from HTTP
// handlers serialize on the internal mutex, which preserves the
// single-logical-thread execution model.
type Controller struct {
	mu  sync.Mutex
	log zerolog.Logger

	gateway  ProgressGateway
	adapter  adaptive.Adapter
	scorer   Scorer
	sections SectionSource

	adaptiveSeconds  int
	heartbeatSeconds int

	studentID  int
	phase      Phase
	gradeLevel string
	streamID   string

	list          []model.Section
	sectionIndex  int
	questionIndex int

	answers        *AnswerStore
	timer          TimerDriver
	sectionTimings map[string]int

	// sharedRemaining is the canonical shared-phase countdown for the
	// current section. The driver holds the live clock; this field
	// preserves the remainder across individual-phase excursions and
	// intro/complete freezes.
	sharedRemaining int

	attemptID         string
	adaptiveSessionID string
	resultID          string
	result            *model.AssessmentResult

	submitErr     error
	adaptiveErr   error
	nextAvailable *time.Time

	tickCount  int
	lastActive time.Time
}

// New creates a controller in the grade-selection phase.
func New(studentID int, cfg Config) *Controller {
	return &Controller{
		log:              cfg.Log.With().Str("component", "session_controller").Int("student_id", studentID).Logger(),
		gateway:          cfg.Gateway,
		adapter:          cfg.Adapter,
		scorer:           cfg.Scorer,
		sections:         cfg.Sections,
		adaptiveSeconds:  cfg.AdaptiveSeconds,
		heartbeatSeconds: cfg.HeartbeatSeconds,
		studentID:        studentID,
		phase:            PhaseGradeSelect,
		answers:          NewAnswerStore(),
		sectionTimings:   make(map[string]int),
		lastActive:       time.Now(),
	}
}

// MarkRestricted puts the session in the terminal restricted state
// (retake cooldown not elapsed).
func (c *Controller) MarkRestricted(nextAvailable *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseRestricted
	c.nextAvailable = nextAvailable
}

// SelectGrade sets the grade level and either opens the category step
// or loads sections and opens the first intro. The remote attempt is
// created best-effort; a failure keeps the session local.
func (c *Controller) SelectGrade(ctx context.Context, level string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseGradeSelect {
		return ErrWrongPhase
	}
	if !model.ValidGradeLevel(level) {
		return ErrInvalidGrade
	}
	c.gradeLevel = level

	if model.GradeRequiresCategory(level) {
		c.phase = PhaseCategorySelect
		return nil
	}
	return c.startAssessmentLocked(ctx, model.StreamGeneral)
}

// SelectCategory fixes the stream for grade levels that go through
// the category step, then loads sections and opens the first intro.
func (c *Controller) SelectCategory(ctx context.Context, categoryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseCategorySelect {
		return ErrWrongPhase
	}
	if !model.ValidStream(categoryID) {
		return ErrInvalidCategory
	}
	return c.startAssessmentLocked(ctx, categoryID)
}

// startAssessmentLocked loads the section list and creates the remote
// attempt. On a question-load failure the phase is left unchanged so
// the caller can retry manually.
func (c *Controller) startAssessmentLocked(ctx context.Context, streamID string) error {
	list, err := c.sections.SectionsFor(ctx, c.gradeLevel, streamID)
	if err != nil {
		return err
	}
	c.streamID = streamID
	c.list = list
	c.sectionIndex = 0
	c.questionIndex = 0
	c.phase = PhaseSectionIntro

	attemptID, err := c.gateway.CreateAttempt(ctx, c.studentID, c.gradeLevel, c.streamID, list)
	if err != nil {
		// Non-fatal: the session continues locally and resumability is
		// simply lost until a later write succeeds.
		c.log.Warn().Err(err).Msg("Create attempt failed, continuing locally")
	} else {
		c.attemptID = attemptID
	}
	return nil
}

// StartSection reveals the first question of the current section. For
// the adaptive section this first establishes (or resumes) the
// external engine session; an engine failure keeps the intro screen
// so the student can retry.
func (c *Controller) StartSection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseSectionIntro {
		return ErrWrongPhase
	}
	sec := c.sectionLocked()
	if sec == nil {
		return ErrWrongPhase
	}

	if sec.IsAdaptive {
		if err := c.startAdaptiveLocked(ctx); err != nil {
			c.adaptiveErr = err
			return err
		}
		c.adaptiveErr = nil
	}

	c.questionIndex = 0
	c.timer.ResetElapsed()
	c.sharedRemaining = sec.TimeLimit
	c.phase = PhaseAnswering
	c.armTimerLocked()
	c.enqueueProgressLocked(ctx)

	c.log.Info().Str("section", sec.ID).Msg("Section started")
	return nil
}

func (c *Controller) startAdaptiveLocked(ctx context.Context) error {
	if c.adaptiveSessionID != "" {
		ok, err := c.adapter.CheckAndResumeSession(ctx, c.adaptiveSessionID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAdaptiveEngine, err)
		}
		if ok {
			return nil
		}
		c.adaptiveSessionID = ""
	}
	if err := c.adapter.StartTest(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrAdaptiveEngine, err)
	}
	c.adaptiveSessionID = c.adapter.SessionID()
	return nil
}

// AnswerQuestion writes (or clears) the answer for the current
// question. Clearing happens when the value is empty after
// sanitization. For scorable timed sections correctness is computed
// as telemetry only; it never blocks navigation.
func (c *Controller) AnswerQuestion(ctx context.Context, value model.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseAnswering {
		return ErrWrongPhase
	}
	sec := c.sectionLocked()
	q := c.questionLocked()
	if sec == nil || q == nil {
		return nil
	}

	key := model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}
	c.answers.Set(key, value)

	if q.CorrectAnswer != "" && (sec.IsAptitude || sec.ID == model.SectionKnowledge) {
		if stored, ok := c.answers.Get(key); ok {
			c.log.Debug().
				Str("section", sec.ID).
				Str("question", q.ID).
				Bool("correct", stored.Option == q.CorrectAnswer).
				Msg("Scored answer recorded")
		}
	}

	c.enqueueProgressLocked(ctx)
	return nil
}

// Next advances within the current section. On the last question it
// completes the section, or begins submission when it was the final
// section. In the adaptive section it instead submits the selected
// option through the engine. An unanswered gate makes this a silent
// no-op.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseAnswering {
		return ErrWrongPhase
	}
	sec := c.sectionLocked()
	if sec == nil {
		return ErrWrongPhase
	}

	if sec.IsAdaptive {
		return c.submitAdaptiveLocked(ctx, false)
	}

	if !c.isCurrentAnsweredLocked() {
		return nil // navigation guard: silent no-op
	}

	if c.questionIndex < sec.QuestionCount-1 {
		c.questionIndex++
		c.armTimerLocked()
		c.enqueueProgressLocked(ctx)
		return nil
	}

	if c.sectionIndex == len(c.list)-1 {
		c.recordSectionTimingLocked()
		return c.beginSubmitLocked(ctx)
	}
	c.enterSectionCompleteLocked()
	return nil
}

// Previous steps back within the current section. Cross-section
// backward navigation is never permitted; out-of-range calls are
// silent no-ops.
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseAnswering {
		return ErrWrongPhase
	}
	sec := c.sectionLocked()
	if sec == nil || sec.IsAdaptive || c.questionIndex == 0 {
		return nil
	}
	c.questionIndex--
	c.armTimerLocked()
	c.enqueueProgressLocked(ctx)
	return nil
}

// NextSection closes the completed section: it records the used time
// and resets per-section timer state, then opens the next intro or
// begins submission after the final section.
func (c *Controller) NextSection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.phase != PhaseSectionComplete {
		return ErrWrongPhase
	}
	return c.nextSectionLocked(ctx)
}

func (c *Controller) nextSectionLocked(ctx context.Context) error {
	c.recordSectionTimingLocked()

	if c.sectionIndex == len(c.list)-1 {
		return c.beginSubmitLocked(ctx)
	}

	c.sectionIndex++
	c.questionIndex = 0
	c.timer.Disarm()
	c.timer.ResetElapsed()
	c.sharedRemaining = 0
	c.phase = PhaseSectionIntro
	c.enqueueProgressLocked(ctx)
	return nil
}

// Submit retries a failed submission, or finalizes from the last
// section-complete screen. Answers are never lost on failure; the
// phase stays retryable.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	switch c.phase {
	case PhaseSectionComplete:
		if c.sectionIndex != len(c.list)-1 {
			return ErrWrongPhase
		}
		return c.nextSectionLocked(ctx)
	case PhaseSubmitting:
		return c.finalizeLocked(ctx)
	default:
		return ErrWrongPhase
	}
}

// Abandon discards the attempt (no-progress sessions only get here
// via the resume check; explicit abandon is always allowed).
func (c *Controller) Abandon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timer.Disarm()
	if c.attemptID == "" {
		return nil
	}
	return c.gateway.AbandonAttempt(ctx, c.attemptID)
}

// RetrySection re-attempts starting a section whose question or
// engine load failed (blocked state with manual retry).
func (c *Controller) RetrySection(ctx context.Context) error {
	return c.StartSection(ctx)
}

// Tick advances the live clock by one second. The manager calls this
// once per second for every attached controller; outside the
// answering phase it is a no-op, so intro/complete/submitting screens
// freeze all clocks.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseAnswering {
		return
	}

	regime := c.timer.Regime()
	expired := c.timer.Tick()
	if regime == RegimeShared {
		c.sharedRemaining = c.timer.Remaining()
	}

	c.tickCount++
	if c.heartbeatSeconds > 0 && c.tickCount%c.heartbeatSeconds == 0 {
		c.enqueueProgressLocked(ctx)
	}

	if !expired {
		return
	}

	switch regime {
	case RegimeShared:
		// Pooled countdown exhausted: the whole section ends. The
		// driver disarmed itself, so this fires exactly once.
		if err := c.nextSectionLocked(ctx); err != nil {
			c.log.Error().Err(err).Msg("Auto section advance failed")
		}
	case RegimeIndividual:
		c.autoAdvanceIndividualLocked(ctx)
	case RegimeAdaptive:
		if err := c.submitAdaptiveLocked(ctx, true); err != nil {
			c.log.Warn().Err(err).Msg("Adaptive auto-submit failed")
			c.armTimerLocked() // retry on the next countdown
		}
	}
}

func (c *Controller) autoAdvanceIndividualLocked(ctx context.Context) {
	sec := c.sectionLocked()
	if sec == nil {
		return
	}
	if c.questionIndex < sec.QuestionCount-1 {
		c.questionIndex++
		c.armTimerLocked()
		c.enqueueProgressLocked(ctx)
		return
	}
	// Expiry on the last question completes the section.
	if c.sectionIndex == len(c.list)-1 {
		c.recordSectionTimingLocked()
		if err := c.beginSubmitLocked(ctx); err != nil {
			c.log.Error().Err(err).Msg("Auto submit failed")
		}
		return
	}
	c.enterSectionCompleteLocked()
}

// submitAdaptiveLocked pushes the selected (or fallback) choice
// through the engine. Called from Next and from adaptive timer expiry.
func (c *Controller) submitAdaptiveLocked(ctx context.Context, auto bool) error {
	sec := c.sectionLocked()
	q := c.adapter.CurrentQuestion()
	if sec == nil || q == nil {
		return ErrAdaptiveEngine
	}

	choice := fallbackAdaptiveChoice
	if a, ok := c.answers.Get(model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}); ok && a.Option != "" {
		choice = a.Option
	} else if !auto {
		return nil // manual Next requires a selection: silent no-op
	}

	res, err := c.adapter.SubmitAnswer(ctx, choice)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrAdaptiveEngine, err)
		c.adaptiveErr = err
		return err
	}
	c.adaptiveErr = nil
	c.enqueueProgressLocked(ctx)

	if res.TestComplete {
		c.enterSectionCompleteLocked()
		return nil
	}
	c.armTimerLocked() // fresh per-question countdown
	return nil
}

func (c *Controller) enterSectionCompleteLocked() {
	c.timer.Disarm()
	c.phase = PhaseSectionComplete
}

// beginSubmitLocked freezes timing and runs scoring + finalization.
func (c *Controller) beginSubmitLocked(ctx context.Context) error {
	c.timer.Disarm()
	c.phase = PhaseSubmitting
	return c.finalizeLocked(ctx)
}

func (c *Controller) finalizeLocked(ctx context.Context) error {
	in := scoring.Input{
		GradeLevel:     c.gradeLevel,
		StreamID:       c.streamID,
		Sections:       c.list,
		Answers:        c.answers.Export(),
		SectionTimings: c.sectionTimings,
	}
	if c.adapter != nil {
		in.Adaptive = c.adapter.Summary()
	}

	result, err := c.scorer.Score(ctx, in)
	if err != nil {
		c.submitErr = err
		c.log.Error().Err(err).Msg("Scoring failed, submission retryable")
		return err
	}
	result.StudentID = c.studentID

	// A session that started without an attempt row (create failed at
	// grade selection) gets one now: the stored result references the
	// attempt, so there is nothing to complete without it.
	if c.attemptID == "" {
		attemptID, err := c.gateway.CreateAttempt(ctx, c.studentID, c.gradeLevel, c.streamID, c.list)
		if err != nil {
			c.submitErr = err
			c.log.Error().Err(err).Msg("Create attempt at submit failed, submission retryable")
			return err
		}
		c.attemptID = attemptID
	}
	attemptUUID, err := uuid.Parse(c.attemptID)
	if err != nil {
		c.submitErr = err
		c.log.Error().Err(err).Str("attempt_id", c.attemptID).Msg("Malformed attempt id, submission retryable")
		return err
	}
	result.AttemptID = attemptUUID

	resultID, err := c.gateway.CompleteAttempt(ctx, c.attemptID, result)
	if err != nil {
		c.submitErr = err
		c.log.Error().Err(err).Msg("Finalize failed, submission retryable")
		return err
	}

	c.submitErr = nil
	c.resultID = resultID
	c.result = result
	c.phase = PhaseComplete
	c.log.Info().Str("result_id", resultID).Msg("Assessment completed")
	return nil
}

// recordSectionTimingLocked stores the seconds spent on the current
// section: limit minus remainder for pool-timed sections, the elapsed
// counter otherwise (untimed, aptitude and adaptive sections).
func (c *Controller) recordSectionTimingLocked() {
	sec := c.sectionLocked()
	if sec == nil {
		return
	}
	used := c.timer.Elapsed()
	if sec.IsTimed && !sec.IsAptitude && !sec.IsAdaptive {
		used = sec.TimeLimit - c.sharedRemaining
		if used < 0 {
			used = 0
		}
		if used > sec.TimeLimit {
			used = sec.TimeLimit
		}
	}
	c.sectionTimings[sec.ID] = used
}

// armTimerLocked selects and arms the regime for the current
// coordinates. Re-arming an already-live shared or elapsed clock is a
// no-op so question navigation never resets pooled time.
func (c *Controller) armTimerLocked() {
	sec := c.sectionLocked()
	if sec == nil {
		c.timer.Disarm()
		return
	}

	switch {
	case sec.IsAdaptive:
		c.timer.Arm(RegimeAdaptive, c.adaptiveSeconds)
	case sec.IsAptitude && c.questionIndex < sec.IndividualCount:
		c.timer.Arm(RegimeIndividual, sec.IndividualTimeLimit)
	case sec.IsAptitude || sec.IsTimed:
		if c.timer.Regime() != RegimeShared {
			remaining := c.sharedRemaining
			if remaining <= 0 {
				remaining = sec.TimeLimit
			}
			c.timer.Arm(RegimeShared, remaining)
		}
	default:
		if c.timer.Regime() != RegimeElapsed {
			c.timer.Arm(RegimeElapsed, 0)
		}
	}
}

func (c *Controller) sectionLocked() *model.Section {
	if c.sectionIndex < 0 || c.sectionIndex >= len(c.list) {
		return nil
	}
	return &c.list[c.sectionIndex]
}

func (c *Controller) questionLocked() *model.Question {
	sec := c.sectionLocked()
	if sec == nil {
		return nil
	}
	if sec.IsAdaptive {
		return c.adapter.CurrentQuestion()
	}
	if c.questionIndex < 0 || c.questionIndex >= len(sec.Questions) {
		return nil
	}
	return &sec.Questions[c.questionIndex]
}

func (c *Controller) isCurrentAnsweredLocked() bool {
	sec := c.sectionLocked()
	q := c.questionLocked()
	if sec == nil || q == nil {
		return false
	}
	a, ok := c.answers.Get(model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID})
	if !ok {
		return false
	}
	return a.Answers(*q)
}

// enqueueProgressLocked pushes the full current coordinates to the
// gateway. Best-effort: a failure is logged and the session continues
// from local state (the gateway's outbox retries delivery).
func (c *Controller) enqueueProgressLocked(ctx context.Context) {
	if c.attemptID == "" {
		return
	}
	snap := model.ProgressSnapshot{
		AttemptID:      c.attemptID,
		StudentID:      c.studentID,
		SectionIndex:   c.sectionIndex,
		QuestionIndex:  c.questionIndex,
		Responses:      c.answers.Export(),
		SectionTimings: cloneTimings(c.sectionTimings),
	}
	if sec := c.sectionLocked(); sec != nil {
		if sec.IsTimed || sec.IsAptitude {
			remaining := c.sharedRemaining
			snap.TimerRemaining = &remaining
		} else if !sec.IsAdaptive {
			elapsed := c.timer.Elapsed()
			snap.ElapsedTime = &elapsed
		}
	}
	if c.adaptiveSessionID != "" {
		id := c.adaptiveSessionID
		snap.AdaptiveSessionID = &id
	}

	if err := c.gateway.UpdateProgress(ctx, snap); err != nil {
		c.log.Warn().Err(err).Msg("Progress save failed, continuing locally")
	}
}

func (c *Controller) touch() {
	c.lastActive = time.Now()
}

// LastActive reports the time of the most recent student operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func cloneTimings(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
