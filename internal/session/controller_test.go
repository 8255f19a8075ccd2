package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/compass-backend/internal/adaptive"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/scoring"
)

// ─── Fakes ──────────────────────────────────────────────────────────

// testAttemptID is the attempt id the fake gateway hands out. A real
// UUID because the controller parses it into the result linkage.
const testAttemptID = "b7f3d6a2-4c1e-4f8a-9d5b-2e8c7a61f0d4"

type fakeGateway struct {
	createErr   error
	completeErr error
	createCalls int
	snaps       []model.ProgressSnapshot
	completed   []string
	abandoned   []string
	lastResult  *model.AssessmentResult
}

func (f *fakeGateway) CreateAttempt(ctx context.Context, studentID int, gradeLevel, streamID string, sections []model.Section) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	return testAttemptID, nil
}

func (f *fakeGateway) UpdateProgress(ctx context.Context, snap model.ProgressSnapshot) error {
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeGateway) CompleteAttempt(ctx context.Context, attemptID string, result *model.AssessmentResult) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	f.completed = append(f.completed, attemptID)
	f.lastResult = result
	return "result-1", nil
}

func (f *fakeGateway) AbandonAttempt(ctx context.Context, attemptID string) error {
	f.abandoned = append(f.abandoned, attemptID)
	return nil
}

type fakeAdapter struct {
	sessionID  string
	startErr   error
	resumeOK   bool
	resumeErr  error
	questions  []model.Question
	idx        int
	submitted  []string
	submitErr  error
	completeAt int
	summary    *model.AdaptiveSummary
}

func (f *fakeAdapter) StartTest(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.sessionID = "engine-1"
	return nil
}

func (f *fakeAdapter) ResumeTest(ctx context.Context, sessionID string) error {
	if f.resumeErr != nil {
		return f.resumeErr
	}
	f.sessionID = sessionID
	return nil
}

func (f *fakeAdapter) CheckAndResumeSession(ctx context.Context, sessionID string) (bool, error) {
	if f.resumeErr != nil {
		return false, f.resumeErr
	}
	if f.resumeOK {
		f.sessionID = sessionID
	}
	return f.resumeOK, nil
}

func (f *fakeAdapter) SubmitAnswer(ctx context.Context, choice string) (adaptive.SubmitResult, error) {
	if f.submitErr != nil {
		return adaptive.SubmitResult{}, f.submitErr
	}
	f.submitted = append(f.submitted, choice)
	done := f.completeAt > 0 && len(f.submitted) >= f.completeAt
	if done {
		f.summary = &model.AdaptiveSummary{SessionID: f.sessionID, QuestionsAnswered: len(f.submitted)}
	} else if f.idx < len(f.questions)-1 {
		f.idx++
	}
	return adaptive.SubmitResult{TestComplete: done}, nil
}

func (f *fakeAdapter) SessionID() string          { return f.sessionID }
func (f *fakeAdapter) Progress() adaptive.Progress { return adaptive.Progress{} }
func (f *fakeAdapter) Summary() *model.AdaptiveSummary { return f.summary }

func (f *fakeAdapter) CurrentQuestion() *model.Question {
	if len(f.questions) == 0 {
		return nil
	}
	return &f.questions[f.idx]
}

type fakeScorer struct {
	err   error
	calls int
	last  scoring.Input
}

func (f *fakeScorer) Score(ctx context.Context, in scoring.Input) (*model.AssessmentResult, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &model.AssessmentResult{ID: uuid.New(), GradeLevel: in.GradeLevel, StreamID: in.StreamID}, nil
}

type fakeSource struct {
	sections []model.Section
	err      error
}

func (f *fakeSource) SectionsFor(ctx context.Context, gradeLevel, streamID string) ([]model.Section, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sections, nil
}

// ─── Fixtures ───────────────────────────────────────────────────────

func ratingSection(id string, n int) model.Section {
	s := model.Section{ID: id, Title: id}
	for i := 1; i <= n; i++ {
		s.Questions = append(s.Questions, model.Question{
			ID:   fmt.Sprintf("%s-q%d", id, i),
			Type: model.QuestionTypeRating,
		})
	}
	s.Finalize()
	return s
}

func knowledgeSection(limit, n int) model.Section {
	s := model.Section{ID: model.SectionKnowledge, Title: "knowledge", IsTimed: true, TimeLimit: limit}
	for i := 1; i <= n; i++ {
		s.Questions = append(s.Questions, model.Question{
			ID:            fmt.Sprintf("k-q%d", i),
			Type:          model.QuestionTypeSingleSelect,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		})
	}
	s.Finalize()
	return s
}

func aptitudeSection(individual, limit, n int) model.Section {
	s := model.Section{
		ID: model.SectionAptitude, Title: "aptitude",
		IsAptitude: true, IsTimed: true,
		TimeLimit: limit, IndividualTimeLimit: 2, IndividualCount: individual,
	}
	for i := 1; i <= n; i++ {
		s.Questions = append(s.Questions, model.Question{
			ID:            fmt.Sprintf("a-q%d", i),
			Type:          model.QuestionTypeSingleSelect,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
			Category:      "logical",
		})
	}
	s.Finalize()
	return s
}

func adaptiveSection() model.Section {
	s := model.Section{ID: model.SectionAdaptive, Title: "adaptive", IsAdaptive: true}
	s.Finalize()
	return s
}

type testRig struct {
	ctrl    *Controller
	gateway *fakeGateway
	adapter *fakeAdapter
	scorer  *fakeScorer
	source  *fakeSource
}

func newRig(sections ...model.Section) *testRig {
	r := &testRig{
		gateway: &fakeGateway{},
		adapter: &fakeAdapter{},
		scorer:  &fakeScorer{},
		source:  &fakeSource{sections: sections},
	}
	r.ctrl = New(7, Config{
		Log:              zerolog.Nop(),
		Gateway:          r.gateway,
		Adapter:          r.adapter,
		Scorer:           r.scorer,
		Sections:         r.source,
		AdaptiveSeconds:  3,
		HeartbeatSeconds: 30,
	})
	return r
}

func answerOption(t *testing.T, c *Controller, option string) {
	t.Helper()
	require.NoError(t, c.AnswerQuestion(context.Background(), model.Answer{Kind: model.AnswerKindOption, Option: option}))
}

func answerRating(t *testing.T, c *Controller, rating int) {
	t.Helper()
	require.NoError(t, c.AnswerQuestion(context.Background(), model.Answer{Kind: model.AnswerKindRating, Rating: rating}))
}

// ─── Grade and category flow ────────────────────────────────────────

func TestSelectGradeNineSkipsCategory(t *testing.T) {
	r := newRig(ratingSection("interest", 2))
	ctx := context.Background()

	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	st := r.ctrl.State()
	assert.Equal(t, PhaseSectionIntro, st.Phase)
	assert.Equal(t, model.StreamGeneral, st.StreamID)
	assert.Equal(t, testAttemptID, r.ctrl.AttemptID())
}

func TestSelectGradeTwelveRequiresCategory(t *testing.T) {
	r := newRig(ratingSection("interest", 2))
	ctx := context.Background()

	require.NoError(t, r.ctrl.SelectGrade(ctx, "12"))
	assert.Equal(t, PhaseCategorySelect, r.ctrl.CurrentPhase())

	assert.ErrorIs(t, r.ctrl.SelectCategory(ctx, "astrology"), ErrInvalidCategory)

	require.NoError(t, r.ctrl.SelectCategory(ctx, model.StreamScience))
	st := r.ctrl.State()
	assert.Equal(t, PhaseSectionIntro, st.Phase)
	assert.Equal(t, model.StreamScience, st.StreamID)
}

func TestSelectGradeRejectsUnknownLevel(t *testing.T) {
	r := newRig(ratingSection("interest", 2))
	assert.ErrorIs(t, r.ctrl.SelectGrade(context.Background(), "10"), ErrInvalidGrade)
	assert.Equal(t, PhaseGradeSelect, r.ctrl.CurrentPhase())
}

func TestSelectGradeWrongPhase(t *testing.T) {
	r := newRig(ratingSection("interest", 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	assert.ErrorIs(t, r.ctrl.SelectGrade(ctx, "9"), ErrWrongPhase)
}

func TestCreateAttemptFailureKeepsSessionLocal(t *testing.T) {
	r := newRig(ratingSection("interest", 1))
	r.gateway.createErr = errors.New("db down")

	require.NoError(t, r.ctrl.SelectGrade(context.Background(), "9"))
	assert.Equal(t, PhaseSectionIntro, r.ctrl.CurrentPhase())
	assert.Empty(t, r.ctrl.AttemptID())
}

func TestSectionLoadErrorKeepsPhase(t *testing.T) {
	r := newRig()
	r.source.err = ErrNoQuestions

	assert.ErrorIs(t, r.ctrl.SelectGrade(context.Background(), "9"), ErrNoQuestions)
	assert.Equal(t, PhaseGradeSelect, r.ctrl.CurrentPhase())
}

// ─── Navigation ─────────────────────────────────────────────────────

func TestNextBlockedUntilAnswered(t *testing.T) {
	r := newRig(ratingSection("interest", 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	// Unanswered: silent no-op, same question.
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, 0, r.ctrl.State().QuestionIndex)

	answerRating(t, r.ctrl, 4)
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, 1, r.ctrl.State().QuestionIndex)
}

func TestPreviousStopsAtSectionStart(t *testing.T) {
	r := newRig(ratingSection("interest", 2), ratingSection("personality", 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	// At the first question Previous is a silent no-op.
	require.NoError(t, r.ctrl.Previous(ctx))
	assert.Equal(t, 0, r.ctrl.State().QuestionIndex)

	answerRating(t, r.ctrl, 3)
	require.NoError(t, r.ctrl.Next(ctx))
	require.NoError(t, r.ctrl.Previous(ctx))
	assert.Equal(t, 0, r.ctrl.State().QuestionIndex)

	// Never across a section boundary: finish section one, enter two.
	require.NoError(t, r.ctrl.Next(ctx))
	answerRating(t, r.ctrl, 5)
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, PhaseSectionComplete, r.ctrl.CurrentPhase())
	require.NoError(t, r.ctrl.NextSection(ctx))
	require.NoError(t, r.ctrl.StartSection(ctx))
	require.NoError(t, r.ctrl.Previous(ctx))
	st := r.ctrl.State()
	assert.Equal(t, 1, st.SectionIndex)
	assert.Equal(t, 0, st.QuestionIndex)
}

func TestAnswerClearedReblocksNavigation(t *testing.T) {
	r := newRig(ratingSection("interest", 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	answerRating(t, r.ctrl, 4)
	answerRating(t, r.ctrl, 0) // clear
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, 0, r.ctrl.State().QuestionIndex)
}

// ─── Timers ─────────────────────────────────────────────────────────

func TestSharedPoolSurvivesIndividualExcursion(t *testing.T) {
	r := newRig(aptitudeSection(1, 30, 3), ratingSection("interest", 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	// Question 0 runs the individual clock.
	assert.Equal(t, "individual", r.ctrl.State().Timer.Regime)

	answerOption(t, r.ctrl, "B")
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, "shared", r.ctrl.State().Timer.Regime)
	assert.Equal(t, 30, r.ctrl.State().Timer.Remaining)

	// Burn 10 seconds of the pool.
	for i := 0; i < 10; i++ {
		r.ctrl.Tick(ctx)
	}
	assert.Equal(t, 20, r.ctrl.State().Timer.Remaining)

	// Step back into the individual question and forward again: the
	// pool must resume at 20, not reset to 30.
	require.NoError(t, r.ctrl.Previous(ctx))
	assert.Equal(t, "individual", r.ctrl.State().Timer.Regime)
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, "shared", r.ctrl.State().Timer.Regime)
	assert.Equal(t, 20, r.ctrl.State().Timer.Remaining)
}

func TestSharedExpiryEndsSectionExactlyOnce(t *testing.T) {
	r := newRig(knowledgeSection(3, 2), ratingSection("interest", 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	r.ctrl.Tick(ctx)
	r.ctrl.Tick(ctx)
	assert.Equal(t, PhaseAnswering, r.ctrl.CurrentPhase())

	r.ctrl.Tick(ctx)
	assert.Equal(t, PhaseSectionIntro, r.ctrl.CurrentPhase(), "pool exhausted ends the whole section")
	assert.Equal(t, 1, r.ctrl.State().SectionIndex)

	// The expired clock must not fire again on later ticks.
	r.ctrl.Tick(ctx)
	r.ctrl.Tick(ctx)
	assert.Equal(t, 1, r.ctrl.State().SectionIndex)
	assert.Equal(t, PhaseSectionIntro, r.ctrl.CurrentPhase())
}

func TestIndividualExpiryAutoAdvances(t *testing.T) {
	r := newRig(aptitudeSection(2, 30, 3), ratingSection("interest", 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	// Individual limit is 2s; expiry advances without an answer.
	r.ctrl.Tick(ctx)
	r.ctrl.Tick(ctx)
	st := r.ctrl.State()
	assert.Equal(t, 1, st.QuestionIndex)
	assert.Equal(t, "individual", st.Timer.Regime)
	assert.Equal(t, 2, st.Timer.Remaining, "fresh countdown per question")
}

func TestIntroScreenFreezesClocks(t *testing.T) {
	r := newRig(knowledgeSection(5, 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))

	// Still on the intro: ticks must not move anything.
	for i := 0; i < 10; i++ {
		r.ctrl.Tick(ctx)
	}
	require.NoError(t, r.ctrl.StartSection(ctx))
	assert.Equal(t, 5, r.ctrl.State().Timer.Remaining)
}

func TestTimedSectionTimingUsesPoolRemainder(t *testing.T) {
	r := newRig(knowledgeSection(10, 1), ratingSection("interest", 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	for i := 0; i < 4; i++ {
		r.ctrl.Tick(ctx)
	}
	answerOption(t, r.ctrl, "A")
	require.NoError(t, r.ctrl.Next(ctx))
	require.NoError(t, r.ctrl.NextSection(ctx))

	require.NoError(t, r.ctrl.StartSection(ctx))
	answerRating(t, r.ctrl, 3)
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, 4, r.scorer.last.SectionTimings[model.SectionKnowledge])
}

// ─── Adaptive section ───────────────────────────────────────────────

func TestAdaptiveStartFailureKeepsIntroForRetry(t *testing.T) {
	r := newRig(adaptiveSection())
	r.adapter.startErr = errors.New("engine down")
	r.adapter.questions = []model.Question{{ID: "ad-1", Type: model.QuestionTypeAdaptive}}
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))

	err := r.ctrl.StartSection(ctx)
	require.Error(t, err)
	assert.Equal(t, PhaseSectionIntro, r.ctrl.CurrentPhase())
	assert.NotEmpty(t, r.ctrl.State().AdaptiveError)

	// Manual retry once the engine is back.
	r.adapter.startErr = nil
	require.NoError(t, r.ctrl.RetrySection(ctx))
	st := r.ctrl.State()
	assert.Equal(t, PhaseAnswering, st.Phase)
	assert.Empty(t, st.AdaptiveError)
	assert.Equal(t, "adaptive", st.Timer.Regime)
	assert.Equal(t, 3, st.Timer.Remaining)
}

func TestAdaptiveNextSubmitsSelectedOption(t *testing.T) {
	r := newRig(adaptiveSection())
	r.adapter.questions = []model.Question{
		{ID: "ad-1", Type: model.QuestionTypeAdaptive, Options: []string{"A", "B", "C", "D"}},
		{ID: "ad-2", Type: model.QuestionTypeAdaptive, Options: []string{"A", "B", "C", "D"}},
	}
	r.adapter.completeAt = 2
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	// No selection yet: manual Next is a silent no-op, nothing submitted.
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Empty(t, r.adapter.submitted)

	answerOption(t, r.ctrl, "C")
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, []string{"C"}, r.adapter.submitted)
	assert.Equal(t, "ad-2", r.ctrl.State().Question.ID)

	answerOption(t, r.ctrl, "D")
	require.NoError(t, r.ctrl.Next(ctx))
	assert.Equal(t, []string{"C", "D"}, r.adapter.submitted)
	assert.Equal(t, PhaseSectionComplete, r.ctrl.CurrentPhase())
}

func TestAdaptiveExpiryAutoSubmitsFallback(t *testing.T) {
	r := newRig(adaptiveSection())
	r.adapter.questions = []model.Question{
		{ID: "ad-1", Type: model.QuestionTypeAdaptive},
		{ID: "ad-2", Type: model.QuestionTypeAdaptive},
	}
	r.adapter.completeAt = 99
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	// Let the 3s per-question countdown lapse with nothing selected.
	r.ctrl.Tick(ctx)
	r.ctrl.Tick(ctx)
	r.ctrl.Tick(ctx)
	assert.Equal(t, []string{"A"}, r.adapter.submitted, "fallback choice submitted")
	assert.Equal(t, "ad-2", r.ctrl.State().Question.ID)
	assert.Equal(t, 3, r.ctrl.State().Timer.Remaining, "fresh countdown armed")
}

// ─── Submission ─────────────────────────────────────────────────────

func TestLastQuestionOfFinalSectionSubmits(t *testing.T) {
	r := newRig(ratingSection("interest", 1), knowledgeSection(10, 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))
	answerRating(t, r.ctrl, 2)
	require.NoError(t, r.ctrl.Next(ctx))
	require.NoError(t, r.ctrl.NextSection(ctx))
	require.NoError(t, r.ctrl.StartSection(ctx))
	answerOption(t, r.ctrl, "A")

	require.NoError(t, r.ctrl.Next(ctx))
	st := r.ctrl.State()
	assert.Equal(t, PhaseComplete, st.Phase)
	assert.Equal(t, "result-1", st.ResultID)
	assert.Equal(t, 1, r.scorer.calls)
	assert.Equal(t, []string{testAttemptID}, r.gateway.completed)
	require.NotNil(t, r.ctrl.Result())
	assert.Equal(t, 7, r.ctrl.Result().StudentID)
}

func TestFailedSubmissionIsRetryable(t *testing.T) {
	r := newRig(ratingSection("interest", 1))
	r.scorer.err = errors.New("catalog unavailable")
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))
	answerRating(t, r.ctrl, 4)

	require.Error(t, r.ctrl.Next(ctx))
	st := r.ctrl.State()
	assert.Equal(t, PhaseSubmitting, st.Phase)
	assert.NotEmpty(t, st.SubmitError)

	// Answers are intact and Submit retries the finalization.
	r.scorer.err = nil
	require.NoError(t, r.ctrl.Submit(ctx))
	st = r.ctrl.State()
	assert.Equal(t, PhaseComplete, st.Phase)
	assert.Empty(t, st.SubmitError)
	assert.Len(t, r.scorer.last.Answers, 1)
}

func TestCompletedResultReferencesAttempt(t *testing.T) {
	r := newRig(ratingSection("interest", 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))
	answerRating(t, r.ctrl, 3)
	require.NoError(t, r.ctrl.Next(ctx))

	require.NotNil(t, r.gateway.lastResult)
	assert.NotEqual(t, uuid.Nil, r.gateway.lastResult.AttemptID)
	assert.Equal(t, testAttemptID, r.gateway.lastResult.AttemptID.String())
}

func TestSubmitCreatesAttemptForLocalSession(t *testing.T) {
	r := newRig(ratingSection("interest", 1))
	r.gateway.createErr = errors.New("db down")
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))
	answerRating(t, r.ctrl, 5)
	assert.Empty(t, r.ctrl.AttemptID())

	// Still no attempt row: the submission fails but stays retryable.
	require.Error(t, r.ctrl.Next(ctx))
	assert.Equal(t, PhaseSubmitting, r.ctrl.State().Phase)
	assert.Empty(t, r.gateway.completed)

	// Storage recovers; the retry creates the attempt and completes it.
	r.gateway.createErr = nil
	require.NoError(t, r.ctrl.Submit(ctx))
	assert.Equal(t, 3, r.gateway.createCalls, "grade select, failed submit, retry")
	assert.Equal(t, PhaseComplete, r.ctrl.State().Phase)
	assert.Equal(t, testAttemptID, r.ctrl.AttemptID())
	assert.Equal(t, []string{testAttemptID}, r.gateway.completed)
	require.NotNil(t, r.gateway.lastResult)
	assert.Equal(t, testAttemptID, r.gateway.lastResult.AttemptID.String())
}

func TestSubmitWrongPhase(t *testing.T) {
	r := newRig(ratingSection("interest", 1))
	assert.ErrorIs(t, r.ctrl.Submit(context.Background()), ErrWrongPhase)
}

// ─── Progress persistence ───────────────────────────────────────────

func TestProgressSnapshotsAreSelfContained(t *testing.T) {
	r := newRig(knowledgeSection(60, 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))
	answerOption(t, r.ctrl, "A")
	r.ctrl.Tick(ctx)
	require.NoError(t, r.ctrl.Next(ctx))

	require.NotEmpty(t, r.gateway.snaps)
	last := r.gateway.snaps[len(r.gateway.snaps)-1]
	assert.Equal(t, testAttemptID, last.AttemptID)
	assert.Equal(t, 1, last.QuestionIndex)
	assert.Contains(t, last.Responses, "knowledge:k-q1")
	require.NotNil(t, last.TimerRemaining)
	assert.Equal(t, 59, *last.TimerRemaining)
}

func TestHeartbeatEnqueuesDuringIdleAnswering(t *testing.T) {
	r := newRig(knowledgeSection(600, 2))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.StartSection(ctx))

	before := len(r.gateway.snaps)
	for i := 0; i < 30; i++ {
		r.ctrl.Tick(ctx)
	}
	assert.Equal(t, before+1, len(r.gateway.snaps), "one heartbeat per 30 ticks")
}

func TestAbandonForwardsToGateway(t *testing.T) {
	r := newRig(ratingSection("interest", 1))
	ctx := context.Background()
	require.NoError(t, r.ctrl.SelectGrade(ctx, "9"))
	require.NoError(t, r.ctrl.Abandon(ctx))
	assert.Equal(t, []string{testAttemptID}, r.gateway.abandoned)
}

// ─── Resume ─────────────────────────────────────────────────────────

func persistedAttempt(sectionIdx, questionIdx int, responses map[string]model.Answer) *model.Attempt {
	return &model.Attempt{
		ID:                   uuid.New(),
		StudentID:            7,
		StreamID:             model.StreamGeneral,
		GradeLevel:           "9",
		Status:               model.AttemptStatusInProgress,
		CurrentSectionIndex:  sectionIdx,
		CurrentQuestionIndex: questionIdx,
		Responses:            responses,
		SectionTimings:       map[string]int{},
	}
}

func TestResumeLandsOnStoredCoordinates(t *testing.T) {
	r := newRig(ratingSection("interest", 3), knowledgeSection(10, 2))
	attempt := persistedAttempt(0, 2, map[string]model.Answer{
		"interest:interest-q1": {Kind: model.AnswerKindRating, Rating: 4},
		"interest:interest-q2": {Kind: model.AnswerKindRating, Rating: 2},
	})

	require.NoError(t, r.ctrl.Resume(context.Background(), attempt))
	st := r.ctrl.State()
	assert.Equal(t, PhaseAnswering, st.Phase)
	assert.Equal(t, 0, st.SectionIndex)
	assert.Equal(t, 2, st.QuestionIndex)
	assert.Equal(t, attempt.ID.String(), r.ctrl.AttemptID())
}

func TestResumeRestoresSharedClock(t *testing.T) {
	r := newRig(knowledgeSection(120, 2))
	remaining := 45
	attempt := persistedAttempt(0, 1, map[string]model.Answer{
		"knowledge:k-q1": {Kind: model.AnswerKindOption, Option: "A"},
	})
	attempt.TimerRemaining = &remaining

	require.NoError(t, r.ctrl.Resume(context.Background(), attempt))
	st := r.ctrl.State()
	assert.Equal(t, "shared", st.Timer.Regime)
	assert.Equal(t, 45, st.Timer.Remaining)
}

func TestResumeFailedAdaptiveSessionFallsBackToIntro(t *testing.T) {
	r := newRig(ratingSection("interest", 1), adaptiveSection())
	r.adapter.resumeOK = false
	engineID := "engine-zombie"
	attempt := persistedAttempt(1, 0, map[string]model.Answer{
		"interest:interest-q1": {Kind: model.AnswerKindRating, Rating: 3},
	})
	attempt.AdaptiveSessionID = &engineID

	require.NoError(t, r.ctrl.Resume(context.Background(), attempt))
	assert.Equal(t, PhaseSectionIntro, r.ctrl.CurrentPhase(), "dead engine session lands on the intro")
	assert.Equal(t, 1, r.ctrl.State().SectionIndex)
}

func TestResumeLiveAdaptiveSessionContinuesAnswering(t *testing.T) {
	r := newRig(adaptiveSection())
	r.adapter.resumeOK = true
	r.adapter.questions = []model.Question{{ID: "ad-9", Type: model.QuestionTypeAdaptive}}
	engineID := "engine-5"
	attempt := persistedAttempt(0, 0, map[string]model.Answer{
		"adaptive_aptitude:ad-1": {Kind: model.AnswerKindOption, Option: "B"},
	})
	attempt.AdaptiveSessionID = &engineID

	require.NoError(t, r.ctrl.Resume(context.Background(), attempt))
	st := r.ctrl.State()
	assert.Equal(t, PhaseAnswering, st.Phase)
	assert.Equal(t, "adaptive", st.Timer.Regime)
	require.NotNil(t, st.Question)
	assert.Equal(t, "ad-9", st.Question.ID)
}
