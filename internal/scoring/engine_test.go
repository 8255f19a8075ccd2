package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/compass-backend/internal/model"
)

var likert5 = []string{
	"Sangat tidak setuju", "Tidak setuju", "Netral", "Setuju", "Sangat setuju",
}

func key(sectionID, questionID string) string {
	return model.AnswerKey{SectionID: sectionID, QuestionID: questionID}.String()
}

func ratingAnswer(v int) model.Answer {
	return model.Answer{Kind: model.AnswerKindRating, Rating: v}
}

func optionAnswer(v string) model.Answer {
	return model.Answer{Kind: model.AnswerKindOption, Option: v}
}

func newTestEngine() *Engine {
	return NewEngine(nil, zerolog.Nop())
}

// ─── Section scoring ────────────────────────────────────────────────

func TestInterestScoresSumPerType(t *testing.T) {
	sec := model.Section{ID: model.SectionInterest, ResponseScale: likert5}
	for _, letter := range []string{"R", "R", "I", "I", "A"} {
		sec.Questions = append(sec.Questions, model.Question{
			ID:       fmt.Sprintf("i-q%d", len(sec.Questions)+1),
			Type:     model.QuestionTypeRating,
			Category: letter,
		})
	}
	sec.Finalize()

	answers := map[string]model.Answer{
		key(sec.ID, "i-q1"): ratingAnswer(5),
		key(sec.ID, "i-q2"): ratingAnswer(4),
		key(sec.ID, "i-q3"): ratingAnswer(3),
		// i-q4 unanswered
		key(sec.ID, "i-q5"): ratingAnswer(2),
	}

	scores, max := newTestEngine().interestScores(&sec, answers)
	assert.Equal(t, 9, scores["R"])
	assert.Equal(t, 3, scores["I"])
	assert.Equal(t, 2, scores["A"])
	assert.Equal(t, 10, max, "two items per type at scale top 5")
}

func TestPersonalityScoresReverseKeyedItems(t *testing.T) {
	sec := model.Section{ID: model.SectionPersonality, ResponseScale: likert5}
	sec.Questions = []model.Question{
		{ID: "p-q1", Type: model.QuestionTypeRating, Category: TraitOpenness},
		{ID: "p-q2", Type: model.QuestionTypeRating, Category: TraitOpenness, Subtag: "reversed"},
		{ID: "p-q3", Type: model.QuestionTypeRating, Category: TraitNeuroticism},
	}
	sec.Finalize()

	answers := map[string]model.Answer{
		key(sec.ID, "p-q1"): ratingAnswer(4),
		key(sec.ID, "p-q2"): ratingAnswer(2), // flips to 4
		key(sec.ID, "p-q3"): ratingAnswer(1),
	}

	traits := newTestEngine().personalityScores(&sec, answers)
	assert.InDelta(t, 75.0, traits[TraitOpenness], 0.001, "avg 4 on a 1-5 scale")
	assert.InDelta(t, 0.0, traits[TraitNeuroticism], 0.001)
	assert.NotContains(t, traits, TraitExtraversion, "untagged traits stay absent")
}

func TestAptitudeScoresTallyPerCategory(t *testing.T) {
	sec := model.Section{ID: model.SectionAptitude, IsAptitude: true}
	sec.Questions = []model.Question{
		{ID: "a-q1", Type: model.QuestionTypeSingleSelect, Category: "numerical", CorrectAnswer: "A"},
		{ID: "a-q2", Type: model.QuestionTypeSingleSelect, Category: "numerical", CorrectAnswer: "B"},
		{ID: "a-q3", Type: model.QuestionTypeSingleSelect, Category: "verbal", CorrectAnswer: "C"},
		{ID: "a-q4", Type: model.QuestionTypeSingleSelect, Category: "verbal", CorrectAnswer: "D"},
	}
	sec.Finalize()

	answers := map[string]model.Answer{
		key(sec.ID, "a-q1"): optionAnswer("A"),
		key(sec.ID, "a-q2"): optionAnswer("B"),
		key(sec.ID, "a-q3"): optionAnswer("C"),
		key(sec.ID, "a-q4"): optionAnswer("A"), // wrong
	}

	scores := newTestEngine().aptitudeScores(&sec, answers)
	assert.Equal(t, model.CategoryScore{Correct: 2, Total: 2, Percentage: 100}, scores["numerical"])
	assert.Equal(t, model.CategoryScore{Correct: 1, Total: 2, Percentage: 50}, scores["verbal"])
}

func TestKnowledgeScoreCountsScorableItemsOnly(t *testing.T) {
	sec := model.Section{ID: model.SectionKnowledge, IsTimed: true}
	sec.Questions = []model.Question{
		{ID: "k-q1", Type: model.QuestionTypeSingleSelect, CorrectAnswer: "A"},
		{ID: "k-q2", Type: model.QuestionTypeSingleSelect, CorrectAnswer: "B"},
		{ID: "k-q3", Type: model.QuestionTypeSingleSelect, CorrectAnswer: "C"},
		{ID: "k-q4", Type: model.QuestionTypeSingleSelect, CorrectAnswer: "D"},
		{ID: "k-q5", Type: model.QuestionTypeRating}, // unscorable, excluded
	}
	sec.Finalize()

	answers := map[string]model.Answer{
		key(sec.ID, "k-q1"): optionAnswer("A"),
		key(sec.ID, "k-q2"): optionAnswer("B"),
		key(sec.ID, "k-q3"): optionAnswer("C"),
		key(sec.ID, "k-q4"): optionAnswer("A"), // wrong
	}

	assert.InDelta(t, 75.0, newTestEngine().knowledgeScore(&sec, answers), 0.001)
}

// ─── Fit components ─────────────────────────────────────────────────

func TestInterestFitBoostsTopTypes(t *testing.T) {
	course := model.Course{ID: "informatics", RiasecTypes: []string{"R", "I"}}
	scores := map[string]int{"R": 18, "I": 15, "A": 4}

	fit := newTestEngine().InterestFit(course, scores, 20, []string{"R", "I", "A"})
	// (18/20*100*1.5 + 15/20*100*1.5) / 2
	assert.InDelta(t, 123.75, fit, 0.001, "raw component may exceed 100 before the final clamp")

	noBonus := newTestEngine().InterestFit(course, scores, 20, nil)
	assert.InDelta(t, 82.5, noBonus, 0.001)
}

func TestInterestFitWithoutTagsOrCeiling(t *testing.T) {
	e := newTestEngine()
	assert.Zero(t, e.InterestFit(model.Course{}, map[string]int{"R": 10}, 20, nil))
	assert.Zero(t, e.InterestFit(model.Course{RiasecTypes: []string{"R"}}, map[string]int{"R": 10}, 0, nil))
}

func TestAptitudeFitBoostsTopStrengths(t *testing.T) {
	course := model.Course{ID: "informatics", AptitudeStrengths: []string{"numerical", "verbal"}}
	scores := map[string]model.CategoryScore{
		"numerical": {Correct: 8, Total: 10, Percentage: 80},
		"verbal":    {Correct: 5, Total: 10, Percentage: 50},
	}

	fit := newTestEngine().AptitudeFit(course, scores, []string{"numerical"})
	// (80*1.3 + 50) / 2
	assert.InDelta(t, 77.0, fit, 0.001)
}

func TestPersonalityFitInvertsNeuroticism(t *testing.T) {
	traits := map[string]float64{
		TraitOpenness:          50,
		TraitConscientiousness: 50,
		TraitExtraversion:      50,
		TraitAgreeableness:     50,
		TraitNeuroticism:       20,
	}

	// Unknown family falls back to the even blend: four traits at 50
	// plus inverted neuroticism at 80, each weighted 0.20.
	fit := newTestEngine().PersonalityFit(model.Course{Family: "unknown"}, traits)
	assert.InDelta(t, 56.0, fit, 0.001)

	assert.Zero(t, newTestEngine().PersonalityFit(model.Course{}, nil))
}

func TestMatchLevelThresholds(t *testing.T) {
	assert.Equal(t, model.MatchExcellent, matchLevel(75))
	assert.Equal(t, model.MatchGood, matchLevel(60))
	assert.Equal(t, model.MatchGood, matchLevel(74.9))
	assert.Equal(t, model.MatchFair, matchLevel(45))
	assert.Equal(t, model.MatchLow, matchLevel(44.9))
}

func TestClampBounds(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-3))
	assert.Equal(t, 100.0, clamp(123.75))
	assert.Equal(t, 55.5, clamp(55.5))
}

// ─── Recommendations ────────────────────────────────────────────────

func TestRecommendOrdersAndCapsAtFive(t *testing.T) {
	res := &model.AssessmentResult{
		InterestScores: map[string]int{"R": 20, "I": 16, "A": 12, "S": 8, "E": 4, "C": 2},
		InterestMax:    20,
		TopInterests:   []string{"R", "I", "A"},
	}

	letters := []string{"R", "I", "A", "S", "E", "C", "C"}
	courses := make([]model.Course, 0, len(letters))
	for i, l := range letters {
		courses = append(courses, model.Course{
			ID:          fmt.Sprintf("course-%d", i+1),
			Name:        fmt.Sprintf("Course %d", i+1),
			RiasecTypes: []string{l},
		})
	}

	recs := newTestEngine().Recommend(res, courses)
	require.Len(t, recs, 5)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].MatchScore, recs[i].MatchScore)
	}
	assert.Equal(t, "course-1", recs[0].CourseID)
	assert.LessOrEqual(t, recs[0].MatchScore, 100.0)
}

func TestScoreEndToEnd(t *testing.T) {
	interest := model.Section{ID: model.SectionInterest, ResponseScale: likert5}
	for i, letter := range []string{"R", "I", "A", "S", "E", "C"} {
		interest.Questions = append(interest.Questions, model.Question{
			ID: fmt.Sprintf("i-q%d", i+1), Type: model.QuestionTypeRating, Category: letter,
		})
	}
	interest.Finalize()

	personality := model.Section{ID: model.SectionPersonality, ResponseScale: likert5}
	for i, trait := range []string{
		TraitOpenness, TraitConscientiousness, TraitExtraversion, TraitAgreeableness, TraitNeuroticism,
	} {
		personality.Questions = append(personality.Questions, model.Question{
			ID: fmt.Sprintf("p-q%d", i+1), Type: model.QuestionTypeRating, Category: trait,
		})
	}
	personality.Finalize()

	aptitude := model.Section{ID: model.SectionAptitude, IsAptitude: true, IsTimed: true}
	for i, cat := range []string{"numerical", "numerical", "verbal", "verbal", "logical"} {
		aptitude.Questions = append(aptitude.Questions, model.Question{
			ID: fmt.Sprintf("a-q%d", i+1), Type: model.QuestionTypeSingleSelect,
			Category: cat, CorrectAnswer: "A",
		})
	}
	aptitude.Finalize()

	knowledge := model.Section{ID: model.SectionKnowledge, IsTimed: true}
	for i := 1; i <= 4; i++ {
		knowledge.Questions = append(knowledge.Questions, model.Question{
			ID: fmt.Sprintf("k-q%d", i), Type: model.QuestionTypeSingleSelect, CorrectAnswer: "A",
		})
	}
	knowledge.Finalize()

	answers := map[string]model.Answer{
		key("interest", "i-q1"): ratingAnswer(5),
		key("interest", "i-q2"): ratingAnswer(4),
		key("interest", "i-q3"): ratingAnswer(3),
		key("interest", "i-q4"): ratingAnswer(2),
		key("interest", "i-q5"): ratingAnswer(1),

		key("personality", "p-q1"): ratingAnswer(5),
		key("personality", "p-q2"): ratingAnswer(4),
		key("personality", "p-q3"): ratingAnswer(3),
		key("personality", "p-q4"): ratingAnswer(2),
		key("personality", "p-q5"): ratingAnswer(1),

		key("aptitude", "a-q1"): optionAnswer("A"),
		key("aptitude", "a-q2"): optionAnswer("A"),
		key("aptitude", "a-q3"): optionAnswer("A"),
		key("aptitude", "a-q4"): optionAnswer("B"),
		key("aptitude", "a-q5"): optionAnswer("C"),

		key("knowledge", "k-q1"): optionAnswer("A"),
		key("knowledge", "k-q2"): optionAnswer("A"),
		key("knowledge", "k-q3"): optionAnswer("A"),
		key("knowledge", "k-q4"): optionAnswer("B"),
	}

	in := Input{
		GradeLevel:     "12",
		StreamID:       model.StreamScience,
		Sections:       []model.Section{interest, personality, aptitude, knowledge},
		Answers:        answers,
		SectionTimings: map[string]int{"knowledge": 240},
		Adaptive:       &model.AdaptiveSummary{SessionID: "engine-9", QuestionsAnswered: 12, CorrectAnswers: 8},
		Courses: []model.Course{{
			ID: "informatics", Name: "Teknik Informatika", Category: "Teknik",
			Family:            model.FamilyTechnical,
			RiasecTypes:       []string{"R", "I"},
			AptitudeStrengths: []string{"numerical", "logical"},
		}},
	}

	res, err := newTestEngine().Score(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "12", res.GradeLevel)
	assert.Equal(t, model.StreamScience, res.StreamID)
	assert.Equal(t, []string{"R", "I", "A"}, res.TopInterests)
	assert.Equal(t, 5, res.InterestMax, "one item per type at scale top 5")
	assert.InDelta(t, 75.0, res.KnowledgeScore, 0.001)
	assert.Equal(t, 240, res.SectionTimings["knowledge"])
	assert.Equal(t, "engine-9", res.AdaptiveSummary.SessionID)

	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	// interest (5/5*100*1.5 + 4/5*100*1.5)/2 = 135, weighted 0.40 = 54;
	// aptitude (100*1.3 + 0*1.3)/2 = 65, weighted 0.35 = 22.75;
	// personality technical blend = 80, weighted 0.25 = 20.
	assert.InDelta(t, 96.75, rec.MatchScore, 0.01)
	assert.Equal(t, model.MatchExcellent, rec.MatchLevel)
	assert.NotEmpty(t, rec.Reasons)
}

type failingCatalog struct{}

func (failingCatalog) CoursesFor(ctx context.Context, streamID string) ([]model.Course, error) {
	return nil, errors.New("catalog offline")
}

func TestScoreSurfacesCatalogFailure(t *testing.T) {
	e := NewEngine(failingCatalog{}, zerolog.Nop())
	_, err := e.Score(context.Background(), Input{StreamID: model.StreamScience})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course catalog")
}
