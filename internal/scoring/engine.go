// Package scoring computes per-section scores and weighted course
// recommendations from a finished attempt's answers.
package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/model"
)

// Component weights of the final course match score.
const (
	weightInterest    = 0.40
	weightAptitude    = 0.35
	weightPersonality = 0.25

	// Bonus multipliers applied when a course tag lands in the
	// respondent's top interest types / aptitude strengths.
	topInterestBonus = 1.5
	topAptitudeBonus = 1.3

	topInterestCount = 3
	topAptitudeCount = 3

	maxRecommendations = 3 // reasons per course
	topCourses         = 5
)

// Input is everything the engine needs, independent of transport.
type Input struct {
	GradeLevel     string
	StreamID       string
	Sections       []model.Section
	Answers        map[string]model.Answer
	SectionTimings map[string]int
	Adaptive       *model.AdaptiveSummary
	Courses        []model.Course
}

// CourseCatalog supplies candidate courses for a stream.
type CourseCatalog interface {
	CoursesFor(ctx context.Context, streamID string) ([]model.Course, error)
}

// Engine is the scoring and recommendation engine.
type Engine struct {
	catalog CourseCatalog
	log     zerolog.Logger
}

// NewEngine creates an Engine backed by the given course catalog.
func NewEngine(catalog CourseCatalog, log zerolog.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		log:     log.With().Str("component", "scoring_engine").Logger(),
	}
}

// Score computes the full assessment result. The input courses take
// precedence over the catalog so tests and callers can inject a fixed
// candidate set.
func (e *Engine) Score(ctx context.Context, in Input) (*model.AssessmentResult, error) {
	courses := in.Courses
	if courses == nil && e.catalog != nil {
		var err error
		courses, err = e.catalog.CoursesFor(ctx, in.StreamID)
		if err != nil {
			return nil, fmt.Errorf("load course catalog: %w", err)
		}
	}

	res := &model.AssessmentResult{
		ID:             uuid.New(),
		GradeLevel:     in.GradeLevel,
		StreamID:       in.StreamID,
		SectionTimings: in.SectionTimings,
		CreatedAt:      time.Now(),
	}

	for i := range in.Sections {
		sec := &in.Sections[i]
		switch {
		case sec.ID == model.SectionInterest:
			res.InterestScores, res.InterestMax = e.interestScores(sec, in.Answers)
			res.TopInterests = topKeysInt(res.InterestScores, topInterestCount)
		case sec.ID == model.SectionPersonality:
			res.PersonalityScores = e.personalityScores(sec, in.Answers)
		case sec.IsAptitude && !sec.IsAdaptive:
			res.AptitudeScores = e.aptitudeScores(sec, in.Answers)
			res.TopAptitudes = topAptitudeKeys(res.AptitudeScores, topAptitudeCount)
		case sec.ID == model.SectionKnowledge:
			res.KnowledgeScore = e.knowledgeScore(sec, in.Answers)
		}
	}
	res.AdaptiveSummary = in.Adaptive

	res.Recommendations = e.Recommend(res, courses)
	return res, nil
}

// interestScores sums ratings per RIASEC letter. The per-type ceiling
// is items-per-type times the top scale value.
func (e *Engine) interestScores(sec *model.Section, answers map[string]model.Answer) (map[string]int, int) {
	scores := make(map[string]int)
	counts := make(map[string]int)
	for _, q := range sec.Questions {
		if q.Category == "" {
			continue
		}
		counts[q.Category]++
		if a, ok := answers[model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}.String()]; ok {
			scores[q.Category] += a.Rating
		}
	}

	maxScale := len(sec.ResponseScale)
	if maxScale == 0 {
		maxScale = 5
	}
	maxPerType := 0
	for _, n := range counts {
		if n*maxScale > maxPerType {
			maxPerType = n * maxScale
		}
	}
	// Make sure every counted type has an entry, answered or not.
	for t := range counts {
		if _, ok := scores[t]; !ok {
			scores[t] = 0
		}
	}
	return scores, maxPerType
}

// personalityScores averages ratings per Big Five trait, normalized
// to 0-100.
func (e *Engine) personalityScores(sec *model.Section, answers map[string]model.Answer) map[string]float64 {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, q := range sec.Questions {
		if q.Category == "" {
			continue
		}
		a, ok := answers[model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}.String()]
		if !ok || a.Rating == 0 {
			continue
		}
		rating := a.Rating
		// Reverse-keyed items are tagged with the "reversed" subtag.
		if q.Subtag == "reversed" {
			rating = len(sec.ResponseScale) + 1 - rating
		}
		sums[q.Category] += rating
		counts[q.Category]++
	}

	maxScale := len(sec.ResponseScale)
	if maxScale == 0 {
		maxScale = 5
	}

	out := make(map[string]float64, len(sums))
	for trait, sum := range sums {
		avg := float64(sum) / float64(counts[trait])
		out[trait] = clamp((avg - 1) / float64(maxScale-1) * 100)
	}
	return out
}

// aptitudeScores tallies correct/total per aptitude category.
func (e *Engine) aptitudeScores(sec *model.Section, answers map[string]model.Answer) map[string]model.CategoryScore {
	out := make(map[string]model.CategoryScore)
	for _, q := range sec.Questions {
		cat := q.Category
		if cat == "" {
			cat = "general"
		}
		score := out[cat]
		score.Total++
		if a, ok := answers[model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}.String()]; ok && a.Option == q.CorrectAnswer {
			score.Correct++
		}
		out[cat] = score
	}
	for cat, score := range out {
		if score.Total > 0 {
			score.Percentage = float64(score.Correct) / float64(score.Total) * 100
		}
		out[cat] = score
	}
	return out
}

func (e *Engine) knowledgeScore(sec *model.Section, answers map[string]model.Answer) float64 {
	correct, total := 0, 0
	for _, q := range sec.Questions {
		if q.CorrectAnswer == "" {
			continue
		}
		total++
		if a, ok := answers[model.AnswerKey{SectionID: sec.ID, QuestionID: q.ID}.String()]; ok && a.Option == q.CorrectAnswer {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Recommend scores every candidate course and returns the top five.
func (e *Engine) Recommend(res *model.AssessmentResult, courses []model.Course) []model.CourseRecommendation {
	recs := make([]model.CourseRecommendation, 0, len(courses))
	for _, course := range courses {
		interest := e.InterestFit(course, res.InterestScores, res.InterestMax, res.TopInterests)
		aptitude := e.AptitudeFit(course, res.AptitudeScores, res.TopAptitudes)
		personality := e.PersonalityFit(course, res.PersonalityScores)

		score := clamp(interest*weightInterest + aptitude*weightAptitude + personality*weightPersonality)

		recs = append(recs, model.CourseRecommendation{
			CourseID:   course.ID,
			CourseName: course.Name,
			Category:   course.Category,
			MatchScore: score,
			MatchLevel: matchLevel(score),
			Reasons:    e.reasons(course, interest, aptitude, personality),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MatchScore > recs[j].MatchScore
	})
	if len(recs) > topCourses {
		recs = recs[:topCourses]
	}
	return recs
}

// InterestFit averages the normalized type scores over the course's
// tagged RIASEC set, boosting types in the respondent's top three.
// The raw component can exceed 100; the overall score is clamped
// downstream.
func (e *Engine) InterestFit(course model.Course, scores map[string]int, maxScore int, top []string) float64 {
	if len(course.RiasecTypes) == 0 || maxScore == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range course.RiasecTypes {
		v := float64(scores[t]) / float64(maxScore) * 100
		if contains(top, t) {
			v *= topInterestBonus
		}
		sum += v
	}
	return sum / float64(len(course.RiasecTypes))
}

// AptitudeFit averages the percentage scores over the course's tagged
// aptitude categories, boosting the respondent's top strengths.
func (e *Engine) AptitudeFit(course model.Course, scores map[string]model.CategoryScore, top []string) float64 {
	if len(course.AptitudeStrengths) == 0 {
		return 0
	}
	sum := 0.0
	for _, cat := range course.AptitudeStrengths {
		v := scores[cat].Percentage
		if contains(top, cat) {
			v *= topAptitudeBonus
		}
		sum += v
	}
	return sum / float64(len(course.AptitudeStrengths))
}

func (e *Engine) reasons(course model.Course, interest, aptitude, personality float64) []string {
	var out []string
	if interest >= 75 {
		out = append(out, "Minat kamu sangat sejalan dengan bidang "+course.Name)
	}
	if aptitude >= 70 && len(out) < maxRecommendations {
		out = append(out, "Hasil tes bakat kamu kuat di kategori yang dibutuhkan jurusan ini ("+strings.Join(course.AptitudeStrengths, ", ")+")")
	}
	if personality >= 70 && len(out) < maxRecommendations {
		out = append(out, "Profil kepribadian kamu cocok dengan gaya belajar jurusan ini")
	}
	return out
}

func matchLevel(score float64) model.MatchLevel {
	switch {
	case score >= 75:
		return model.MatchExcellent
	case score >= 60:
		return model.MatchGood
	case score >= 45:
		return model.MatchFair
	default:
		return model.MatchLow
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func topKeysInt(m map[string]int, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func topAptitudeKeys(m map[string]model.CategoryScore, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := m[keys[i]].Percentage, m[keys[j]].Percentage
		if pi != pj {
			return pi > pj
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
