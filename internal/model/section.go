package model

// Well-known section ids. The section list itself is assembled per
// grade/stream from the question banks; these ids are stable across
// assessments and are the keys of the section-timings map.
const (
	SectionInterest    = "interest"
	SectionPersonality = "personality"
	SectionAptitude    = "aptitude"
	SectionSituational = "situational"
	SectionKnowledge   = "knowledge"
	SectionAdaptive    = "adaptive_aptitude"
)

// Section is one stage of the assessment. Immutable once the session
// starts. Adaptive sections carry no pre-materialized question list;
// their questions are fetched live from the external engine.
type Section struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions,omitempty"`
	// ResponseScale is the fixed Likert option set shared by every
	// question of a rating section, e.g. "Sangat tidak setuju".."Sangat setuju".
	ResponseScale []string `json:"response_scale,omitempty"`

	IsTimed    bool `json:"is_timed"`
	IsAptitude bool `json:"is_aptitude"`
	IsAdaptive bool `json:"is_adaptive"`

	// TimeLimit is the shared-phase countdown in seconds (timed
	// sections and the shared phase of the aptitude section).
	TimeLimit int `json:"time_limit,omitempty"`
	// IndividualTimeLimit is the per-question countdown in seconds for
	// the first IndividualCount aptitude questions.
	IndividualTimeLimit int `json:"individual_time_limit,omitempty"`
	IndividualCount     int `json:"individual_count,omitempty"`

	// QuestionCount is computed once at construction instead of being
	// derived from the question list on every read.
	QuestionCount int `json:"question_count"`
}

// Finalize stores derived values. Call once after the question list
// is assembled and before the section is attached to a session.
func (s *Section) Finalize() {
	s.QuestionCount = len(s.Questions)
	if s.IndividualCount > s.QuestionCount && !s.IsAdaptive {
		s.IndividualCount = s.QuestionCount
	}
}
