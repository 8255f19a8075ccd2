package model

import (
	"fmt"
	"strings"
)

// AnswerKind discriminates the answer value variant.
type AnswerKind string

const (
	AnswerKindOption    AnswerKind = "option"    // single-select / adaptive
	AnswerKindRating    AnswerKind = "rating"    // Likert rating
	AnswerKindSelection AnswerKind = "selection" // ordered multi-select
	AnswerKindPair      AnswerKind = "pair"      // situational-judgment best/worst
	AnswerKindText      AnswerKind = "text"      // free text
)

// Answer is the kind-tagged value a student gave for one question
// instance. Only the fields of the active kind are populated.
type Answer struct {
	Kind     AnswerKind `json:"kind"`
	Option   string     `json:"option,omitempty"`
	Rating   int        `json:"rating,omitempty"`
	Selected []string   `json:"selected,omitempty"`
	Best     string     `json:"best,omitempty"`
	Worst    string     `json:"worst,omitempty"`
	Text     string     `json:"text,omitempty"`
}

// ValidAnswerKind reports whether k is one of the known variants.
func ValidAnswerKind(k AnswerKind) bool {
	switch k {
	case AnswerKindOption, AnswerKindRating, AnswerKindSelection, AnswerKindPair, AnswerKindText:
		return true
	default:
		return false
	}
}

// IsEmpty reports whether the answer carries no value at all. Empty
// answers are never stored; writing one removes the entry instead.
func (a Answer) IsEmpty() bool {
	switch a.Kind {
	case AnswerKindOption:
		return a.Option == ""
	case AnswerKindRating:
		return a.Rating == 0
	case AnswerKindSelection:
		return len(a.Selected) == 0
	case AnswerKindPair:
		return a.Best == "" && a.Worst == ""
	case AnswerKindText:
		return strings.TrimSpace(a.Text) == ""
	default:
		return true
	}
}

// Answers reports whether the answer satisfies the answered-check
// policy for the given question. This is the gate for forward
// navigation, not a validity check on partial input.
func (a Answer) Answers(q Question) bool {
	switch q.Type {
	case QuestionTypeSituational:
		return a.Best != "" && a.Worst != "" && a.Best != a.Worst
	case QuestionTypeMultiSelect:
		return len(a.Selected) == q.MaxSelections
	case QuestionTypeText:
		return len(strings.TrimSpace(a.Text)) >= 10
	case QuestionTypeAdaptive, QuestionTypeSingleSelect:
		return a.Option != ""
	case QuestionTypeRating:
		return a.Rating > 0
	default:
		return false
	}
}

// AnswerKey identifies one answered question instance.
type AnswerKey struct {
	SectionID  string `json:"section_id"`
	QuestionID string `json:"question_id"`
}

// String renders the key in its persisted "section:question" form.
func (k AnswerKey) String() string {
	return k.SectionID + ":" + k.QuestionID
}

// ParseAnswerKey parses the persisted "section:question" form.
func ParseAnswerKey(s string) (AnswerKey, error) {
	sec, q, ok := strings.Cut(s, ":")
	if !ok || sec == "" || q == "" {
		return AnswerKey{}, fmt.Errorf("malformed answer key %q", s)
	}
	return AnswerKey{SectionID: sec, QuestionID: q}, nil
}
