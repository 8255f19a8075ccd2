package model

// QuestionType is the tagged variant discriminator for questions.
// Validation and answer shape are an exhaustive switch on this tag.
type QuestionType string

const (
	QuestionTypeSingleSelect QuestionType = "single_select"
	QuestionTypeMultiSelect  QuestionType = "multi_select"
	QuestionTypeRating       QuestionType = "rating"
	QuestionTypeText         QuestionType = "text"
	QuestionTypeSituational  QuestionType = "situational_judgment"
	QuestionTypeAdaptive     QuestionType = "adaptive"
)

// Question represents a single assessment item.
// CorrectAnswer is only populated for scorable types (aptitude,
// knowledge, adaptive) and is never sent to the client.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"-"`
	MaxSelections int          `json:"max_selections,omitempty"`
	// Category tags the item for scoring aggregation: a RIASEC letter
	// for interest items, a Big Five trait for personality items, an
	// aptitude category (numerical, verbal, spatial, logical) for
	// aptitude items.
	Category string `json:"category,omitempty"`
	Subtag   string `json:"subtag,omitempty"`
	// Difficulty is set on adaptively served questions only.
	Difficulty int `json:"difficulty,omitempty"`
}

// ForStudent returns a copy safe to send to the client (no answer key).
func (q Question) ForStudent() Question {
	q.CorrectAnswer = ""
	return q
}
