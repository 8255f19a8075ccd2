package session

import (
	"github.com/pathwise/compass-backend/internal/model"
)

// AnswerStore holds the answer map for one live session. An entry
// exists iff the student has given at least a partial answer for that
// exact question instance; writing a fully-cleared value removes the
// key, so there are never empty placeholder entries.
type AnswerStore struct {
	entries map[model.AnswerKey]model.Answer
}

// NewAnswerStore creates an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{entries: make(map[model.AnswerKey]model.Answer)}
}

// Set writes, overwrites or removes the entry for key. Pair answers
// are sanitized first: an option already picked as one half of a
// situational-judgment pair cannot also be the other half. When the
// client sends the same option for both, the most recent intent
// (best) wins and worst is cleared.
func (s *AnswerStore) Set(key model.AnswerKey, a model.Answer) {
	a = sanitize(a)
	if a.IsEmpty() {
		delete(s.entries, key)
		return
	}
	s.entries[key] = a
}

// Get returns the stored answer for key.
func (s *AnswerStore) Get(key model.AnswerKey) (model.Answer, bool) {
	a, ok := s.entries[key]
	return a, ok
}

// Len returns the number of stored entries.
func (s *AnswerStore) Len() int { return len(s.entries) }

// CountSection returns how many questions of the given section have
// an entry.
func (s *AnswerStore) CountSection(sectionID string) int {
	n := 0
	for k := range s.entries {
		if k.SectionID == sectionID {
			n++
		}
	}
	return n
}

// Export returns a string-keyed copy suitable for persistence.
func (s *AnswerStore) Export() map[string]model.Answer {
	out := make(map[string]model.Answer, len(s.entries))
	for k, v := range s.entries {
		out[k.String()] = v
	}
	return out
}

// Restore loads persisted entries, skipping malformed keys and empty
// values. Used when reconstructing a session from an attempt.
func (s *AnswerStore) Restore(persisted map[string]model.Answer) {
	for raw, a := range persisted {
		key, err := model.ParseAnswerKey(raw)
		if err != nil {
			continue
		}
		s.Set(key, a)
	}
}

func sanitize(a model.Answer) model.Answer {
	if a.Kind == model.AnswerKindPair && a.Best != "" && a.Best == a.Worst {
		a.Worst = ""
	}
	return a
}
