package model

// Grade levels supported by the assessment. Grade 9 students have not
// chosen a stream yet and take the general assessment directly; grade
// 12 students pick their category first, which doubles as the stream.
const (
	GradeLevel9  = "9"
	GradeLevel12 = "12"
)

// Stream/category identifiers.
const (
	StreamGeneral    = "general"
	StreamScience    = "science"
	StreamSocial     = "social"
	StreamLanguage   = "language"
	StreamVocational = "vocational"
)

// ValidGradeLevel reports whether the client-supplied level is known.
func ValidGradeLevel(level string) bool {
	return level == GradeLevel9 || level == GradeLevel12
}

// GradeRequiresCategory reports whether the grade level goes through
// the category-selection step before the first section.
func GradeRequiresCategory(level string) bool {
	return level == GradeLevel12
}

// ValidStream reports whether the category/stream id is known.
func ValidStream(id string) bool {
	switch id {
	case StreamScience, StreamSocial, StreamLanguage, StreamVocational:
		return true
	}
	return false
}
