package model

// CourseFamily selects the personality-fit trait blend used when
// matching a course against Big Five scores.
type CourseFamily string

const (
	FamilyTechnical  CourseFamily = "technical"
	FamilyCreative   CourseFamily = "creative"
	FamilyHealthcare CourseFamily = "healthcare"
	FamilyBusiness   CourseFamily = "business"
	FamilySocial     CourseFamily = "social"
	FamilyScience    CourseFamily = "science"
)

// Course is one candidate study program from the recommendation
// catalog.
type Course struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Family      CourseFamily `json:"family"`
	Description string       `json:"description,omitempty"`
	// RiasecTypes tags the interest types this course fits
	// (letters R, I, A, S, E, C).
	RiasecTypes []string `json:"riasec_types"`
	// AptitudeStrengths tags the aptitude categories this course leans on.
	AptitudeStrengths []string `json:"aptitude_strengths"`
	// Streams restricts the course to certain streams; empty means all.
	Streams []string `json:"streams,omitempty"`
}
