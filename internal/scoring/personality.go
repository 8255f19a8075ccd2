package scoring

import "github.com/pathwise/compass-backend/internal/model"

// Big Five trait keys as tagged on personality questions.
const (
	TraitOpenness          = "openness"
	TraitConscientiousness = "conscientiousness"
	TraitExtraversion      = "extraversion"
	TraitAgreeableness     = "agreeableness"
	TraitNeuroticism       = "neuroticism"
)

// familyTraitWeights are the per-course-family linear blends over the
// five normalized trait scores. Neuroticism is inverted (emotional
// stability) before blending, so every weight rewards a higher value.
var familyTraitWeights = map[model.CourseFamily]map[string]float64{
	model.FamilyTechnical: {
		TraitOpenness:          0.30,
		TraitConscientiousness: 0.30,
		TraitExtraversion:      0.10,
		TraitAgreeableness:     0.10,
		TraitNeuroticism:       0.20,
	},
	model.FamilyCreative: {
		TraitOpenness:          0.45,
		TraitConscientiousness: 0.10,
		TraitExtraversion:      0.20,
		TraitAgreeableness:     0.15,
		TraitNeuroticism:       0.10,
	},
	model.FamilyHealthcare: {
		TraitOpenness:          0.10,
		TraitConscientiousness: 0.30,
		TraitExtraversion:      0.10,
		TraitAgreeableness:     0.35,
		TraitNeuroticism:       0.15,
	},
	model.FamilyBusiness: {
		TraitOpenness:          0.15,
		TraitConscientiousness: 0.25,
		TraitExtraversion:      0.30,
		TraitAgreeableness:     0.15,
		TraitNeuroticism:       0.15,
	},
	model.FamilySocial: {
		TraitOpenness:          0.15,
		TraitConscientiousness: 0.15,
		TraitExtraversion:      0.25,
		TraitAgreeableness:     0.35,
		TraitNeuroticism:       0.10,
	},
	model.FamilyScience: {
		TraitOpenness:          0.35,
		TraitConscientiousness: 0.30,
		TraitExtraversion:      0.05,
		TraitAgreeableness:     0.10,
		TraitNeuroticism:       0.20,
	},
}

// defaultTraitWeights is the even blend for unknown families.
var defaultTraitWeights = map[string]float64{
	TraitOpenness:          0.20,
	TraitConscientiousness: 0.20,
	TraitExtraversion:      0.20,
	TraitAgreeableness:     0.20,
	TraitNeuroticism:       0.20,
}

// PersonalityFit blends the normalized trait scores with the course
// family's weights.
func (e *Engine) PersonalityFit(course model.Course, traits map[string]float64) float64 {
	if len(traits) == 0 {
		return 0
	}
	weights, ok := familyTraitWeights[course.Family]
	if !ok {
		weights = defaultTraitWeights
	}

	total := 0.0
	for trait, w := range weights {
		v := traits[trait]
		if trait == TraitNeuroticism {
			v = 100 - v
		}
		total += v * w
	}
	return clamp(total)
}
