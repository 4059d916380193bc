// Package scoring turns the model's raw feedback payload into the final
// persisted feedback object: parsing with a fixed fallback, composite score
// weighting and the pass gate.
package scoring

// fixed weighting constants for the overall score
const (
	WeightTaskCompletion = 0.4
	WeightDelivery       = 0.3
	WeightLinguistic     = 0.3

	WeightGrammar           = 0.4
	WeightSentenceFormation = 0.3
	WeightVocabulary        = 0.3

	// PassThreshold is the minimal overall score for pass_level
	PassThreshold = 75.0
)

// LinguisticQuality groups the language sub-scores
type LinguisticQuality struct {
	Grammar           float64 `json:"grammar"`
	SentenceFormation float64 `json:"sentence_formation"`
	Vocabulary        float64 `json:"vocabulary"`
	Score             float64 `json:"score"`
}

// Feedback is the structured scoring payload embedded into a session row
type Feedback struct {
	TaskCompletion float64           `json:"task_completion"`
	Delivery       float64           `json:"delivery"`
	Linguistic     LinguisticQuality `json:"linguistic_quality"`
	Strengths      []string          `json:"strengths"`
	Improvements   []string          `json:"improvements"`
	Narrative      string            `json:"feedback"`
	OverallScore   float64           `json:"overall_score"`
	PassLevel      bool              `json:"pass_level"`
}

// Finalize recomputes the composite scores from the sub-scores with the fixed
// weights, clamps everything to [0, 100] and derives pass_level. Model
// provided composites are ignored so the stored value always matches the
// documented weighting
func Finalize(f *Feedback) {
	f.TaskCompletion = clamp(f.TaskCompletion)
	f.Delivery = clamp(f.Delivery)
	f.Linguistic.Grammar = clamp(f.Linguistic.Grammar)
	f.Linguistic.SentenceFormation = clamp(f.Linguistic.SentenceFormation)
	f.Linguistic.Vocabulary = clamp(f.Linguistic.Vocabulary)

	f.Linguistic.Score = clamp(f.Linguistic.Grammar*WeightGrammar +
		f.Linguistic.SentenceFormation*WeightSentenceFormation +
		f.Linguistic.Vocabulary*WeightVocabulary)
	f.OverallScore = clamp(f.TaskCompletion*WeightTaskCompletion +
		f.Delivery*WeightDelivery +
		f.Linguistic.Score*WeightLinguistic)
	f.PassLevel = f.OverallScore >= PassThreshold
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
