package scoring

import (
	"encoding/json"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
)

// Result is the outcome of parsing the model's scoring response. Fallback
// marks that the response could not be parsed and the fixed feedback object
// was substituted - the pipeline never aborts on malformed model output
type Result struct {
	Feedback Feedback
	Fallback bool
}

// Parse decodes the model's JSON response into a feedback object. Markdown
// code fences around the payload are tolerated. On any decode failure the
// fixed fallback feedback is returned with Fallback set
func Parse(raw string) Result {
	var f Feedback
	if err := json.Unmarshal([]byte(stripFences(raw)), &f); err != nil {
		goapp.Log.Warn().Err(err).Msg("can't parse scoring response - using fallback feedback")
		f = fallbackFeedback()
		Finalize(&f)
		return Result{Feedback: f, Fallback: true}
	}
	Finalize(&f)
	return Result{Feedback: f}
}

// stripFences drops a surrounding markdown code block if present
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fallbackFeedback is the fixed payload substituted when the model's
// response is not valid JSON
func fallbackFeedback() Feedback {
	return Feedback{
		TaskCompletion: 70,
		Delivery:       70,
		Linguistic: LinguisticQuality{
			Grammar:           70,
			SentenceFormation: 70,
			Vocabulary:        70,
		},
		Strengths:    []string{"You completed the practice attempt"},
		Improvements: []string{"Try the lesson again for a detailed evaluation"},
		Narrative:    "We could not generate a detailed evaluation for this attempt. The scores shown are neutral placeholders - your recording was saved and you can practice again at any time.",
	}
}
