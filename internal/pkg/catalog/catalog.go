// Package catalog holds the static lookup tables shared by the feedback and
// lesson-intro routes: category slugs, module titles, coaching tones and
// level expectation bands. The tables are immutable after init.
package catalog

import "fmt"

// Category describes one lesson category
type Category struct {
	Slug        string
	DisplayName string
	Modules     []string // module titles indexed by module number - 1
}

// Tone maps a coaching-tone label to a synthesis voice and a style phrase
// injected into generation prompts
type Tone struct {
	Label string
	Voice string
	Style string
}

var categories = map[string]Category{
	"public-speaking": {Slug: "public-speaking", DisplayName: "Public Speaking",
		Modules: []string{"First Words", "Structured Speech", "Persuasion", "Stagecraft"}},
	"job-interviews": {Slug: "job-interviews", DisplayName: "Job Interviews",
		Modules: []string{"Introductions", "Behavioral Questions", "Technical Deep Dives", "Negotiation"}},
	"storytelling": {Slug: "storytelling", DisplayName: "Storytelling",
		Modules: []string{"Anecdotes", "Narrative Arcs", "Emotional Color", "Improvisation"}},
	"small-talk": {Slug: "small-talk", DisplayName: "Small Talk",
		Modules: []string{"Openers", "Keeping It Going", "Graceful Exits"}},
}

var tones = map[string]Tone{
	"friendly":     {Label: "friendly", Voice: "alloy", Style: "warm, encouraging and informal"},
	"professional": {Label: "professional", Voice: "onyx", Style: "precise, composed and businesslike"},
	"energetic":    {Label: "energetic", Voice: "nova", Style: "upbeat, lively and motivating"},
	"calm":         {Label: "calm", Voice: "shimmer", Style: "slow, reassuring and patient"},
}

const defaultTone = "friendly"

// level thresholds for expectation bands
const (
	intermediateFrom = 4
	advancedFrom     = 8
)

var bandExpectations = map[string]string{
	"beginner":     "Expect short, simple sentences. Reward clarity and completing the task over rich vocabulary.",
	"intermediate": "Expect connected speech with some structure. Reward varied vocabulary and coherent ordering of ideas.",
	"advanced":     "Expect fluent, well-structured delivery. Reward nuance, precise word choice and persuasive structure.",
}

// ResolveCategory returns category data by slug
func ResolveCategory(slug string) (Category, error) {
	c, ok := categories[slug]
	if !ok {
		return Category{}, fmt.Errorf("unknown category '%s'", slug)
	}
	return c, nil
}

// ModuleTitle returns the display title of a module within a category,
// empty string if unknown
func ModuleTitle(slug string, module int) string {
	c, ok := categories[slug]
	if !ok || module < 1 || module > len(c.Modules) {
		return ""
	}
	return c.Modules[module-1]
}

// ResolveTone returns tone data by label, falling back to the default tone
// for unknown labels
func ResolveTone(label string) Tone {
	if t, ok := tones[label]; ok {
		return t
	}
	return tones[defaultTone]
}

// LevelBand returns the expectation band name for a lesson level
func LevelBand(level int) string {
	switch {
	case level >= advancedFrom:
		return "advanced"
	case level >= intermediateFrom:
		return "intermediate"
	}
	return "beginner"
}

// BandExpectation returns the descriptive expectation text for a band.
// It is prompt context only, nothing is gated on it
func BandExpectation(band string) string {
	return bandExpectations[band]
}
