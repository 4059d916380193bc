// Package prompt builds the chat prompts for scoring, example generation and
// lesson intros.
package prompt

import (
	"fmt"
	"strings"

	"github.com/locuta-ai/locuta/internal/pkg/catalog"
	"github.com/locuta-ai/locuta/internal/pkg/persistence"
)

// ScoringSystem is the system prompt for the feedback scoring call
const ScoringSystem = `You are a speech coach evaluating a spoken practice attempt.
Respond with JSON only, no prose, using exactly this shape:
{"task_completion": 0-100, "delivery": 0-100,
 "linguistic_quality": {"grammar": 0-100, "sentence_formation": 0-100, "vocabulary": 0-100},
 "strengths": ["..."], "improvements": ["..."], "feedback": "..."}`

// Scoring builds the user prompt for the scoring call. The level expectation
// is descriptive context only
func Scoring(lesson *persistence.Lesson, transcript string) string {
	band := catalog.LevelBand(lesson.Level)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Practice prompt: %s\n", lesson.PracticePrompt)
	if len(lesson.FocusAreas) > 0 {
		fmt.Fprintf(&sb, "Focus areas: %s\n", strings.Join(lesson.FocusAreas, ", "))
	}
	fmt.Fprintf(&sb, "Learner level: %s. %s\n", band, catalog.BandExpectation(band))
	fmt.Fprintf(&sb, "Expected duration: about %d seconds.\n", lesson.ExpectedDuration)
	fmt.Fprintf(&sb, "\nTranscript of the learner's response:\n%s\n", transcript)
	return sb.String()
}

// Example builds the prompt for the demonstration response call
func Example(lesson *persistence.Lesson, tone catalog.Tone) string {
	return fmt.Sprintf("Give a model spoken response to this practice prompt, in a %s voice, "+
		"about %d seconds when spoken aloud. Respond with the spoken text only.\n\nPrompt: %s",
		tone.Style, lesson.ExpectedDuration, lesson.PracticePrompt)
}

// Intro builds the prompt for the spoken lesson introduction
func Intro(lesson *persistence.Lesson, tone catalog.Tone, firstName string) string {
	greeting := "the learner"
	if firstName != "" {
		greeting = firstName
	}
	return fmt.Sprintf("You are a speech coach with a %s manner. Write a short spoken "+
		"introduction (3-4 sentences) for %s to the lesson '%s'. Explain what to practice "+
		"and end by inviting them to record their response to: %s\n"+
		"Respond with the spoken text only.",
		tone.Style, greeting, lesson.Title, lesson.PracticePrompt)
}
