// Package intro produces the short spoken lesson introduction. Nothing is
// persisted, the intro is regenerated on every request.
package intro

import (
	"context"
	"fmt"

	"github.com/locuta-ai/locuta/internal/pkg/catalog"
	"github.com/locuta-ai/locuta/internal/pkg/persistence"
	"github.com/locuta-ai/locuta/internal/pkg/prompt"
)

const introSystem = "You are a speech coach recording a spoken lesson introduction. " +
	"Keep it natural to read aloud, no markdown, no stage directions."

// Completer invokes a chat completion
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Synthesizer converts text to audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Generator creates lesson intros
type Generator struct {
	chat  Completer
	synth Synthesizer
}

// NewGenerator creates a Generator instance
func NewGenerator(chat Completer, synth Synthesizer) (*Generator, error) {
	if chat == nil {
		return nil, fmt.Errorf("no completer")
	}
	if synth == nil {
		return nil, fmt.Errorf("no synthesizer")
	}
	return &Generator{chat: chat, synth: synth}, nil
}

// Generate produces intro text and its synthesized audio for a lesson.
// There is no fallback - any upstream failure propagates to the caller
func (g *Generator) Generate(ctx context.Context, lesson *persistence.Lesson, tone catalog.Tone, firstName string) (string, []byte, error) {
	text, err := g.chat.Complete(ctx, introSystem, prompt.Intro(lesson, tone, firstName))
	if err != nil {
		return "", nil, fmt.Errorf("can't generate intro text: %w", err)
	}
	audio, err := g.synth.Synthesize(ctx, text, tone.Voice)
	if err != nil {
		return "", nil, fmt.Errorf("can't synthesize intro: %w", err)
	}
	return text, audio, nil
}
