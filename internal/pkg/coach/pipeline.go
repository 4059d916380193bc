package coach

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/locuta-ai/locuta/internal/pkg/catalog"
	"github.com/locuta-ai/locuta/internal/pkg/events"
	"github.com/locuta-ai/locuta/internal/pkg/persistence"
	"github.com/locuta-ai/locuta/internal/pkg/prompt"
	"github.com/locuta-ai/locuta/internal/pkg/scoring"
	"github.com/locuta-ai/locuta/internal/pkg/status"
	"github.com/locuta-ai/locuta/internal/pkg/utils"
)

const exampleSystem = "You are a speech coach demonstrating a strong answer to a practice prompt. " +
	"Respond with the spoken answer only, no preamble, no markdown."

type attempt struct {
	userID    string
	lesson    *persistence.Lesson
	tone      catalog.Tone
	audioName string
	audio     io.Reader
}

// runPipeline drives one practice attempt: transcription, then scoring and
// example generation in parallel, then the two DB writes. Returns the new
// session ID
func runPipeline(ctx context.Context, data *Data, in *attempt) (string, error) {
	transcript, err := data.Transcriber.Transcribe(ctx, in.audioName, in.audio)
	if err != nil {
		return "", fmt.Errorf("can't transcribe: %w", err)
	}

	var feedback scoring.Feedback
	var exampleText string
	var exampleAudio []byte

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := data.Chat.Complete(gCtx, prompt.ScoringSystem, prompt.Scoring(in.lesson, transcript))
		if err != nil {
			return fmt.Errorf("can't score: %w", err)
		}
		res := scoring.Parse(raw)
		feedback = res.Feedback
		if res.Fallback {
			data.Events.Emit(events.Event{Name: "feedback_fallback",
				Fields: map[string]interface{}{"lesson": in.lesson.ID}})
		}
		return nil
	})
	g.Go(func() error {
		text, err := data.Chat.Complete(gCtx, exampleSystem, prompt.Example(in.lesson, in.tone))
		if err != nil {
			return fmt.Errorf("can't generate example: %w", err)
		}
		audio, err := data.Synth.Synthesize(gCtx, text, in.tone.Voice)
		if err != nil {
			return fmt.Errorf("can't synthesize example: %w", err)
		}
		exampleText, exampleAudio = text, audio
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	fbJSON, err := json.Marshal(feedback)
	if err != nil {
		return "", fmt.Errorf("can't marshal feedback: %w", err)
	}
	now := time.Now()
	session := &persistence.Session{ID: uuid.NewString(), UserID: in.userID,
		Category: in.lesson.Category, Module: in.lesson.Module, Level: in.lesson.Level,
		Tone: in.tone.Label, Transcript: transcript,
		ExampleText:  utils.ToSQLStr(exampleText),
		ExampleAudio: utils.ToSQLStr(base64.StdEncoding.EncodeToString(exampleAudio)),
		Feedback:     fbJSON, OverallScore: feedback.OverallScore,
		Status: status.Completed.String(), Created: now}
	progress := &persistence.UserProgress{UserID: in.userID,
		Category: in.lesson.Category, Module: in.lesson.Module, Level: in.lesson.Level,
		Completed: feedback.PassLevel, BestScore: feedback.OverallScore,
		Attempts: 1, LastPracticed: now}

	// session insert is fatal, progress upsert is best effort
	var wg sync.WaitGroup
	var sErr, pErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		sErr = data.DB.InsertSession(ctx, session)
	}()
	go func() {
		defer wg.Done()
		pErr = data.DB.UpsertProgress(ctx, progress)
	}()
	wg.Wait()
	if sErr != nil {
		return "", fmt.Errorf("can't save session: %w", sErr)
	}
	if pErr != nil {
		goapp.Log.Error().Err(pErr).Str("user", in.userID).Msg("can't update progress")
	}

	data.Events.Emit(events.Event{Name: "session_scored",
		Fields: map[string]interface{}{"session": session.ID, "lesson": in.lesson.ID,
			"score": feedback.OverallScore, "pass": feedback.PassLevel}})
	return session.ID, nil
}
