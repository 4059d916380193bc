package persistence

import (
	"database/sql"
	"time"
)

type (

	//Lesson is a static content row, read-only to the pipeline
	Lesson struct {
		ID               int64
		Category         string
		Module           int
		Level            int
		Title            string
		PracticePrompt   string
		Example          string
		ExpectedDuration int // seconds
		FocusAreas       []string
	}

	//Session is one practice attempt, created once, never mutated
	Session struct {
		ID           string
		UserID       string
		Category     string
		Module       int
		Level        int
		Tone         string
		Transcript   string
		ExampleText  sql.NullString
		ExampleAudio sql.NullString // base64 encoded
		Feedback     []byte         // feedback JSON as stored
		OverallScore float64
		Status       string
		Created      time.Time
	}

	//UserProgress is upserted per (user, category, module, lesson)
	UserProgress struct {
		UserID        string
		Category      string
		Module        int
		Level         int
		Completed     bool
		BestScore     float64
		Attempts      int
		LastPracticed time.Time
	}
)
