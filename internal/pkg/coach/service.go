// Package coach implements the practice-session web service: the feedback
// pipeline endpoint, the lesson intro endpoint and the session/progress
// read paths used by the presentation layer.
package coach

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locuta-ai/locuta/internal/pkg/api"
	"github.com/locuta-ai/locuta/internal/pkg/auth"
	"github.com/locuta-ai/locuta/internal/pkg/catalog"
	"github.com/locuta-ai/locuta/internal/pkg/events"
	"github.com/locuta-ai/locuta/internal/pkg/persistence"
	"github.com/locuta-ai/locuta/internal/pkg/utils"
)

// DB provides lesson reads and session/progress writes
type DB interface {
	LoadLesson(ctx context.Context, category string, module, level int) (*persistence.Lesson, error)
	InsertSession(ctx context.Context, s *persistence.Session) error
	LoadSession(ctx context.Context, id, userID string) (*persistence.Session, error)
	UpsertProgress(ctx context.Context, p *persistence.UserProgress) error
	LoadProgress(ctx context.Context, userID string) ([]*persistence.UserProgress, error)
}

// Transcriber converts audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, name string, audio io.Reader) (string, error)
}

// Completer invokes a chat completion
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Synthesizer converts text to audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// IntroGenerator produces spoken lesson introductions
type IntroGenerator interface {
	Generate(ctx context.Context, lesson *persistence.Lesson, tone catalog.Tone, firstName string) (string, []byte, error)
}

// Data keeps data required for service work
type Data struct {
	Port        int
	DB          DB
	Transcriber Transcriber
	Chat        Completer
	Synth       Synthesizer
	Intro       IntroGenerator
	Auth        *auth.Verifier
	Events      events.Sink
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP Locuta coach service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 180 * time.Second
	e.Server.WriteTimeout = 180 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return errors.New("no DB")
	}
	if data.Transcriber == nil {
		return errors.New("no transcriber")
	}
	if data.Chat == nil {
		return errors.New("no chat completer")
	}
	if data.Synth == nil {
		return errors.New("no synthesizer")
	}
	if data.Intro == nil {
		return errors.New("no intro generator")
	}
	if data.Auth == nil {
		return errors.New("no auth verifier")
	}
	if data.Events == nil {
		data.Events = events.NoOpSink{}
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("locuta_coach", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	mdw := data.Auth.Middleware()
	e.POST("/api/feedback", feedback(data), mdw)
	e.POST("/api/lesson-intro", lessonIntro(data), mdw)
	e.GET("/api/sessions/:id", session(data), mdw)
	e.GET("/api/progress", progress(data), mdw)
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func feedback(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("feedback method")()
		ctx := c.Request().Context()

		file, fHeader, err := c.Request().FormFile(api.PrmAudio)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no audio file")
		}
		defer file.Close()

		key, err := takeLessonKey(c.FormValue(api.PrmCategory), c.FormValue(api.PrmModule), c.FormValue(api.PrmLesson))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		lesson, err := loadLesson(ctx, data.DB, key)
		if err != nil {
			return err
		}

		in := &attempt{userID: auth.UserID(c), lesson: lesson,
			tone: catalog.ResolveTone(c.FormValue(api.PrmTone)),
			audioName: fHeader.Filename, audio: file}
		sessionID, err := runPipeline(ctx, data, in)
		if err != nil {
			goapp.Log.Error().Err(err).Str("lesson", key.String()).Msg("pipeline failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "can't process recording")
		}

		return c.JSON(http.StatusOK, api.FeedbackResult{Success: true, SessionID: sessionID,
			PracticePrompt: lesson.PracticePrompt})
	}
}

func lessonIntro(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("lesson intro method")()
		ctx := c.Request().Context()

		var in api.IntroInput
		if err := c.Bind(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "wrong input")
		}
		if _, err := catalog.ResolveCategory(in.Category); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		key := api.LessonKey{Category: in.Category, Module: in.Module, Lesson: in.Lesson}
		lesson, err := loadLesson(ctx, data.DB, key)
		if err != nil {
			return err
		}

		tone := catalog.ResolveTone(in.Tone)
		text, audio, err := data.Intro.Generate(ctx, lesson, tone, auth.FirstName(c))
		if err != nil {
			goapp.Log.Error().Err(err).Str("lesson", key.String()).Msg("intro failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate")
		}

		return c.JSON(http.StatusOK, api.IntroResult{
			AudioBase64:     base64.StdEncoding.EncodeToString(audio),
			Transcript:      text,
			LessonTitle:     lesson.Title,
			ModuleTitle:     catalog.ModuleTitle(lesson.Category, lesson.Module),
			PracticePrompt:  lesson.PracticePrompt,
			PracticeExample: lesson.Example,
		})
	}
}

type sessionResult struct {
	ID           string          `json:"id"`
	Category     string          `json:"categoryId"`
	Module       int             `json:"moduleId"`
	Level        int             `json:"lessonId"`
	Tone         string          `json:"tone"`
	Transcript   string          `json:"transcript"`
	ExampleText  string          `json:"exampleText,omitempty"`
	ExampleAudio string          `json:"exampleAudioBase64,omitempty"`
	Feedback     json.RawMessage `json:"feedback"`
	OverallScore float64         `json:"overallScore"`
	Status       string          `json:"status"`
	Created      time.Time       `json:"created"`
}

func session(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("session method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		s, err := data.DB.LoadSession(c.Request().Context(), id, auth.UserID(c))
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		if s == nil {
			return echo.NewHTTPError(http.StatusNotFound, "session not found: "+id)
		}
		return c.JSON(http.StatusOK, mapSession(s))
	}
}

func mapSession(s *persistence.Session) *sessionResult {
	return &sessionResult{ID: s.ID, Category: s.Category, Module: s.Module, Level: s.Level,
		Tone: s.Tone, Transcript: s.Transcript,
		ExampleText:  utils.FromSQLStr(s.ExampleText),
		ExampleAudio: utils.FromSQLStr(s.ExampleAudio),
		Feedback:     json.RawMessage(s.Feedback),
		OverallScore: s.OverallScore, Status: s.Status, Created: s.Created}
}

type progressResult struct {
	Category      string    `json:"categoryId"`
	Module        int       `json:"moduleId"`
	Level         int       `json:"lessonId"`
	Completed     bool      `json:"completed"`
	BestScore     float64   `json:"bestScore"`
	Attempts      int       `json:"attempts"`
	LastPracticed time.Time `json:"lastPracticed"`
}

func progress(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("progress method")()

		rows, err := data.DB.LoadProgress(c.Request().Context(), auth.UserID(c))
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		res := make([]*progressResult, 0, len(rows))
		for _, p := range rows {
			res = append(res, &progressResult{Category: p.Category, Module: p.Module,
				Level: p.Level, Completed: p.Completed, BestScore: p.BestScore,
				Attempts: p.Attempts, LastPracticed: p.LastPracticed})
		}
		return c.JSON(http.StatusOK, res)
	}
}

// loadLesson resolves the lesson key to exactly one row. A miss returns a 404
// carrying the attempted lookup key for diagnosis
func loadLesson(ctx context.Context, db DB, key api.LessonKey) (*persistence.Lesson, error) {
	lesson, err := db.LoadLesson(ctx, key.Category, key.Module, key.Lesson)
	if err != nil {
		goapp.Log.Error().Err(err).Send()
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Service error")
	}
	if lesson == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, (&api.ErrLessonNotFound{Key: key}).Error())
	}
	return lesson, nil
}

func takeLessonKey(category, module, lesson string) (api.LessonKey, error) {
	if category == "" {
		return api.LessonKey{}, fmt.Errorf("no %s", api.PrmCategory)
	}
	if _, err := catalog.ResolveCategory(category); err != nil {
		return api.LessonKey{}, err
	}
	m, err := strconv.Atoi(module)
	if err != nil {
		return api.LessonKey{}, fmt.Errorf("wrong %s '%s'", api.PrmModule, module)
	}
	l, err := strconv.Atoi(lesson)
	if err != nil {
		return api.LessonKey{}, fmt.Errorf("wrong %s '%s'", api.PrmLesson, lesson)
	}
	return api.LessonKey{Category: category, Module: m, Lesson: l}, nil
}
