package coach

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/locuta-ai/locuta/internal/pkg/api"
	"github.com/locuta-ai/locuta/internal/pkg/auth"
	"github.com/locuta-ai/locuta/internal/pkg/events"
	"github.com/locuta-ai/locuta/internal/pkg/persistence"
	"github.com/locuta-ai/locuta/internal/pkg/prompt"
	"github.com/locuta-ai/locuta/internal/pkg/test"
	"github.com/locuta-ai/locuta/internal/pkg/test/mocks"
)

const tSecret = "olia-secret"

const tScoreJSON = `{"task_completion": 90, "delivery": 80,
	"linguistic_quality": {"grammar": 80, "sentence_formation": 80, "vocabulary": 80},
	"strengths": ["clear opening"], "improvements": ["slow down"],
	"feedback": "Good attempt."}`

var (
	tData   *Data
	tEcho   *echo.Echo
	tDB     *mocks.DB
	tSTT    *mocks.Transcriber
	tChat   *mocks.Completer
	tSynth  *mocks.Synthesizer
	tIntro  *mocks.Intro
	tLesson *persistence.Lesson
	tToken  string
)

func initTest(t *testing.T) {
	tDB = &mocks.DB{}
	tSTT = &mocks.Transcriber{}
	tChat = &mocks.Completer{}
	tSynth = &mocks.Synthesizer{}
	tIntro = &mocks.Intro{}
	verifier, err := auth.NewVerifier(tSecret)
	require.Nil(t, err)
	tData = &Data{Port: 8000, DB: tDB, Transcriber: tSTT, Chat: tChat, Synth: tSynth,
		Intro: tIntro, Auth: verifier, Events: events.NoOpSink{}}
	tEcho = initRoutes(tData)

	tLesson = &persistence.Lesson{ID: 7, Category: "public-speaking", Module: 1, Level: 2,
		Title: "Pacing basics", PracticePrompt: "Introduce yourself in 30 seconds",
		Example: "Hi, I am Jo.", ExpectedDuration: 30, FocusAreas: []string{"pace", "clarity"}}
	tToken = newToken(t, "user-1", "Jo")
}

func newToken(t *testing.T, userID, firstName string) string {
	t.Helper()
	claims := &auth.Claims{FirstName: firstName,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
	res, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tSecret))
	require.Nil(t, err)
	return res
}

func newFeedbackReq(t *testing.T, prms map[string]string, withAudio bool) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if withAudio {
		fw, err := mw.CreateFormFile(api.PrmAudio, "olia.wav")
		require.Nil(t, err)
		_, err = fw.Write([]byte("olia audio"))
		require.Nil(t, err)
	}
	for k, v := range prms {
		require.Nil(t, mw.WriteField(k, v))
	}
	require.Nil(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tToken)
	return req
}

func feedbackPrms() map[string]string {
	return map[string]string{api.PrmCategory: "public-speaking", api.PrmModule: "1",
		api.PrmLesson: "2", api.PrmTone: "calm"}
}

func mockPipeline() {
	tDB.On("LoadLesson", mock.Anything, "public-speaking", 1, 2).Return(tLesson, nil)
	tSTT.On("Transcribe", mock.Anything, "olia.wav", mock.Anything).Return("hello, I am Jo", nil)
	tChat.On("Complete", mock.Anything, prompt.ScoringSystem, mock.Anything).Return(tScoreJSON, nil)
	tChat.On("Complete", mock.Anything, exampleSystem, mock.Anything).Return("A strong answer.", nil)
	tSynth.On("Synthesize", mock.Anything, "A strong answer.", "shimmer").Return([]byte("mp3"), nil)
}

func TestLive(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	testCode(t, req, http.StatusOK)
}

func TestFeedback(t *testing.T) {
	initTest(t)
	mockPipeline()
	tDB.On("InsertSession", mock.Anything, mock.Anything).Return(nil)
	tDB.On("UpsertProgress", mock.Anything, mock.Anything).Return(nil)

	resp := testCode(t, newFeedbackReq(t, feedbackPrms(), true), http.StatusOK)
	res := test.Decode[api.FeedbackResult](t, resp)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "Introduce yourself in 30 seconds", res.PracticePrompt)

	s := mocks.To[*persistence.Session](t, &tDB.Mock, "InsertSession", 1)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "calm", s.Tone)
	assert.Equal(t, "hello, I am Jo", s.Transcript)
	assert.Equal(t, "COMPLETED", s.Status)
	assert.InDelta(t, 84.0, s.OverallScore, 0.001)
	p := mocks.To[*persistence.UserProgress](t, &tDB.Mock, "UpsertProgress", 1)
	assert.Equal(t, "user-1", p.UserID)
	assert.True(t, p.Completed)
	assert.InDelta(t, 84.0, p.BestScore, 0.001)
	assert.Equal(t, 1, p.Attempts)
}

func TestFeedback_NoAudio(t *testing.T) {
	initTest(t)
	testCode(t, newFeedbackReq(t, feedbackPrms(), false), http.StatusBadRequest)
}

func TestFeedback_NoAuth(t *testing.T) {
	initTest(t)
	req := newFeedbackReq(t, feedbackPrms(), true)
	req.Header.Del(echo.HeaderAuthorization)
	testCode(t, req, http.StatusUnauthorized)
}

func TestFeedback_WrongToken(t *testing.T) {
	initTest(t)
	req := newFeedbackReq(t, feedbackPrms(), true)
	req.Header.Set(echo.HeaderAuthorization, "Bearer olia")
	testCode(t, req, http.StatusUnauthorized)
}

func TestFeedback_WrongCategory(t *testing.T) {
	initTest(t)
	prms := feedbackPrms()
	prms[api.PrmCategory] = "olia"
	resp := testCode(t, newFeedbackReq(t, prms, true), http.StatusBadRequest)
	assert.Contains(t, resp.Body.String(), "unknown category")
}

func TestFeedback_WrongModule(t *testing.T) {
	initTest(t)
	prms := feedbackPrms()
	prms[api.PrmModule] = "olia"
	testCode(t, newFeedbackReq(t, prms, true), http.StatusBadRequest)
}

func TestFeedback_LessonNotFound(t *testing.T) {
	initTest(t)
	tDB.On("LoadLesson", mock.Anything, "public-speaking", 1, 2).Return(nil, nil)
	resp := testCode(t, newFeedbackReq(t, feedbackPrms(), true), http.StatusNotFound)
	assert.Contains(t, resp.Body.String(), "public-speaking/1/2")
}

func TestFeedback_TranscribeFails(t *testing.T) {
	initTest(t)
	tDB.On("LoadLesson", mock.Anything, "public-speaking", 1, 2).Return(tLesson, nil)
	tSTT.On("Transcribe", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("olia"))
	testCode(t, newFeedbackReq(t, feedbackPrms(), true), http.StatusInternalServerError)
	tDB.AssertNotCalled(t, "InsertSession", mock.Anything, mock.Anything)
}

func TestFeedback_ScoreParseFallback(t *testing.T) {
	initTest(t)
	mockPipeline()
	tChat.ExpectedCalls = nil
	tChat.On("Complete", mock.Anything, prompt.ScoringSystem, mock.Anything).Return("not json at all", nil)
	tChat.On("Complete", mock.Anything, exampleSystem, mock.Anything).Return("A strong answer.", nil)
	tDB.On("InsertSession", mock.Anything, mock.Anything).Return(nil)
	tDB.On("UpsertProgress", mock.Anything, mock.Anything).Return(nil)

	resp := testCode(t, newFeedbackReq(t, feedbackPrms(), true), http.StatusOK)
	res := test.Decode[api.FeedbackResult](t, resp)
	assert.True(t, res.Success)
	s := mocks.To[*persistence.Session](t, &tDB.Mock, "InsertSession", 1)
	assert.InDelta(t, 70.0, s.OverallScore, 0.001)
	var fb map[string]interface{}
	require.Nil(t, json.Unmarshal(s.Feedback, &fb))
	assert.Equal(t, false, fb["pass_level"])
}

func TestFeedback_InsertFails(t *testing.T) {
	initTest(t)
	mockPipeline()
	tDB.On("InsertSession", mock.Anything, mock.Anything).Return(errors.New("olia"))
	tDB.On("UpsertProgress", mock.Anything, mock.Anything).Return(nil)
	testCode(t, newFeedbackReq(t, feedbackPrms(), true), http.StatusInternalServerError)
}

func TestFeedback_ProgressFailIgnored(t *testing.T) {
	initTest(t)
	mockPipeline()
	tDB.On("InsertSession", mock.Anything, mock.Anything).Return(nil)
	tDB.On("UpsertProgress", mock.Anything, mock.Anything).Return(errors.New("olia"))
	resp := testCode(t, newFeedbackReq(t, feedbackPrms(), true), http.StatusOK)
	assert.True(t, test.Decode[api.FeedbackResult](t, resp).Success)
}

func newIntroReq(t *testing.T, in api.IntroInput) *http.Request {
	t.Helper()
	b, err := json.Marshal(in)
	require.Nil(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/lesson-intro", bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tToken)
	return req
}

func TestLessonIntro(t *testing.T) {
	initTest(t)
	tDB.On("LoadLesson", mock.Anything, "public-speaking", 1, 2).Return(tLesson, nil)
	tIntro.On("Generate", mock.Anything, tLesson, mock.Anything, "Jo").
		Return("Welcome, Jo", []byte("mp3"), nil)

	resp := testCode(t, newIntroReq(t, api.IntroInput{Tone: "friendly",
		Category: "public-speaking", Module: 1, Lesson: 2}), http.StatusOK)
	res := test.Decode[api.IntroResult](t, resp)
	assert.Equal(t, "Welcome, Jo", res.Transcript)
	assert.Equal(t, "bXAz", res.AudioBase64)
	assert.Equal(t, "Pacing basics", res.LessonTitle)
	assert.Equal(t, "First Words", res.ModuleTitle)
	assert.Equal(t, "Introduce yourself in 30 seconds", res.PracticePrompt)
	assert.Equal(t, "Hi, I am Jo.", res.PracticeExample)
}

func TestLessonIntro_NotFound(t *testing.T) {
	initTest(t)
	tDB.On("LoadLesson", mock.Anything, "storytelling", 9, 9).Return(nil, nil)
	resp := testCode(t, newIntroReq(t, api.IntroInput{Category: "storytelling", Module: 9, Lesson: 9}),
		http.StatusNotFound)
	assert.Contains(t, resp.Body.String(), "storytelling/9/9")
}

func TestLessonIntro_WrongCategory(t *testing.T) {
	initTest(t)
	testCode(t, newIntroReq(t, api.IntroInput{Category: "olia", Module: 1, Lesson: 1}),
		http.StatusBadRequest)
	tDB.AssertNotCalled(t, "LoadLesson", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLessonIntro_Fails(t *testing.T) {
	initTest(t)
	tDB.On("LoadLesson", mock.Anything, "public-speaking", 1, 2).Return(tLesson, nil)
	tIntro.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", nil, errors.New("olia"))
	testCode(t, newIntroReq(t, api.IntroInput{Category: "public-speaking", Module: 1, Lesson: 2}),
		http.StatusInternalServerError)
}

func TestSession(t *testing.T) {
	initTest(t)
	tDB.On("LoadSession", mock.Anything, "id1", "user-1").Return(
		&persistence.Session{ID: "id1", UserID: "user-1", Category: "public-speaking",
			Module: 1, Level: 2, Tone: "calm", Transcript: "hello",
			Feedback: []byte(`{"overall_score": 84}`), OverallScore: 84,
			Status: "COMPLETED"}, nil)
	req := newAuthReq(t, http.MethodGet, "/api/sessions/id1")
	resp := testCode(t, req, http.StatusOK)
	res := test.Decode[sessionResult](t, resp)
	assert.Equal(t, "id1", res.ID)
	assert.Equal(t, 84.0, res.OverallScore)
	assert.Equal(t, "hello", res.Transcript)
}

func TestSession_NotFound(t *testing.T) {
	initTest(t)
	tDB.On("LoadSession", mock.Anything, "id1", "user-1").Return(nil, nil)
	testCode(t, newAuthReq(t, http.MethodGet, "/api/sessions/id1"), http.StatusNotFound)
}

func TestSession_DBFails(t *testing.T) {
	initTest(t)
	tDB.On("LoadSession", mock.Anything, "id1", "user-1").Return(nil, errors.New("olia"))
	testCode(t, newAuthReq(t, http.MethodGet, "/api/sessions/id1"), http.StatusInternalServerError)
}

func TestProgress(t *testing.T) {
	initTest(t)
	tDB.On("LoadProgress", mock.Anything, "user-1").Return([]*persistence.UserProgress{
		{UserID: "user-1", Category: "public-speaking", Module: 1, Level: 2,
			Completed: true, BestScore: 84, Attempts: 3}}, nil)
	resp := testCode(t, newAuthReq(t, http.MethodGet, "/api/progress"), http.StatusOK)
	res := test.Decode[[]progressResult](t, resp)
	require.Len(t, res, 1)
	assert.True(t, res[0].Completed)
	assert.Equal(t, 3, res[0].Attempts)
}

func TestProgress_DBFails(t *testing.T) {
	initTest(t)
	tDB.On("LoadProgress", mock.Anything, "user-1").Return(nil, errors.New("olia"))
	testCode(t, newAuthReq(t, http.MethodGet, "/api/progress"), http.StatusInternalServerError)
}

func TestValidate(t *testing.T) {
	initTest(t)
	require.Nil(t, validate(tData))
	tests := []struct {
		name string
		prep func(d *Data)
	}{
		{name: "no DB", prep: func(d *Data) { d.DB = nil }},
		{name: "no transcriber", prep: func(d *Data) { d.Transcriber = nil }},
		{name: "no chat", prep: func(d *Data) { d.Chat = nil }},
		{name: "no synth", prep: func(d *Data) { d.Synth = nil }},
		{name: "no intro", prep: func(d *Data) { d.Intro = nil }},
		{name: "no auth", prep: func(d *Data) { d.Auth = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := *tData
			tc.prep(&d)
			assert.NotNil(t, validate(&d))
		})
	}
}

func TestTakeLessonKey(t *testing.T) {
	tests := []struct {
		name     string
		c, m, l  string
		wantErr  bool
		wantsKey string
	}{
		{name: "ok", c: "small-talk", m: "2", l: "5", wantsKey: "small-talk/2/5"},
		{name: "no category", c: "", m: "2", l: "5", wantErr: true},
		{name: "unknown category", c: "olia", m: "2", l: "5", wantErr: true},
		{name: "bad module", c: "small-talk", m: "olia", l: "5", wantErr: true},
		{name: "bad lesson", c: "small-talk", m: "2", l: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, err := takeLessonKey(tc.c, tc.m, tc.l)
			if tc.wantErr {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tc.wantsKey, key.String())
		})
	}
}

func newAuthReq(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(""))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tToken)
	return req
}

func testCode(t *testing.T, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	return test.Code(t, tEcho, req, code)
}
