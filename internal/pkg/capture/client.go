package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/locuta-ai/locuta/internal/pkg/api"
	"github.com/locuta-ai/locuta/internal/pkg/events"
)

// ErrSubmitInFlight - a submission is already running on this client
var ErrSubmitInFlight = errors.New("submission already in flight")

// Meta identifies the lesson attempt being submitted
type Meta struct {
	Category string
	Module   int
	Lesson   int
	Tone     string
}

// Client submits finished recordings to the coach service
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	events     events.Sink
	inFlight   atomic.Bool
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithToken sets the bearer token attached to submissions
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithEvents sets the analytics sink
func WithEvents(sink events.Sink) ClientOption {
	return func(c *Client) { c.events = sink }
}

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a submission client for the service URL
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.New("no URL")
	}
	res := &Client{url: url, events: events.NoOpSink{},
		httpClient: &http.Client{Timeout: 3 * time.Minute}}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

// Submit posts the WAV blob with its lesson meta to the feedback endpoint.
// At most one submission runs at a time per client. On failure the blob is
// untouched and may be resubmitted
func (c *Client) Submit(ctx context.Context, blob []byte, meta Meta) (*api.FeedbackResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer c.inFlight.Store(false)
	defer goapp.Estimate("submit recording")()

	res, err := c.post(ctx, blob, meta)
	if err != nil {
		c.events.Emit(events.Event{Name: "submit_failed",
			Fields: map[string]interface{}{"lesson": lessonKey(meta), "error": err.Error()}})
		return nil, err
	}
	c.events.Emit(events.Event{Name: "submit_ok",
		Fields: map[string]interface{}{"lesson": lessonKey(meta), "session": res.SessionID}})
	return res, nil
}

func (c *Client) post(ctx context.Context, blob []byte, meta Meta) (*api.FeedbackResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(api.PrmAudio, "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("can't prepare audio part: %w", err)
	}
	if _, err := fw.Write(blob); err != nil {
		return nil, fmt.Errorf("can't write audio part: %w", err)
	}
	fields := map[string]string{api.PrmCategory: meta.Category,
		api.PrmModule: strconv.Itoa(meta.Module), api.PrmLesson: strconv.Itoa(meta.Lesson),
		api.PrmTone: meta.Tone}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("can't write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("can't finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/feedback", body)
	if err != nil {
		return nil, fmt.Errorf("can't prepare request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("can't submit recording: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("submit failed with code %d: %s", resp.StatusCode, msg)
	}
	res := &api.FeedbackResult{}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return nil, fmt.Errorf("can't decode response: %w", err)
	}
	return res, nil
}

func lessonKey(meta Meta) string {
	return api.LessonKey{Category: meta.Category, Module: meta.Module, Lesson: meta.Lesson}.String()
}
