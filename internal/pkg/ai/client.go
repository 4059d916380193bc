// Package ai wraps the OpenAI API calls used by the pipeline: speech to
// text, chat completion and speech synthesis.
package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/airenas/go-app/pkg/goapp"
)

const (
	defaultChatModel = "gpt-4o-mini"
	defaultSTTModel  = "whisper-1"
	defaultTTSModel  = "tts-1"

	defaultTimeout = time.Second * 50
)

// Client communicates with the OpenAI API
type Client struct {
	client    oai.Client
	chatModel string
	sttModel  string
	ttsModel  string
}

// Option is a functional option for Client
type Option func(*Client, *[]option.RequestOption)

// WithBaseURL overrides the API base URL. Used in tests to point at a local
// mock server
func WithBaseURL(url string) Option {
	return func(_ *Client, ro *[]option.RequestOption) {
		*ro = append(*ro, option.WithBaseURL(url))
	}
}

// WithChatModel overrides the chat completion model. Empty value keeps the
// default so unset config keys pass through
func WithChatModel(m string) Option {
	return func(c *Client, _ *[]option.RequestOption) {
		if m != "" {
			c.chatModel = m
		}
	}
}

// WithSTTModel overrides the transcription model
func WithSTTModel(m string) Option {
	return func(c *Client, _ *[]option.RequestOption) {
		if m != "" {
			c.sttModel = m
		}
	}
}

// WithTTSModel overrides the synthesis model
func WithTTSModel(m string) Option {
	return func(c *Client, _ *[]option.RequestOption) {
		if m != "" {
			c.ttsModel = m
		}
	}
}

// NewClient creates an OpenAI client
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no api key")
	}
	res := &Client{chatModel: defaultChatModel, sttModel: defaultSTTModel, ttsModel: defaultTTSModel}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: defaultTimeout, Transport: newTransport()}),
	}
	for _, o := range opts {
		o(res, &reqOpts)
	}
	res.client = oai.NewClient(reqOpts...)
	return res, nil
}

// Transcribe converts audio into text. No retry - any failure propagates
func (c *Client) Transcribe(ctx context.Context, name string, audio io.Reader) (string, error) {
	defer goapp.Estimate("transcribe")()
	resp, err := c.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(c.sttModel),
		File:  oai.File(audio, name, contentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("can't transcribe: %w", err)
	}
	return resp.Text, nil
}

// Complete invokes a chat completion with a system and a user prompt and
// returns the model's text
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	defer goapp.Estimate("complete")()
	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.chatModel),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(system),
			oai.UserMessage(user),
		},
		Temperature: param.NewOpt(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("can't complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Synthesize converts text into mp3 audio with the given voice
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	defer goapp.Estimate("synthesize")()
	resp, err := c.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(c.ttsModel),
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("can't synthesize: %w", err)
	}
	defer resp.Body.Close()
	res, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can't read audio: %w", err)
	}
	return res, nil
}

func contentType(name string) string {
	switch {
	case hasSuffix(name, ".wav"):
		return "audio/wav"
	case hasSuffix(name, ".mp3"):
		return "audio/mpeg"
	case hasSuffix(name, ".webm"):
		return "audio/webm"
	case hasSuffix(name, ".m4a"):
		return "audio/mp4"
	}
	return "application/octet-stream"
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func newTransport() http.RoundTripper {
	// default roundripper has just 2 idle connections per host, tune a bit
	// as the pipeline issues several API calls per request
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}
