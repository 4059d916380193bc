package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locuta-ai/locuta/internal/pkg/test"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("key")
	require.Nil(t, err)
	assert.Equal(t, defaultChatModel, c.chatModel)

	c, err = NewClient("key", WithChatModel("gpt-4o"), WithSTTModel("whisper-x"), WithTTSModel("tts-2"))
	require.Nil(t, err)
	assert.Equal(t, "gpt-4o", c.chatModel)
	assert.Equal(t, "whisper-x", c.sttModel)
	assert.Equal(t, "tts-2", c.ttsModel)
}

func TestNewClient_Fail(t *testing.T) {
	_, err := NewClient("")
	assert.NotNil(t, err)
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "Hi, I'm Alex."})
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL))
	require.Nil(t, err)
	got, err := c.Transcribe(test.Ctx(t), "rec.wav", strings.NewReader("RIFFdata"))
	require.Nil(t, err)
	assert.Equal(t, "Hi, I'm Alex.", got)
}

func TestTranscribe_Fail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL))
	require.Nil(t, err)
	_, err = c.Transcribe(test.Ctx(t), "rec.wav", strings.NewReader("RIFFdata"))
	assert.NotNil(t, err)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"olia"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL))
	require.Nil(t, err)
	got, err := c.Complete(test.Ctx(t), "system", "user")
	require.Nil(t, err)
	assert.Equal(t, "olia", got)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL))
	require.Nil(t, err)
	_, err = c.Complete(test.Ctx(t), "system", "user")
	assert.NotNil(t, err)
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/speech", r.URL.Path)
		_, _ = w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL))
	require.Nil(t, err)
	got, err := c.Synthesize(test.Ctx(t), "hello", "alloy")
	require.Nil(t, err)
	assert.Equal(t, []byte("mp3 bytes"), got)
}

func Test_contentType(t *testing.T) {
	tests := []struct {
		args string
		want string
	}{
		{args: "a.wav", want: "audio/wav"},
		{args: "a.mp3", want: "audio/mpeg"},
		{args: "a.webm", want: "audio/webm"},
		{args: "a.m4a", want: "audio/mp4"},
		{args: "a.txt", want: "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			assert.Equal(t, tt.want, contentType(tt.args))
		})
	}
}
