package mocks

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/locuta-ai/locuta/internal/pkg/catalog"
	"github.com/locuta-ai/locuta/internal/pkg/events"
	"github.com/locuta-ai/locuta/internal/pkg/persistence"
)

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) LoadLesson(ctx context.Context, category string, module, level int) (*persistence.Lesson, error) {
	args := m.Called(ctx, category, module, level)
	return to[*persistence.Lesson](args.Get(0)), args.Error(1)
}

func (m *DB) InsertSession(ctx context.Context, s *persistence.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *DB) LoadSession(ctx context.Context, id, userID string) (*persistence.Session, error) {
	args := m.Called(ctx, id, userID)
	return to[*persistence.Session](args.Get(0)), args.Error(1)
}

func (m *DB) UpsertProgress(ctx context.Context, p *persistence.UserProgress) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *DB) LoadProgress(ctx context.Context, userID string) ([]*persistence.UserProgress, error) {
	args := m.Called(ctx, userID)
	return to[[]*persistence.UserProgress](args.Get(0)), args.Error(1)
}

// Transcriber is speech to text client mock
type Transcriber struct{ mock.Mock }

func (m *Transcriber) Transcribe(ctx context.Context, name string, audio io.Reader) (string, error) {
	args := m.Called(ctx, name, audio)
	return args.String(0), args.Error(1)
}

// Completer is chat completion client mock
type Completer struct{ mock.Mock }

func (m *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

// Synthesizer is text to speech client mock
type Synthesizer struct{ mock.Mock }

func (m *Synthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	args := m.Called(ctx, text, voice)
	return to[[]byte](args.Get(0)), args.Error(1)
}

// Intro is lesson intro generator mock
type Intro struct{ mock.Mock }

func (m *Intro) Generate(ctx context.Context, lesson *persistence.Lesson, tone catalog.Tone, firstName string) (string, []byte, error) {
	args := m.Called(ctx, lesson, tone, firstName)
	return args.String(0), to[[]byte](args.Get(1)), args.Error(2)
}

// Sink is analytics sink mock
type Sink struct{ mock.Mock }

func (m *Sink) Emit(ev events.Event) {
	m.Called(ev)
}

// To returns the typed argument of the first recorded call to method
func To[T interface{}](t *testing.T, m *mock.Mock, method string, arg int) T {
	t.Helper()
	for _, c := range m.Calls {
		if c.Method == method {
			return to[T](c.Arguments.Get(arg))
		}
	}
	t.Fatalf("no call to %s", method)
	var res T
	return res
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
