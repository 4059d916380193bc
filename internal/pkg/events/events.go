// Package events is a fire-and-forget side channel for analytics events.
// Both the capture client and the orchestrator emit into a Sink, decoupled
// from the main control flow - a sink failure never affects the primary
// result.
package events

import (
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/rs/zerolog"
)

// Event is one analytics record
type Event struct {
	Name   string
	At     time.Time
	Fields map[string]interface{}
}

// Sink accepts events. Emit must not block and must not fail the caller
type Sink interface {
	Emit(ev Event)
}

// LogSink writes events asynchronously to the app log
type LogSink struct {
	ch   chan Event
	done chan struct{}
}

// NewLogSink creates a log backed sink with the given buffer size
func NewLogSink(buffer int) *LogSink {
	if buffer < 1 {
		buffer = 64
	}
	res := &LogSink{ch: make(chan Event, buffer), done: make(chan struct{})}
	go res.loop()
	return res
}

// Emit queues an event. Events are dropped when the buffer is full
func (s *LogSink) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// Close drains remaining events and stops the sink
func (s *LogSink) Close() {
	close(s.ch)
	<-s.done
}

func (s *LogSink) loop() {
	defer close(s.done)
	for ev := range s.ch {
		le := goapp.Log.Info().Str("event", ev.Name).Time(zerolog.TimestampFieldName, ev.At)
		for k, v := range ev.Fields {
			le = le.Interface(k, v)
		}
		le.Msg("analytics")
	}
}

// NoOpSink discards all events
type NoOpSink struct{}

func (NoOpSink) Emit(Event) {}
