// Package capture implements the practice recording client: an audio
// recorder producing a WAV blob, an advisory live meter and the multipart
// submission client for the feedback endpoint.
package capture

import (
	"strings"

	"github.com/pkg/errors"
)

// recording errors exposed to the UI layer
var (
	// ErrPermissionDenied - the user refused microphone access
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrNoDevice - no audio input device is available
	ErrNoDevice = errors.New("no audio input device")
	// ErrDeviceBusy - the device is claimed by another application
	ErrDeviceBusy = errors.New("audio device busy")
)

// Options configures the audio stream on open
type Options struct {
	SampleRate       int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// Stream is an open audio input stream delivering fixed-duration PCM slices
type Stream interface {
	// Read returns the next PCM slice, io.EOF when the stream ends
	Read() ([]int16, error)
	Close() error
}

// Device abstracts the platform audio input
type Device interface {
	Open(opts Options) (Stream, error)
}

// classifyOpenErr maps a device open failure to one of the exposed errors.
// Unrecognized failures pass through wrapped
func classifyOpenErr(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrNoDevice) ||
		errors.Is(err, ErrDeviceBusy) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "not allowed"):
		return ErrPermissionDenied
	case strings.Contains(msg, "not found") || strings.Contains(msg, "no device"):
		return ErrNoDevice
	case strings.Contains(msg, "busy") || strings.Contains(msg, "in use"):
		return ErrDeviceBusy
	}
	return errors.Wrap(err, "can't open audio device")
}
