package capture

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"
)

const defaultSampleRate = 16000

// Recorder collects PCM slices from an audio device and finalizes them into
// a single WAV blob. One recording per instance
type Recorder struct {
	device     Device
	sampleRate int

	mu      sync.Mutex
	stream  Stream
	samples []int16
	blob    []byte
	stopped bool
	readErr error
	done    chan struct{}
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithSampleRate overrides the default 16 kHz sample rate
func WithSampleRate(rate int) RecorderOption {
	return func(r *Recorder) { r.sampleRate = rate }
}

// NewRecorder creates a Recorder for the device
func NewRecorder(device Device, opts ...RecorderOption) (*Recorder, error) {
	if device == nil {
		return nil, errors.New("no device")
	}
	res := &Recorder{device: device, sampleRate: defaultSampleRate}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

// Start opens the audio stream and begins buffering. Echo cancellation and
// noise suppression are on, auto gain is off - gain changes skew the meter
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil || r.stopped {
		return errors.New("already started")
	}
	stream, err := r.device.Open(Options{SampleRate: r.sampleRate,
		EchoCancellation: true, NoiseSuppression: true, AutoGainControl: false})
	if err != nil {
		return classifyOpenErr(err)
	}
	r.stream = stream
	r.done = make(chan struct{})
	go r.readLoop(stream, r.done)
	return nil
}

func (r *Recorder) readLoop(stream Stream, done chan struct{}) {
	defer close(done)
	for {
		slice, err := stream.Read()
		if len(slice) > 0 {
			r.mu.Lock()
			r.samples = append(r.samples, slice...)
			r.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				goapp.Log.Error().Err(err).Msg("audio stream read failed")
				r.mu.Lock()
				r.readErr = err
				r.mu.Unlock()
			}
			return
		}
	}
}

// Stop closes the stream and returns the finished WAV blob. Stop is
// idempotent - repeated calls return the same blob
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	if r.stopped {
		defer r.mu.Unlock()
		return r.blob, r.readErr
	}
	if r.stream == nil {
		r.mu.Unlock()
		return nil, errors.New("not started")
	}
	r.stopped = true
	stream, done := r.stream, r.done
	r.mu.Unlock()

	if err := stream.Close(); err != nil {
		goapp.Log.Warn().Err(err).Msg("can't close audio stream")
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blob = encodeWAV(r.samples, r.sampleRate)
	r.samples = nil
	return r.blob, r.readErr
}

// encodeWAV wraps 16-bit mono PCM into a RIFF/WAVE container
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
