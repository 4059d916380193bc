package capture

import "time"

// meter tuning constants. All advisory - nothing downstream depends on them
const (
	// speakingThreshold is the 0-100 volume above which speech is assumed
	speakingThreshold = 12.0
	// pauseGap is the silence duration counted as one pause
	pauseGap = 1500 * time.Millisecond
	// wordsPerSecond approximates conversational speech density
	wordsPerSecond = 2.5
	// volumeScale rescales mean frequency magnitude (0-255) towards 0-100
	volumeScale = 100.0 / 255.0 * 1.6
)

// Metrics is one advisory meter snapshot shown live to the user.
// It is never sent to the server
type Metrics struct {
	Volume   float64
	Speaking bool
	WPM      int
	Pauses   int
}

// Meter derives live voice metrics from periodic frequency-magnitude frames
type Meter struct {
	now func() time.Time

	started       time.Time
	lastTick      time.Time
	lastSpeech    time.Time
	spoke         bool
	inPause       bool
	totalSpeaking time.Duration
	pauses        int
}

// NewMeter creates a Meter using wall clock time
func NewMeter() *Meter {
	return NewMeterWithNow(time.Now)
}

// NewMeterWithNow creates a Meter with an injected clock. Used for replaying
// prerecorded audio and in tests
func NewMeterWithNow(now func() time.Time) *Meter {
	return &Meter{now: now}
}

// Tick consumes one frequency-magnitude frame (0-255 per bin) and returns
// the updated metrics
func (m *Meter) Tick(magnitudes []float64) Metrics {
	now := m.now()
	if m.started.IsZero() {
		m.started, m.lastTick = now, now
	}
	elapsed := now.Sub(m.lastTick)
	m.lastTick = now

	volume := clampVolume(mean(magnitudes) * volumeScale)
	speaking := volume > speakingThreshold

	if speaking {
		m.totalSpeaking += elapsed
		m.lastSpeech = now
		m.spoke = true
		m.inPause = false
	} else if m.spoke && !m.inPause && now.Sub(m.lastSpeech) >= pauseGap {
		m.pauses++
		m.inPause = true
	}

	return Metrics{Volume: volume, Speaking: speaking, WPM: m.wpm(now), Pauses: m.pauses}
}

// wpm estimates pace from cumulative speaking time over the session
func (m *Meter) wpm(now time.Time) int {
	minutes := now.Sub(m.started).Minutes()
	if minutes <= 0 {
		return 0
	}
	words := m.totalSpeaking.Seconds() * wordsPerSecond
	return int(words / minutes)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
