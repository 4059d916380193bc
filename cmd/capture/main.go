package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/gommon/color"

	"github.com/locuta-ai/locuta/internal/pkg/capture"
	"github.com/locuta-ai/locuta/internal/pkg/events"
)

const (
	wavHeaderLen = 44
	chunkDur     = 100 * time.Millisecond
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	file := cfg.GetString("input.file")
	blob, err := os.ReadFile(file)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msgf("can't read %s", file)
	}
	goapp.Log.Info().Msgf("Read %s: %d bytes", file, len(blob))

	replayMeter(blob)

	sink := events.NewLogSink(cfg.GetInt("events.buffer"))
	defer sink.Close()

	client, err := capture.NewClient(cfg.GetString("server.url"),
		capture.WithToken(cfg.GetString("auth.token")), capture.WithEvents(sink))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init client")
	}
	meta := capture.Meta{Category: cfg.GetString("lesson.category"),
		Module: cfg.GetInt("lesson.module"), Lesson: cfg.GetInt("lesson.level"),
		Tone: cfg.GetString("lesson.tone")}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	res, err := client.Submit(ctx, blob, meta)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't submit recording")
	}
	goapp.Log.Info().Msgf("Session: %s", res.SessionID)
	goapp.Log.Info().Msgf("Practice prompt: %s", res.PracticePrompt)
}

// replayMeter feeds the recording through the live meter at simulated time
// and prints one metrics line per second of audio
func replayMeter(blob []byte) {
	samples, sampleRate, err := decodeWAV(blob)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't replay meter")
		return
	}
	now := time.Now()
	meter := capture.NewMeterWithNow(func() time.Time { return now })
	chunk := int(float64(sampleRate) * chunkDur.Seconds())
	for i := 0; i < len(samples); i += chunk {
		end := i + chunk
		if end > len(samples) {
			end = len(samples)
		}
		m := meter.Tick([]float64{magnitude(samples[i:end])})
		if i%(chunk*10) == 0 {
			at := time.Duration(i/chunk) * chunkDur
			fmt.Printf("%5s  vol: %5.1f  speaking: %-5v  wpm: %3d  pauses: %d\n",
				at.Round(time.Second), m.Volume, m.Speaking, m.WPM, m.Pauses)
		}
		now = now.Add(chunkDur)
	}
}

// magnitude maps a PCM chunk to the 0-255 scale the meter expects
func magnitude(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	return sum / float64(len(samples)) * 255 / 32768
}

func decodeWAV(blob []byte) ([]int16, int, error) {
	if len(blob) < wavHeaderLen || string(blob[:4]) != "RIFF" || string(blob[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a WAV file")
	}
	sampleRate := int(binary.LittleEndian.Uint32(blob[24:28]))
	data := blob[wavHeaderLen:]
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples, sampleRate, nil
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    __                     __
   / /   ____  _______  __/ /_____ _
  / /   / __ \/ ___/ / / / __/ __ ` + "`" + `/
 / /___/ /_/ / /__/ /_/ / /_/ /_/ /
/_____/\____/\___/\__,_/\__/\__,_/

                     __
  _________ _____  / /___  __________
 / ___/ __ ` + "`" + `/ __ \/ __/ / / / ___/ _ \
/ /__/ /_/ / /_/ / /_/ /_/ / /  /  __/
\___/\__,_/ .___/\__/\__,_/_/   \___/  v: %s
         /_/

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/locuta-ai/locuta"))
}
