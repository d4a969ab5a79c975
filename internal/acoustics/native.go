package acoustics

import (
	"context"
	"fmt"
	"math"

	"prosody/internal/audio"
)

// Native tracks pitch and intensity in process.
type Native struct {
	settings Settings
}

// NewNative returns an in-process engine.
func NewNative(settings Settings) *Native {
	return &Native{settings: settings}
}

func (n *Native) Name() string { return "native" }

// Analyze extracts the window and runs both trackers on it.
func (n *Native) Analyze(ctx context.Context, snd *audio.Sound, start, end float64) (Contours, error) {
	if err := ctx.Err(); err != nil {
		return Contours{}, err
	}
	part, err := snd.Extract(start, end)
	if err != nil {
		return Contours{}, err
	}
	pitch, err := trackPitch(part, n.settings)
	if err != nil {
		return Contours{}, fmt.Errorf("pitch [%g, %g]: %w", start, end, err)
	}
	intensity, err := trackIntensity(part, n.settings)
	if err != nil {
		return Contours{}, fmt.Errorf("intensity [%g, %g]: %w", start, end, err)
	}
	return Contours{Pitch: pitch, Intensity: intensity}, nil
}

// frameTimes centres as many analysis frames as fit in the signal, the way
// Praat lays out short-term analyses.
func frameTimes(snd *audio.Sound, window, step float64) ([]float64, error) {
	duration := snd.Duration()
	if len(snd.Samples) == 0 || window > duration {
		return nil, ErrWindowTooShort
	}
	count := int(math.Floor((duration-window)/step+1e-9)) + 1
	if count < 1 {
		return nil, ErrWindowTooShort
	}
	mid := 0.5 * (snd.TimeAt(0) + snd.TimeAt(len(snd.Samples)-1))
	first := mid - 0.5*float64(count-1)*step
	times := make([]float64, count)
	for i := range times {
		times[i] = first + float64(i)*step
	}
	return times, nil
}

// frameAt copies n samples centred on t, zero-padding outside the signal.
func frameAt(snd *audio.Sound, t float64, dst []float64) {
	n := len(dst)
	center := int(math.Round((t - snd.Start) * float64(snd.SampleRate)))
	begin := center - n/2
	for i := range dst {
		idx := begin + i
		if idx < 0 || idx >= len(snd.Samples) {
			dst[i] = 0
			continue
		}
		dst[i] = snd.Samples[idx]
	}
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
