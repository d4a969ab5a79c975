package audio

import (
	"fmt"
	"math"
)

// Sound is a mono signal. Sample i sits at time Start + i/SampleRate.
type Sound struct {
	Samples    []float64
	SampleRate int
	Start      float64
	Path       string
}

// Duration returns the signal length in seconds.
func (s *Sound) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// End returns the time just past the last sample.
func (s *Sound) End() float64 {
	return s.Start + s.Duration()
}

// TimeAt returns the time of sample i.
func (s *Sound) TimeAt(i int) float64 {
	return s.Start + float64(i)/float64(s.SampleRate)
}

// Extract returns the part of the signal between start and end, keeping the
// original time axis. Portions of the window outside the signal are dropped,
// so a window entirely outside yields an empty Sound. The returned samples
// share storage with s and must not be modified.
func (s *Sound) Extract(start, end float64) (*Sound, error) {
	if s == nil {
		return nil, fmt.Errorf("extract: nil sound")
	}
	if s.SampleRate <= 0 {
		return nil, fmt.Errorf("extract: invalid sample rate %d", s.SampleRate)
	}
	if math.IsNaN(start) || math.IsNaN(end) || end < start {
		return nil, fmt.Errorf("extract: invalid window [%g, %g]", start, end)
	}

	rate := float64(s.SampleRate)
	first := int(math.Ceil((start - s.Start) * rate))
	last := int(math.Ceil((end - s.Start) * rate))
	first = clamp(first, 0, len(s.Samples))
	last = clamp(last, first, len(s.Samples))

	return &Sound{
		Samples:    s.Samples[first:last:last],
		SampleRate: s.SampleRate,
		Start:      s.Start + float64(first)/rate,
		Path:       s.Path,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
