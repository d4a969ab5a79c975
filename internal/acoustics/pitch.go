package acoustics

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"prosody/internal/audio"
)

// Praat's default candidate thresholds for the autocorrelation method.
const (
	silenceThreshold = 0.03
	voicingThreshold = 0.45
	octaveCost       = 0.01
)

// trackPitch estimates F0 per frame by windowed autocorrelation. The lag
// autocorrelation is divided by the window's own autocorrelation, and the
// strongest peak between the floor and ceiling wins. Frames whose best
// peak is below the voicing threshold, or whose amplitude is below the
// silence threshold relative to the whole window, are unvoiced (0).
func trackPitch(snd *audio.Sound, s Settings) ([]float64, error) {
	times, err := frameTimes(snd, s.PitchWindow(), s.PitchTimeStep())
	if err != nil {
		return nil, err
	}

	rate := float64(snd.SampleRate)
	size := int(math.Round(s.PitchWindow() * rate))
	if size < 4 {
		return nil, ErrWindowTooShort
	}
	minLag := max(int(math.Floor(rate/s.PitchCeiling)), 2)
	maxLag := min(int(math.Ceil(rate/s.PitchFloor)), size-2)

	pitch := make([]float64, len(times))
	globalPeak := peakDeviation(snd.Samples)
	if globalPeak == 0 || minLag >= maxLag {
		return pitch, nil
	}

	nfft := nextPow2(2 * size)
	weights := window.Hann(ones(size))
	windowAC := autocorrelate(weights, nfft)

	frame := make([]float64, size)
	for i, t := range times {
		frameAt(snd, t, frame)
		mean := stat.Mean(frame, nil)
		floats.AddConst(-mean, frame)
		localPeak := math.Max(floats.Max(frame), -floats.Min(frame))
		if localPeak < silenceThreshold*globalPeak {
			continue
		}
		floats.Mul(frame, weights)
		ac := autocorrelate(frame, nfft)
		if ac[0] <= 0 {
			continue
		}

		bestStrength := math.Inf(-1)
		bestR := 0.0
		bestFreq := 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			r := normalizedAC(ac, windowAC, lag)
			if r <= normalizedAC(ac, windowAC, lag-1) || r < normalizedAC(ac, windowAC, lag+1) {
				continue
			}
			refinedLag, refinedR := interpolatePeak(
				normalizedAC(ac, windowAC, lag-1), r, normalizedAC(ac, windowAC, lag+1), lag)
			freq := rate / refinedLag
			if freq < s.PitchFloor || freq > s.PitchCeiling {
				continue
			}
			strength := refinedR + octaveCost*math.Log2(freq/s.PitchFloor)
			if strength > bestStrength {
				bestStrength = strength
				bestR = refinedR
				bestFreq = freq
			}
		}
		if bestR >= voicingThreshold {
			pitch[i] = bestFreq
		}
	}
	return pitch, nil
}

func normalizedAC(ac, windowAC []float64, lag int) float64 {
	if windowAC[lag] <= 0 {
		return 0
	}
	return (ac[lag] / ac[0]) / (windowAC[lag] / windowAC[0])
}

// interpolatePeak fits a parabola through three neighbouring values.
func interpolatePeak(left, mid, right float64, lag int) (float64, float64) {
	denom := left - 2*mid + right
	if denom == 0 {
		return float64(lag), mid
	}
	offset := 0.5 * (left - right) / denom
	if offset < -0.5 || offset > 0.5 {
		return float64(lag), mid
	}
	return float64(lag) + offset, mid - 0.25*(left-right)*offset
}

// autocorrelate returns the linear autocorrelation of x for lags 0..len(x)-1.
// nfft must be at least 2*len(x) so the circular result does not wrap.
func autocorrelate(x []float64, nfft int) []float64 {
	padded := make([]float64, nfft)
	copy(padded, x)
	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	circular := fft.IFFT(spectrum)
	out := make([]float64, len(x))
	for i := range out {
		out[i] = real(circular[i])
	}
	return out
}

func peakDeviation(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	mean := stat.Mean(samples, nil)
	peak := 0.0
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v-mean))
	}
	return peak
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
