package acoustics

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"prosody/internal/audio"
)

const (
	// referencePressure squared, in Pa^2 (auditory threshold of 2e-5 Pa).
	referencePower = 4e-10
	// silentIntensity is reported for frames without energy.
	silentIntensity = -300.0
)

// kaiserBeta is the shape of the Kaiser-20 intensity window.
var kaiserBeta = 2*math.Pi*math.Pi + 0.5

// trackIntensity returns the weighted mean-square energy per frame in dB
// relative to the auditory threshold, with each frame's mean removed first.
func trackIntensity(snd *audio.Sound, s Settings) ([]float64, error) {
	times, err := frameTimes(snd, s.IntensityWindow(), s.IntensityTimeStep())
	if err != nil {
		return nil, err
	}
	size := int(math.Round(s.IntensityWindow() * float64(snd.SampleRate)))
	if size < 2 {
		return nil, ErrWindowTooShort
	}

	weights := window.NewValues(kaiser(kaiserBeta), size)
	weightSum := floats.Sum(weights)

	out := make([]float64, len(times))
	frame := make([]float64, size)
	for i, t := range times {
		frameAt(snd, t, frame)
		floats.AddConst(-stat.Mean(frame, nil), frame)
		floats.Mul(frame, frame)
		power := floats.Dot(frame, weights) / weightSum
		if power <= 0 {
			out[i] = silentIntensity
			continue
		}
		out[i] = 10 * math.Log10(power/referencePower)
	}
	return out, nil
}

// kaiser returns a window function scaling seq in place by
// I0(beta*sqrt(1-x^2))/I0(beta), with x running from -1 to 1.
func kaiser(beta float64) func([]float64) []float64 {
	return func(seq []float64) []float64 {
		n := len(seq)
		if n < 2 {
			return seq
		}
		half := 0.5 * float64(n-1)
		norm := besselI0(beta)
		for i := range seq {
			x := (float64(i) - half) / half
			seq[i] *= besselI0(beta*math.Sqrt(math.Max(0, 1-x*x))) / norm
		}
		return seq
	}
}

// besselI0 is the modified Bessel function of the first kind, order zero,
// summed from its power series.
func besselI0(x float64) float64 {
	q := 0.25 * x * x
	sum, term := 1.0, 1.0
	for k := 1; k < 500; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}
