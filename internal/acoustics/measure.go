package acoustics

import (
	"context"
	"errors"
	"log/slog"

	"prosody/internal/audio"
	"prosody/internal/logging"
	"prosody/internal/prosody"
)

// Fallback records why a contour was replaced by the sentinel.
type Fallback int

const (
	// FallbackNone means the contour came from the engine unchanged.
	FallbackNone Fallback = iota
	// FallbackEngine means the engine could not analyze the window.
	FallbackEngine
	// FallbackDegenerate means fewer than two frames were left.
	FallbackDegenerate
)

func (f Fallback) String() string {
	switch f {
	case FallbackEngine:
		return "engine_failure"
	case FallbackDegenerate:
		return "degenerate"
	default:
		return "none"
	}
}

// Measurement holds the contours for one word after the sentinel policy has
// been applied. Cause is set when the engine failed on the window.
type Measurement struct {
	Pitch             []float64
	Intensity         []float64
	PitchFallback     Fallback
	IntensityFallback Fallback
	Cause             error
}

// Substituted reports whether either contour is the sentinel.
func (m Measurement) Substituted() bool {
	return m.PitchFallback != FallbackNone || m.IntensityFallback != FallbackNone
}

// Measurer applies zero removal and the sentinel policy on top of an Engine.
type Measurer struct {
	Engine    Engine
	KeepZeros bool
	Logger    *slog.Logger
}

// NewMeasurer wraps engine.
func NewMeasurer(engine Engine, keepZeros bool, logger *slog.Logger) *Measurer {
	return &Measurer{
		Engine:    engine,
		KeepZeros: keepZeros,
		Logger:    logging.NewComponentLogger(logger, "acoustics"),
	}
}

// Measure returns pitch and intensity contours for [start, end]. A window the
// engine cannot analyze yields the sentinel for both contours; any other
// engine error is returned.
func (m *Measurer) Measure(ctx context.Context, snd *audio.Sound, start, end float64) (Measurement, error) {
	contours, err := m.Engine.Analyze(ctx, snd, start, end)
	if err != nil {
		var engineErr *EngineError
		if !errors.Is(err, ErrWindowTooShort) && !errors.As(err, &engineErr) {
			return Measurement{}, err
		}
		if m.Logger != nil {
			m.Logger.Debug("window not analyzable",
				logging.Float64("start", start),
				logging.Float64("end", end),
				logging.Error(err),
			)
		}
		return Measurement{
			Pitch:             prosody.Sentinel(),
			Intensity:         prosody.Sentinel(),
			PitchFallback:     FallbackEngine,
			IntensityFallback: FallbackEngine,
			Cause:             err,
		}, nil
	}

	pitch := contours.Pitch
	if !m.KeepZeros {
		pitch = dropZeros(pitch)
	}
	out := Measurement{Pitch: pitch, Intensity: contours.Intensity}
	if len(out.Pitch) < 2 {
		out.Pitch = prosody.Sentinel()
		out.PitchFallback = FallbackDegenerate
	}
	if len(out.Intensity) < 2 {
		out.Intensity = prosody.Sentinel()
		out.IntensityFallback = FallbackDegenerate
	}
	return out, nil
}

func dropZeros(contour []float64) []float64 {
	out := make([]float64, 0, len(contour))
	for _, v := range contour {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}
