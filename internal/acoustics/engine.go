package acoustics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"prosody/internal/audio"
	"prosody/internal/config"
)

// ErrWindowTooShort is returned when a window is shorter than the analysis
// window of the pitch or intensity tracker.
var ErrWindowTooShort = errors.New("window shorter than analysis window")

// EngineError reports an analysis the engine ran but could not complete,
// as opposed to a failure to run the engine at all.
type EngineError struct {
	Engine string
	Path   string
	Start  float64
	End    float64
	Msg    string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s analysis of %s [%g, %g]: %s", e.Engine, e.Path, e.Start, e.End, e.Msg)
}

// Contours holds the raw tracks for one window. Unvoiced pitch frames are 0.
type Contours struct {
	Pitch     []float64
	Intensity []float64
}

// Engine computes pitch (Hz) and intensity (dB) contours for the part of
// snd between start and end.
type Engine interface {
	Name() string
	Analyze(ctx context.Context, snd *audio.Sound, start, end float64) (Contours, error)
}

// Settings are the analysis parameters shared by every engine. The defaults
// match Praat's "To Pitch" and "To Intensity" commands.
type Settings struct {
	PitchFloor        float64
	PitchCeiling      float64
	IntensityMinPitch float64
}

// DefaultSettings returns Praat's default analysis parameters.
func DefaultSettings() Settings {
	return Settings{PitchFloor: 75, PitchCeiling: 600, IntensityMinPitch: 100}
}

// PitchTimeStep is 0.75 / floor.
func (s Settings) PitchTimeStep() float64 { return 0.75 / s.PitchFloor }

// PitchWindow is three periods of the pitch floor.
func (s Settings) PitchWindow() float64 { return 3 / s.PitchFloor }

// IntensityTimeStep is 0.8 / minimum pitch.
func (s Settings) IntensityTimeStep() float64 { return 0.8 / s.IntensityMinPitch }

// IntensityWindow is 6.4 / minimum pitch, the full length of the Kaiser
// window; its effective length is half that.
func (s Settings) IntensityWindow() float64 { return 6.4 / s.IntensityMinPitch }

// SettingsFromConfig reads analysis parameters from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		PitchFloor:        cfg.Acoustics.PitchFloor,
		PitchCeiling:      cfg.Acoustics.PitchCeiling,
		IntensityMinPitch: cfg.Acoustics.IntensityMinPitch,
	}
}

// New returns the engine selected by acoustics.engine.
func New(cfg *config.Config, logger *slog.Logger) (Engine, error) {
	settings := SettingsFromConfig(cfg)
	switch cfg.Acoustics.Engine {
	case config.EngineNative, "":
		return NewNative(settings), nil
	case config.EnginePraat:
		return NewPraat(cfg.PraatBinary(), settings, logger), nil
	default:
		return nil, fmt.Errorf("unknown acoustics engine %q", cfg.Acoustics.Engine)
	}
}
