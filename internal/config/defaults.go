package config

const (
	defaultConfigPath        = "~/.config/prosody/config.toml"
	projectConfigName        = "prosody.toml"
	defaultTierName          = "words"
	defaultLegendreOrder     = 3
	defaultWorkers           = 1
	defaultEngine            = EngineNative
	defaultNormalization     = NormalizationNone
	defaultPraatBinary       = "praat"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultPitchFloor        = 75.0
	defaultPitchCeiling      = 600.0
	defaultIntensityMinPitch = 100.0
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	maxLegendreOrder         = 32
)

// Acoustic engine identifiers.
const (
	EngineNative = "native"
	EnginePraat  = "praat"
)

// Normalization modes.
const (
	NormalizationNone    = "none"
	NormalizationSpeaker = "speaker"
)

// DictionaryEnv names the environment variable consulted when paths.dictionary is unset.
const DictionaryEnv = "PROSODY_DICT"

func defaultAudioExtensions() []string {
	return []string{".wav"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Extraction: Extraction{
			TierName:        defaultTierName,
			LegendreOrder:   defaultLegendreOrder,
			KeepZeros:       true,
			LegendreOnly:    true,
			AudioExtensions: defaultAudioExtensions(),
			Workers:         defaultWorkers,
			Normalization:   defaultNormalization,
		},
		Acoustics: Acoustics{
			Engine:            defaultEngine,
			PraatBinary:       defaultPraatBinary,
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			PitchFloor:        defaultPitchFloor,
			PitchCeiling:      defaultPitchCeiling,
			IntensityMinPitch: defaultIntensityMinPitch,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
