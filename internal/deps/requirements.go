package deps

import (
	"strings"

	"prosody/internal/config"
)

// Requirements lists the external programs a run with cfg may execute.
// ffmpeg and ffprobe are only required when non-WAV extensions are
// configured; praat only when it is the selected engine.
func Requirements(cfg *config.Config) []Requirement {
	needsDecoder := false
	for _, ext := range cfg.Extraction.AudioExtensions {
		if !strings.EqualFold(ext, ".wav") {
			needsDecoder = true
			break
		}
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Decodes recordings that are not WAV",
			Optional:    !needsDecoder,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Selects the audio stream of non-WAV recordings",
			Optional:    !needsDecoder,
		},
		{
			Name:        "Praat",
			Command:     cfg.PraatBinary(),
			Description: "Pitch and intensity analysis (engine = \"praat\")",
			Optional:    cfg.Acoustics.Engine != config.EnginePraat,
		},
	}
}
