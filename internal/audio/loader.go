package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"prosody/internal/logging"
	"prosody/internal/media/ffprobe"
)

// ErrNoAudioStream is returned when a container has nothing to decode.
var ErrNoAudioStream = errors.New("no audio stream")

// Loader reads audio files into memory. WAV files are decoded in process;
// other containers are converted to WAV with ffmpeg first.
type Loader struct {
	FFmpegBinary  string
	FFprobeBinary string
	Logger        *slog.Logger
}

// NewLoader constructs a loader using the given tool names.
func NewLoader(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Loader {
	return &Loader{
		FFmpegBinary:  ffmpegBinary,
		FFprobeBinary: ffprobeBinary,
		Logger:        logging.NewComponentLogger(logger, "audio"),
	}
}

// IsWAV reports whether path has a .wav extension.
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// Load returns the mono signal stored at path.
func (l *Loader) Load(ctx context.Context, path string) (*Sound, error) {
	if IsWAV(path) {
		return ReadWAV(path)
	}
	return l.convert(ctx, path)
}

func (l *Loader) convert(ctx context.Context, path string) (*Sound, error) {
	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	probe, err := ffprobe.Inspect(ctx, l.FFprobeBinary, path)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	position, stream, ok := probe.PrimaryAudio()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoAudioStream)
	}
	logger.Debug("converting audio",
		logging.String("path", path),
		logging.String("codec", stream.CodecName),
		logging.Int("sample_rate", stream.SampleRateHz()),
		logging.Int("channels", stream.Channels),
		logging.Int("audio_streams", probe.AudioStreamCount()),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
	)

	tmpDir, err := os.MkdirTemp("", "prosody-audio-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	tmpPath := filepath.Join(tmpDir, "decoded.wav")

	binary := strings.TrimSpace(l.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", path,
		"-map", "0:a:" + strconv.Itoa(position),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		tmpPath,
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg convert %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}

	snd, err := ReadWAV(tmpPath)
	if err != nil {
		return nil, err
	}
	snd.Path = path
	return snd, nil
}
