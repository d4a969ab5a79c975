package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const streamChunk = 4096

// DecodeWAV reads a PCM WAV stream and mixes its channels down to mono.
func DecodeWAV(r io.Reader) (*Sound, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode wav: invalid sample rate %d", format.SampleRate)
	}

	samples := make([]float64, 0, max(streamer.Len(), 0))
	buf := make([][2]float64, streamChunk)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			// Mono files arrive with both channels equal.
			samples = append(samples, (frame[0]+frame[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	return &Sound{Samples: samples, SampleRate: int(format.SampleRate)}, nil
}

// ReadWAV decodes the WAV file at path.
func ReadWAV(path string) (*Sound, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	snd, err := DecodeWAV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	snd.Path = path
	return snd, nil
}

// EncodeWAV writes snd as 16-bit mono PCM. Samples are clipped to [-1, 1].
func EncodeWAV(w io.WriteSeeker, snd *Sound) error {
	if snd == nil || snd.SampleRate <= 0 {
		return errors.New("encode wav: sound has no sample rate")
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(snd.SampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	pos := 0
	streamer := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(snd.Samples) {
			return 0, false
		}
		n := copy2(buf, snd.Samples[pos:])
		pos += n
		return n, true
	})
	if err := wav.Encode(w, streamer, format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// WriteWAV writes snd to path as 16-bit mono PCM.
func WriteWAV(path string, snd *Sound) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := EncodeWAV(file, snd); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func copy2(dst [][2]float64, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i][0] = src[i]
		dst[i][1] = src[i]
	}
	return n
}
