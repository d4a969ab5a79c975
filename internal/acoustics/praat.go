package acoustics

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"prosody/internal/audio"
	"prosody/internal/logging"
)

//go:embed analyze.praat
var analyzeScript []byte

// Praat runs the praat binary in batch mode for every window. The script
// and per-window WAV files live in one scratch directory.
type Praat struct {
	binary   string
	settings Settings
	logger   *slog.Logger

	once       sync.Once
	scriptDir  string
	scriptPath string
	scriptErr  error
}

// NewPraat returns an engine backed by the given Praat executable.
func NewPraat(binary string, settings Settings, logger *slog.Logger) *Praat {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "praat"
	}
	return &Praat{
		binary:   binary,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "praat"),
	}
}

func (p *Praat) Name() string { return "praat" }

// Close removes the scratch directory holding the script and window files.
func (p *Praat) Close() error {
	if p.scriptDir == "" {
		return nil
	}
	return os.RemoveAll(p.scriptDir)
}

func (p *Praat) script() (string, error) {
	p.once.Do(func() {
		dir, err := os.MkdirTemp("", "prosody-praat-")
		if err != nil {
			p.scriptErr = fmt.Errorf("create script dir: %w", err)
			return
		}
		path := filepath.Join(dir, "analyze.praat")
		if err := os.WriteFile(path, analyzeScript, 0o644); err != nil {
			p.scriptErr = fmt.Errorf("write praat script: %w", err)
			return
		}
		p.scriptDir = dir
		p.scriptPath = path
	})
	return p.scriptPath, p.scriptErr
}

// Analyze writes the window to a scratch WAV and runs the embedded script
// over all of it, so Praat never reads more audio than one word.
func (p *Praat) Analyze(ctx context.Context, snd *audio.Sound, start, end float64) (Contours, error) {
	script, err := p.script()
	if err != nil {
		return Contours{}, err
	}

	part, err := snd.Extract(start, end)
	if err != nil {
		return Contours{}, err
	}
	source, err := p.writeWindow(part)
	if err != nil {
		return Contours{}, err
	}
	defer os.Remove(source)
	from, to := 0.0, part.Duration()

	args := []string{
		"--run", script,
		source,
		formatArg(from),
		formatArg(to),
		formatArg(p.settings.PitchFloor),
		formatArg(p.settings.PitchCeiling),
		formatArg(p.settings.IntensityMinPitch),
	}
	cmd := exec.CommandContext(ctx, p.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Contours{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return Contours{}, &EngineError{Engine: p.Name(), Path: snd.Path, Start: start, End: end, Msg: msg}
		}
		return Contours{}, fmt.Errorf("run %s: %w", p.binary, err)
	}

	contours, err := parsePraatOutput(stdout.Bytes())
	if err != nil {
		return Contours{}, fmt.Errorf("praat output for %s: %w", snd.Path, err)
	}
	p.logger.Debug("praat window analyzed",
		logging.Float64("start", start),
		logging.Float64("end", end),
		logging.Int("pitch_frames", len(contours.Pitch)),
		logging.Int("intensity_frames", len(contours.Intensity)),
	)
	return contours, nil
}

func (p *Praat) writeWindow(part *audio.Sound) (string, error) {
	tmp, err := os.CreateTemp(p.scriptDir, "window-*.wav")
	if err != nil {
		return "", fmt.Errorf("create window file: %w", err)
	}
	path := tmp.Name()
	encodeErr := audio.EncodeWAV(tmp, &audio.Sound{Samples: part.Samples, SampleRate: part.SampleRate})
	closeErr := tmp.Close()
	if err := errors.Join(encodeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write window file: %w", err)
	}
	return path, nil
}

// parsePraatOutput reads "P <hz>" and "I <db>" lines. Undefined intensity
// frames become NaN.
func parsePraatOutput(data []byte) (Contours, error) {
	var contours Contours
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			if !strings.Contains(fields[1], "undefined") {
				return Contours{}, fmt.Errorf("parse %q: %w", scanner.Text(), err)
			}
			value = math.NaN()
		}
		switch fields[0] {
		case "P":
			if math.IsNaN(value) {
				value = 0
			}
			contours.Pitch = append(contours.Pitch, value)
		case "I":
			contours.Intensity = append(contours.Intensity, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Contours{}, err
	}
	return contours, nil
}

func formatArg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
