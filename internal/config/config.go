package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and auxiliary file locations.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	OutPath    string `toml:"out_path"`
	Dictionary string `toml:"dictionary"`
	LogDir     string `toml:"log_dir"`
}

// Extraction controls which intervals are read and which features are produced.
type Extraction struct {
	TierName              string   `toml:"tier_name"`
	LegendreOrder         int      `toml:"legendre_order"`
	KeepZeros             bool     `toml:"keep_zeros"`
	LegendreOnly          bool     `toml:"legendre_only"`
	IncludeEmptyIntervals bool     `toml:"include_empty_intervals"`
	AudioExtensions       []string `toml:"audio_extensions"`
	Workers               int      `toml:"workers"`
	ContinueOnError       bool     `toml:"continue_on_error"`
	// Normalization is "none" or "speaker". Speaker normalization converts
	// pitch to semitones and z-scores intensity per file.
	Normalization string `toml:"normalization"`
	// ReferenceF0 is the semitone reference in Hz. Zero means the mean voiced
	// F0 of each file.
	ReferenceF0 float64 `toml:"reference_f0"`
}

// Acoustics selects and tunes the acoustic measurement engine.
type Acoustics struct {
	Engine            string  `toml:"engine"`
	PraatBinary       string  `toml:"praat_binary"`
	FFmpegBinary      string  `toml:"ffmpeg_binary"`
	FFprobeBinary     string  `toml:"ffprobe_binary"`
	PitchFloor        float64 `toml:"pitch_floor"`
	PitchCeiling      float64 `toml:"pitch_ceiling"`
	IntensityMinPitch float64 `toml:"intensity_min_pitch"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for a prosody run.
//
// Configuration sections:
//   - Paths: data directory, output table, pronunciation dictionary, logs
//   - Extraction: tier, Legendre order, feature selection, batch behaviour
//   - Acoustics: pitch/intensity engine and its analysis parameters
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Extraction Extraction `toml:"extraction"`
	Acoustics  Acoustics  `toml:"acoustics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, normalizes, and validates a configuration file.
// Run-specific requirements (data_dir, out_path) are checked separately by
// ValidateForRun so commands that only inspect configuration still work.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := Read(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// Read returns repository defaults overlaid with the configuration file, if
// one exists. The result is neither normalized nor validated so callers can
// apply command-line overrides first and then call Finalize.
func Read(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates the configuration in place.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{}
	if strings.TrimSpace(c.Paths.OutPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.OutPath))
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PraatBinary returns the Praat executable name.
func (c *Config) PraatBinary() string {
	if bin := strings.TrimSpace(c.Acoustics.PraatBinary); bin != "" {
		return bin
	}
	return defaultPraatBinary
}

// FFmpegBinary returns the ffmpeg executable name used to decode non-WAV audio.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Acoustics.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used to inspect non-WAV audio.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Acoustics.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// SpeakerNormalization reports whether per-file speaker normalization is enabled.
func (c *Config) SpeakerNormalization() bool {
	return c.Extraction.Normalization == NormalizationSpeaker
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
