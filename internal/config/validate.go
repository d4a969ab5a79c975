package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Validate ensures the configuration values are coherent.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateAcoustics(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateForRun checks the settings an extraction run cannot start without.
func (c *Config) ValidateForRun() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir is required (set --data_dir)")
	}
	info, err := os.Stat(c.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("paths.data_dir %s is not a directory", c.Paths.DataDir)
	}
	if strings.TrimSpace(c.Paths.OutPath) == "" {
		return errors.New("paths.out_path is required (set --out_path)")
	}
	if info, err := os.Stat(c.Paths.OutPath); err == nil && info.IsDir() {
		return fmt.Errorf("paths.out_path %s is a directory", c.Paths.OutPath)
	}
	if !c.Extraction.LegendreOnly {
		if strings.TrimSpace(c.Paths.Dictionary) == "" {
			return fmt.Errorf("paths.dictionary is required when extraction.legendre_only is false (set --dict or %s)", DictionaryEnv)
		}
		if _, err := os.Stat(c.Paths.Dictionary); err != nil {
			return fmt.Errorf("paths.dictionary: %w", err)
		}
	}
	return nil
}

func (c *Config) validateExtraction() error {
	ext := c.Extraction
	if ext.TierName == "" {
		return errors.New("extraction.tier_name must be set")
	}
	if ext.LegendreOrder < 1 || ext.LegendreOrder > maxLegendreOrder {
		return fmt.Errorf("extraction.legendre_order must be between 1 and %d", maxLegendreOrder)
	}
	if ext.Workers < 1 {
		return errors.New("extraction.workers must be positive")
	}
	switch ext.Normalization {
	case NormalizationNone:
	case NormalizationSpeaker:
		if ext.KeepZeros {
			return errors.New("extraction.normalization = \"speaker\" requires extraction.keep_zeros = false (semitones are undefined for unvoiced frames)")
		}
	default:
		return fmt.Errorf("extraction.normalization: unsupported value %q (want none or speaker)", ext.Normalization)
	}
	if ext.ReferenceF0 < 0 {
		return errors.New("extraction.reference_f0 must be >= 0")
	}
	return nil
}

func (c *Config) validateAcoustics() error {
	ac := c.Acoustics
	switch ac.Engine {
	case EngineNative, EnginePraat:
	default:
		return fmt.Errorf("acoustics.engine: unsupported value %q (want native or praat)", ac.Engine)
	}
	if ac.PitchFloor <= 0 {
		return errors.New("acoustics.pitch_floor must be positive")
	}
	if ac.PitchCeiling <= ac.PitchFloor {
		return errors.New("acoustics.pitch_ceiling must be greater than acoustics.pitch_floor")
	}
	if ac.IntensityMinPitch <= 0 {
		return errors.New("acoustics.intensity_min_pitch must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
