package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeAcoustics()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Dictionary) == "" {
		if value, ok := os.LookupEnv(DictionaryEnv); ok {
			c.Paths.Dictionary = strings.TrimSpace(value)
		}
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.OutPath, err = expandPath(strings.TrimSpace(c.Paths.OutPath)); err != nil {
		return fmt.Errorf("paths.out_path: %w", err)
	}
	if c.Paths.Dictionary, err = expandPath(strings.TrimSpace(c.Paths.Dictionary)); err != nil {
		return fmt.Errorf("paths.dictionary: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	c.Extraction.TierName = strings.TrimSpace(c.Extraction.TierName)
	if c.Extraction.Workers <= 0 {
		c.Extraction.Workers = defaultWorkers
	}
	c.Extraction.Normalization = strings.ToLower(strings.TrimSpace(c.Extraction.Normalization))
	if c.Extraction.Normalization == "" {
		c.Extraction.Normalization = defaultNormalization
	}

	exts := make([]string, 0, len(c.Extraction.AudioExtensions))
	seen := make(map[string]struct{}, len(c.Extraction.AudioExtensions))
	for _, ext := range c.Extraction.AudioExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultAudioExtensions()
	}
	c.Extraction.AudioExtensions = exts
}

func (c *Config) normalizeAcoustics() {
	c.Acoustics.Engine = strings.ToLower(strings.TrimSpace(c.Acoustics.Engine))
	if c.Acoustics.Engine == "" {
		c.Acoustics.Engine = defaultEngine
	}
	c.Acoustics.PraatBinary = strings.TrimSpace(c.Acoustics.PraatBinary)
	if c.Acoustics.PraatBinary == "" {
		c.Acoustics.PraatBinary = defaultPraatBinary
	}
	c.Acoustics.FFmpegBinary = strings.TrimSpace(c.Acoustics.FFmpegBinary)
	if c.Acoustics.FFmpegBinary == "" {
		c.Acoustics.FFmpegBinary = defaultFFmpegBinary
	}
	c.Acoustics.FFprobeBinary = strings.TrimSpace(c.Acoustics.FFprobeBinary)
	if c.Acoustics.FFprobeBinary == "" {
		c.Acoustics.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
