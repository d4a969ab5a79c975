package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"prosody/internal/config"
)

type commandContext struct {
	configFlag *string
	run        *runFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string, run *runFlags) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		run:        run,
	}
}

// ensureConfig reads the configuration once, overlays the flags the user set
// on cmd, then normalizes and validates the result.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Read(path)
		if err != nil {
			c.configErr = err
			return
		}
		if cmd != nil && c.run != nil {
			c.run.apply(cfg, cmd.Flags())
		}
		if err := cfg.Finalize(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// runFlags mirrors the extraction settings that can be given on the command line.
type runFlags struct {
	dataDir         string
	outPath         string
	tierName        string
	dictionary      string
	engine          string
	legendreOrder   int
	workers         int
	keepZeros       bool
	noKeepZeros     bool
	legendreOnly    bool
	noLegendreOnly  bool
	continueOnError bool
	logLevel        string
	logFormat       string
}

func (f *runFlags) register(run, persistent *pflag.FlagSet) {
	run.StringVar(&f.dataDir, "data_dir", "", "Directory scanned for TextGrid/audio pairs")
	run.StringVar(&f.outPath, "out_path", "", "Output table (.csv, or .db/.sqlite for SQLite)")
	run.StringVar(&f.tierName, "tier_name", "words", "TextGrid tier holding the words")
	run.IntVar(&f.legendreOrder, "legendre_order", 3, "Legendre coefficients per contour")
	run.BoolVar(&f.keepZeros, "keep_zeros", true, "Keep unvoiced (zero) pitch frames")
	run.BoolVar(&f.noKeepZeros, "no-keep_zeros", false, "Drop unvoiced (zero) pitch frames")
	run.BoolVar(&f.legendreOnly, "legendre_only", true, "Only write Legendre coefficients")
	run.BoolVar(&f.noLegendreOnly, "no-legendre_only", false, "Also write summary statistics and speaking rate")
	run.StringVar(&f.dictionary, "dict", "", "CMUdict pronunciation dictionary (needed unless legendre_only)")
	run.StringVar(&f.engine, "engine", "", "Acoustic engine: native or praat")
	run.IntVar(&f.workers, "workers", 0, "Pairs processed concurrently")
	run.BoolVar(&f.continueOnError, "continue_on_error", false, "Skip files that fail instead of aborting")
	_ = run.MarkHidden("no-keep_zeros")
	_ = run.MarkHidden("no-legendre_only")

	persistent.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	persistent.StringVar(&f.logFormat, "log-format", "", "Log format (console or json)")
}

// apply copies every flag the user changed into cfg.
func (f *runFlags) apply(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("data_dir") {
		cfg.Paths.DataDir = f.dataDir
	}
	if flags.Changed("out_path") {
		cfg.Paths.OutPath = f.outPath
	}
	if flags.Changed("tier_name") {
		cfg.Extraction.TierName = f.tierName
	}
	if flags.Changed("legendre_order") {
		cfg.Extraction.LegendreOrder = f.legendreOrder
	}
	if flags.Changed("keep_zeros") {
		cfg.Extraction.KeepZeros = f.keepZeros
	}
	if flags.Changed("no-keep_zeros") && f.noKeepZeros {
		cfg.Extraction.KeepZeros = false
	}
	if flags.Changed("legendre_only") {
		cfg.Extraction.LegendreOnly = f.legendreOnly
	}
	if flags.Changed("no-legendre_only") && f.noLegendreOnly {
		cfg.Extraction.LegendreOnly = false
	}
	if flags.Changed("dict") {
		cfg.Paths.Dictionary = f.dictionary
	}
	if flags.Changed("engine") {
		cfg.Acoustics.Engine = f.engine
	}
	if flags.Changed("workers") {
		cfg.Extraction.Workers = f.workers
	}
	if flags.Changed("continue_on_error") {
		cfg.Extraction.ContinueOnError = f.continueOnError
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
