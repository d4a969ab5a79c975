package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prosody/internal/config"
	"prosody/internal/fileutil"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Create a sample configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if len(args) == 1 {
				target = strings.TrimSpace(args[0])
			}
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite && fileutil.Exists(target) {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.data_dir and paths.out_path (or pass --data_dir/--out_path) before running prosody.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asTOML {
				data, err := cfg.Encode()
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			source := ctx.configPath
			if !ctx.configSeen {
				source = "defaults (no config file found)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)
			fmt.Fprintln(out, renderSettings(configSettings(cfg)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asTOML, "toml", false, "Print as TOML instead of a table")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(cmd); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func configSettings(cfg *config.Config) []settingGroup {
	orUnset := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "(unset)"
		}
		return v
	}
	formatFloat := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	return []settingGroup{
		{name: "paths", settings: [][2]string{
			{"data_dir", orUnset(cfg.Paths.DataDir)},
			{"out_path", orUnset(cfg.Paths.OutPath)},
			{"dictionary", orUnset(cfg.Paths.Dictionary)},
			{"log_dir", orUnset(cfg.Paths.LogDir)},
		}},
		{name: "extraction", settings: [][2]string{
			{"tier_name", cfg.Extraction.TierName},
			{"legendre_order", strconv.Itoa(cfg.Extraction.LegendreOrder)},
			{"keep_zeros", yesNo(cfg.Extraction.KeepZeros)},
			{"legendre_only", yesNo(cfg.Extraction.LegendreOnly)},
			{"include_empty_intervals", yesNo(cfg.Extraction.IncludeEmptyIntervals)},
			{"audio_extensions", strings.Join(cfg.Extraction.AudioExtensions, ", ")},
			{"workers", strconv.Itoa(cfg.Extraction.Workers)},
			{"continue_on_error", yesNo(cfg.Extraction.ContinueOnError)},
			{"normalization", cfg.Extraction.Normalization},
			{"reference_f0", formatFloat(cfg.Extraction.ReferenceF0)},
		}},
		{name: "acoustics", settings: [][2]string{
			{"engine", cfg.Acoustics.Engine},
			{"praat_binary", cfg.PraatBinary()},
			{"ffmpeg_binary", cfg.FFmpegBinary()},
			{"ffprobe_binary", cfg.FFprobeBinary()},
			{"pitch_floor", formatFloat(cfg.Acoustics.PitchFloor)},
			{"pitch_ceiling", formatFloat(cfg.Acoustics.PitchCeiling)},
			{"intensity_min_pitch", formatFloat(cfg.Acoustics.IntensityMinPitch)},
		}},
		{name: "logging", settings: [][2]string{
			{"format", cfg.Logging.Format},
			{"level", cfg.Logging.Level},
		}},
	}
}
