package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prosody/internal/acoustics"
	"prosody/internal/audio"
	"prosody/internal/deps"
	"prosody/internal/extract"
	"prosody/internal/logging"
	"prosody/internal/pron"
)

func runExtraction(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	if missing := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Detail))
		}
		return fmt.Errorf("missing required tools: %s (run `prosody deps`)", strings.Join(names, ", "))
	}

	var dict *pron.Dictionary
	if !cfg.Extraction.LegendreOnly {
		dict, err = pron.Load(cfg.Paths.Dictionary)
		if err != nil {
			return fmt.Errorf("load dictionary: %w", err)
		}
		logger.Info("pronunciation dictionary loaded",
			logging.String("path", cfg.Paths.Dictionary),
			logging.Int("words", dict.Len()),
		)
	}

	engine, err := acoustics.New(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := engine.(io.Closer); ok {
		defer closer.Close()
	}

	loader := audio.NewLoader(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
	extractor, err := extract.New(cfg, dict, engine, loader, logger)
	if err != nil {
		return err
	}

	res, err := extractor.Run(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), res.Summary)
	return nil
}

func printSummary(out io.Writer, s extract.Summary) {
	rows := [][]string{
		{"Run ID", s.RunID},
		{"Output", s.Output},
		{"Pairs found", strconv.Itoa(s.Pairs)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Skipped (no audio)", strconv.Itoa(s.Skipped)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Rows written", strconv.Itoa(s.Rows)},
		{"Missing speak rates", strconv.Itoa(s.MissingSpeakRates)},
		{"Sentinel contours", strconv.Itoa(s.Sentinels)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(s.SkippedFiles) > 0 || len(s.FailedFiles) > 0 {
		fileRows := make([][]string, 0, len(s.SkippedFiles)+len(s.FailedFiles))
		for _, f := range s.SkippedFiles {
			fileRows = append(fileRows, []string{f, "skipped"})
		}
		for _, f := range s.FailedFiles {
			fileRows = append(fileRows, []string{f, "failed"})
		}
		fmt.Fprintln(out, renderTable([]string{"TextGrid", "Outcome"}, fileRows, nil))
	}
}
