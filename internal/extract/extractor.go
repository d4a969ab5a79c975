package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prosody/internal/acoustics"
	"prosody/internal/audio"
	"prosody/internal/config"
	"prosody/internal/logging"
	"prosody/internal/pron"
	"prosody/internal/table"
	"prosody/internal/textgrid"
)

// AudioLoader reads a recording into memory.
type AudioLoader interface {
	Load(ctx context.Context, path string) (*audio.Sound, error)
}

// Summary describes a finished run.
type Summary struct {
	RunID             string
	StartedAt         time.Time
	Output            string
	Pairs             int
	Processed         int
	Skipped           int
	Failed            int
	Rows              int
	MissingSpeakRates int
	Sentinels         int
	SkippedFiles      []string
	FailedFiles       []string
	Duration          time.Duration
}

// Result is the table produced by a run and its summary.
type Result struct {
	Table   *table.Table
	Summary Summary
}

// Extractor runs the batch: discover pairs, measure every interval, and
// write the feature table.
type Extractor struct {
	cfg      *config.Config
	dict     *pron.Dictionary
	measurer *acoustics.Measurer
	loader   AudioLoader
	logger   *slog.Logger
	now      func() time.Time
}

// New wires an extractor. dict may be nil only when the run is legendre-only.
func New(cfg *config.Config, dict *pron.Dictionary, engine acoustics.Engine, loader AudioLoader, logger *slog.Logger) (*Extractor, error) {
	if cfg == nil || engine == nil || loader == nil {
		return nil, errors.New("extractor requires config, engine, and audio loader")
	}
	if dict == nil && !cfg.Extraction.LegendreOnly {
		return nil, errors.New("a pronunciation dictionary is required unless legendre_only is set")
	}
	return &Extractor{
		cfg:      cfg,
		dict:     dict,
		measurer: acoustics.NewMeasurer(engine, cfg.Extraction.KeepZeros, logger),
		loader:   loader,
		logger:   logging.NewComponentLogger(logger, "extract"),
		now:      time.Now,
	}, nil
}

type fileStats struct {
	missingSpeakRates int
	sentinels         int
}

type fileResult struct {
	rows    []table.Row
	stats   fileStats
	skipped bool
	err     error
}

// Run processes every pair under the data directory and writes the table to
// the configured output path.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	res, err := e.Collect(ctx)
	if err != nil {
		return res, err
	}
	run := table.RunInfo{
		ID:        res.Summary.RunID,
		StartedAt: res.Summary.StartedAt,
		DataDir:   e.cfg.Paths.DataDir,
		Options:   e.cfg.Extraction,
	}
	if err := table.WriteFile(ctx, e.cfg.Paths.OutPath, res.Table, run); err != nil {
		return res, fmt.Errorf("write %s: %w", e.cfg.Paths.OutPath, err)
	}
	res.Summary.Output = e.cfg.Paths.OutPath
	e.logger.Info("feature table written",
		logging.String("path", e.cfg.Paths.OutPath),
		logging.Int("rows", res.Table.Len()),
		logging.String(logging.FieldRunID, res.Summary.RunID),
	)
	return res, nil
}

// Collect processes every pair and returns the table without writing it.
// Rows follow pair order, then interval order, whatever the worker count.
func (e *Extractor) Collect(ctx context.Context) (*Result, error) {
	started := e.now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger)

	pairs, err := Discover(e.cfg.Paths.DataDir, e.cfg.Extraction.AudioExtensions)
	if err != nil {
		return nil, err
	}
	logger.Info("extraction started",
		logging.String("data_dir", e.cfg.Paths.DataDir),
		logging.Int("pairs", len(pairs)),
		logging.String("tier", e.cfg.Extraction.TierName),
		logging.Int("workers", e.cfg.Extraction.Workers),
	)

	results := make([]fileResult, len(pairs))
	var (
		progressMu sync.Mutex
		done       int
	)
	sampler := logging.NewProgressSampler(10)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Extraction.Workers)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := e.processPair(gctx, pair)
			results[i] = result

			progressMu.Lock()
			done++
			if sampler.ShouldLog(done, len(pairs)) {
				logger.Info("extraction progress",
					logging.Int("done", done),
					logging.Int("total", len(pairs)),
				)
			}
			progressMu.Unlock()

			if result.err != nil && !e.cfg.Extraction.ContinueOnError {
				return result.err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tbl := table.New(table.NewSchema(e.cfg.Extraction.LegendreOrder, e.cfg.Extraction.LegendreOnly))
	summary := Summary{RunID: runID, StartedAt: started, Pairs: len(pairs)}
	for i, result := range results {
		switch {
		case result.skipped:
			summary.Skipped++
			summary.SkippedFiles = append(summary.SkippedFiles, pairs[i].TextGrid)
		case result.err != nil:
			summary.Failed++
			summary.FailedFiles = append(summary.FailedFiles, pairs[i].TextGrid)
		default:
			summary.Processed++
			tbl.Append(result.rows...)
		}
		summary.MissingSpeakRates += result.stats.missingSpeakRates
		summary.Sentinels += result.stats.sentinels
	}
	summary.Rows = tbl.Len()
	summary.Duration = e.now().Sub(started)

	logger.Info("extraction finished",
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("rows", summary.Rows),
		logging.Int("missing_speak_rates", summary.MissingSpeakRates),
		logging.Int("sentinels", summary.Sentinels),
		logging.Duration("duration", summary.Duration),
	)
	return &Result{Table: tbl, Summary: summary}, nil
}

func (e *Extractor) processPair(ctx context.Context, pair Pair) fileResult {
	ctx = logging.WithFile(ctx, pair.Name)
	logger := logging.WithContext(ctx, e.logger)

	if pair.Missing {
		logging.WarnWithContext(logger, "no recording next to annotation", "audio_missing",
			logging.String("textgrid", pair.TextGrid),
			logging.String(logging.FieldErrorHint, "add a recording with one of the configured audio_extensions"),
			logging.String(logging.FieldImpact, "file skipped"),
		)
		return fileResult{skipped: true}
	}

	intervals, err := textgrid.IntervalsFor(pair.TextGrid, e.cfg.Extraction.TierName, e.cfg.Extraction.IncludeEmptyIntervals)
	if err != nil {
		return e.fail(logger, &FileError{Path: pair.TextGrid, Op: "read annotation", Err: err})
	}
	snd, err := e.loader.Load(ctx, pair.Audio)
	if err != nil {
		if ctx.Err() != nil {
			return fileResult{err: ctx.Err()}
		}
		return e.fail(logger, &FileError{Path: pair.Audio, Op: "load audio", Err: err})
	}
	logger.Debug("pair loaded",
		logging.Int("intervals", len(intervals)),
		logging.Float64("audio_seconds", snd.Duration()),
		logging.Int("sample_rate", snd.SampleRate),
	)

	words := make([]wordMeasurement, 0, len(intervals))
	for _, iv := range intervals {
		if err := ctx.Err(); err != nil {
			return fileResult{err: err}
		}
		m, err := e.measurer.Measure(ctx, snd, iv.Start, iv.End)
		if err != nil {
			if ctx.Err() != nil {
				return fileResult{err: ctx.Err()}
			}
			return e.fail(logger, &FileError{Path: pair.Audio, Op: "measure " + iv.Label, Err: err})
		}
		if m.Substituted() {
			logger.Debug("contour replaced by sentinel",
				logging.String(logging.FieldWord, iv.Label),
				logging.String("pitch_fallback", m.PitchFallback.String()),
				logging.String("intensity_fallback", m.IntensityFallback.String()),
			)
		}
		words = append(words, wordMeasurement{interval: iv, measurement: m})
	}

	if e.cfg.SpeakerNormalization() {
		if err := normalizeSpeaker(words, e.cfg.Extraction.ReferenceF0); err != nil {
			return e.fail(logger, &FileError{Path: pair.Audio, Op: "normalize", Err: err})
		}
	}

	builder := rowBuilder{
		order:        e.cfg.Extraction.LegendreOrder,
		legendreOnly: e.cfg.Extraction.LegendreOnly,
		dict:         e.dict,
		logger:       logger,
	}
	var stats fileStats
	rows := make([]table.Row, 0, len(words))
	for _, w := range words {
		rows = append(rows, builder.build(pair.Name, w, &stats))
	}
	logger.Debug("pair processed", logging.Int("rows", len(rows)))
	return fileResult{rows: rows, stats: stats}
}

func (e *Extractor) fail(logger *slog.Logger, err *FileError) fileResult {
	if e.cfg.Extraction.ContinueOnError {
		logging.WarnWithContext(logger, "file skipped after error", "file_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no rows for this file"),
		)
	}
	return fileResult{err: err}
}
