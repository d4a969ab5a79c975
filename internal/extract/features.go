package extract

import (
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"prosody/internal/acoustics"
	"prosody/internal/logging"
	"prosody/internal/pron"
	"prosody/internal/prosody"
	"prosody/internal/table"
	"prosody/internal/textgrid"
)

// wordMeasurement is one interval's contours before row assembly.
type wordMeasurement struct {
	interval    textgrid.Interval
	measurement acoustics.Measurement
}

// rowBuilder turns measurements into table rows.
type rowBuilder struct {
	order        int
	legendreOnly bool
	dict         *pron.Dictionary
	logger       *slog.Logger
}

func (b rowBuilder) build(name string, w wordMeasurement, stats *fileStats) table.Row {
	m := w.measurement
	row := table.NaNRow(name, w.interval.Label, b.order)
	if coeffs, err := prosody.Legendre(m.Pitch, b.order); err == nil {
		row.PitchLegendre = coeffs
	}
	if coeffs, err := prosody.Legendre(m.Intensity, b.order); err == nil {
		row.IntensityLegendre = coeffs
	}
	if m.Substituted() {
		stats.sentinels++
	}
	if b.legendreOnly {
		return row
	}

	row.MeanPitch, _ = prosody.Mean(m.Pitch)
	row.PitchRange, _ = prosody.Range(m.Pitch)
	row.PitchSD, _ = prosody.StdDev(m.Pitch)
	row.MeanIntensity, _ = prosody.Mean(m.Intensity)
	row.IntensityRange, _ = prosody.Range(m.Intensity)

	rate, err := b.dict.SpeakingRate(w.interval.Label, w.interval.Start, w.interval.End)
	if err != nil {
		stats.missingSpeakRates++
		eventType := "speak_rate_unavailable"
		hint := "check the word and interval bounds"
		switch {
		case errors.Is(err, pron.ErrWordNotFound):
			eventType = "word_not_in_dictionary"
			hint = "add the word to the pronunciation dictionary"
		case errors.Is(err, pron.ErrZeroDuration):
			eventType = "zero_duration_interval"
			hint = "fix the interval bounds in the TextGrid"
		}
		logging.WarnWithContext(b.logger, "speaking rate unavailable", eventType,
			logging.String(logging.FieldWord, w.interval.Label),
			logging.Float64("start", w.interval.Start),
			logging.Float64("end", w.interval.End),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "speak_rate recorded as missing"),
		)
		row.SpeakRate = math.NaN()
	} else {
		row.SpeakRate = rate
	}
	return row
}

// normalizeSpeaker converts a file's pitch contours to semitones relative to
// refF0 (the file's mean voiced F0 when refF0 is 0) and z-scores its
// intensity contours against their pooled mean and population spread.
// Sentinel contours are left alone.
func normalizeSpeaker(words []wordMeasurement, refF0 float64) error {
	if refF0 == 0 {
		refF0 = pooledMean(words, func(m acoustics.Measurement) ([]float64, bool) {
			return m.Pitch, m.PitchFallback == acoustics.FallbackNone
		})
	}
	if refF0 > 0 {
		for i := range words {
			m := &words[i].measurement
			if m.PitchFallback != acoustics.FallbackNone {
				continue
			}
			semitones, err := prosody.HzToSemitones(m.Pitch, refF0)
			if err != nil {
				return err
			}
			m.Pitch = semitones
		}
	}

	var pooled []float64
	for _, w := range words {
		if w.measurement.IntensityFallback != acoustics.FallbackNone {
			continue
		}
		for _, v := range w.measurement.Intensity {
			if !math.IsNaN(v) {
				pooled = append(pooled, v)
			}
		}
	}
	if len(pooled) < 2 {
		return nil
	}
	mean, variance := stat.PopMeanVariance(pooled, nil)
	sd := math.Sqrt(variance)
	for i := range words {
		m := &words[i].measurement
		if m.IntensityFallback != acoustics.FallbackNone {
			continue
		}
		m.Intensity = prosody.Standardize(m.Intensity, mean, sd)
	}
	return nil
}

func pooledMean(words []wordMeasurement, pick func(acoustics.Measurement) ([]float64, bool)) float64 {
	var values []float64
	for _, w := range words {
		contour, ok := pick(w.measurement)
		if !ok {
			continue
		}
		for _, v := range contour {
			if v > 0 && !math.IsNaN(v) {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
