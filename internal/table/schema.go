package table

import (
	"fmt"
	"math"
)

// Summary statistic columns, in output order.
const (
	ColumnMeanPitch      = "mean_pitch"
	ColumnPitchRange     = "pitch_range"
	ColumnPitchSD        = "pitch_sd"
	ColumnMeanIntensity  = "mean_intensity"
	ColumnIntensityRange = "intensity_range"
	ColumnSpeakRate      = "speak_rate"

	ColumnFilename = "filename"
	ColumnWord     = "word"
)

// Schema describes the value columns of a feature table.
type Schema struct {
	LegendreOrder int
	LegendreOnly  bool
}

// NewSchema returns the schema for order coefficients per contour.
func NewSchema(order int, legendreOnly bool) Schema {
	return Schema{LegendreOrder: order, LegendreOnly: legendreOnly}
}

// Columns returns every column name in output order, starting with filename
// and word.
func (s Schema) Columns() []string {
	cols := []string{ColumnFilename, ColumnWord}
	return append(cols, s.ValueColumns()...)
}

// ValueColumns returns the numeric column names in output order.
func (s Schema) ValueColumns() []string {
	cols := make([]string, 0, 2*s.LegendreOrder+6)
	for k := 0; k < s.LegendreOrder; k++ {
		cols = append(cols, fmt.Sprintf("f0_legendre_%d", k))
	}
	for k := 0; k < s.LegendreOrder; k++ {
		cols = append(cols, fmt.Sprintf("intensity_legendre_%d", k))
	}
	if !s.LegendreOnly {
		cols = append(cols,
			ColumnMeanPitch,
			ColumnPitchRange,
			ColumnPitchSD,
			ColumnMeanIntensity,
			ColumnIntensityRange,
			ColumnSpeakRate,
		)
	}
	return cols
}

// Row is one word's features. Missing values are NaN.
type Row struct {
	Filename          string
	Word              string
	PitchLegendre     []float64
	IntensityLegendre []float64

	MeanPitch      float64
	PitchRange     float64
	PitchSD        float64
	MeanIntensity  float64
	IntensityRange float64
	SpeakRate      float64
}

// NaNRow returns a row whose numeric fields are all NaN.
func NaNRow(filename, word string, order int) Row {
	nan := math.NaN()
	return Row{
		Filename:          filename,
		Word:              word,
		PitchLegendre:     nanSlice(order),
		IntensityLegendre: nanSlice(order),
		MeanPitch:         nan,
		PitchRange:        nan,
		PitchSD:           nan,
		MeanIntensity:     nan,
		IntensityRange:    nan,
		SpeakRate:         nan,
	}
}

// Values returns r's numeric fields in ValueColumns order. Coefficient slices
// shorter than the schema's order are padded with NaN.
func (s Schema) Values(r Row) []float64 {
	out := make([]float64, 0, 2*s.LegendreOrder+6)
	out = appendPadded(out, r.PitchLegendre, s.LegendreOrder)
	out = appendPadded(out, r.IntensityLegendre, s.LegendreOrder)
	if !s.LegendreOnly {
		out = append(out, r.MeanPitch, r.PitchRange, r.PitchSD, r.MeanIntensity, r.IntensityRange, r.SpeakRate)
	}
	return out
}

func appendPadded(dst, values []float64, n int) []float64 {
	for k := 0; k < n; k++ {
		if k < len(values) {
			dst = append(dst, values[k])
		} else {
			dst = append(dst, math.NaN())
		}
	}
	return dst
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Table is the ordered result of a run.
type Table struct {
	Schema Schema
	Rows   []Row
}

// New returns an empty table for schema.
func New(schema Schema) *Table {
	return &Table{Schema: schema}
}

// Append adds rows in order.
func (t *Table) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
