package textgrid

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	ClassInterval = "IntervalTier"
	ClassText     = "TextTier"
)

var (
	// ErrTierNotFound is returned when no tier carries the requested name.
	ErrTierNotFound = errors.New("tier not found")
	// ErrNotIntervalTier is returned when the named tier holds points.
	ErrNotIntervalTier = errors.New("tier is not an interval tier")
)

// ParseError reports a malformed TextGrid.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	where := "textgrid"
	if e.Path != "" {
		where = "textgrid " + e.Path
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", where, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", where, e.Msg)
}

// Interval is a labelled span in seconds.
type Interval struct {
	Label string
	Start float64
	End   float64
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Point is a labelled instant on a TextTier.
type Point struct {
	Time float64
	Mark string
}

// Tier is either an interval tier or a point tier.
type Tier struct {
	Class     string
	Name      string
	Start     float64
	End       float64
	Intervals []Interval
	Points    []Point
}

// IsInterval reports whether the tier holds intervals.
func (t *Tier) IsInterval() bool { return t.Class == ClassInterval }

// Labelled returns the intervals with a non-blank label, in file order.
func (t *Tier) Labelled() []Interval {
	out := make([]Interval, 0, len(t.Intervals))
	for _, iv := range t.Intervals {
		if strings.TrimSpace(iv.Label) == "" {
			continue
		}
		out = append(out, iv)
	}
	return out
}

// TextGrid is an in-memory annotation document.
type TextGrid struct {
	Start float64
	End   float64
	Tiers []Tier
}

// TierNames lists tier names in file order.
func (tg *TextGrid) TierNames() []string {
	names := make([]string, len(tg.Tiers))
	for i := range tg.Tiers {
		names[i] = tg.Tiers[i].Name
	}
	return names
}

// Tier returns the first tier called name.
func (tg *TextGrid) Tier(name string) (*Tier, error) {
	for i := range tg.Tiers {
		if tg.Tiers[i].Name == name {
			return &tg.Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("%q (have %s): %w", name, strings.Join(tg.TierNames(), ", "), ErrTierNotFound)
}

// IntervalTier returns the first tier called name, which must be an
// interval tier.
func (tg *TextGrid) IntervalTier(name string) (*Tier, error) {
	tier, err := tg.Tier(name)
	if err != nil {
		return nil, err
	}
	if !tier.IsInterval() {
		return nil, fmt.Errorf("%q is a %s: %w", name, tier.Class, ErrNotIntervalTier)
	}
	return tier, nil
}

// Read parses the TextGrid stored at path.
func Read(path string) (*TextGrid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open textgrid: %w", err)
	}
	defer file.Close()

	tg, err := Parse(file)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
			return nil, perr
		}
		return nil, fmt.Errorf("read textgrid %s: %w", path, err)
	}
	return tg, nil
}

// IntervalsFor reads path and returns the intervals of the named tier in
// file order. Blank-labelled intervals are dropped unless includeEmpty is set.
func IntervalsFor(path, tierName string, includeEmpty bool) ([]Interval, error) {
	tg, err := Read(path)
	if err != nil {
		return nil, err
	}
	tier, err := tg.IntervalTier(tierName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if includeEmpty {
		return append([]Interval(nil), tier.Intervals...), nil
	}
	return tier.Labelled(), nil
}
