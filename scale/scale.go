// Package scale maps data values of one field onto a pixel range.
package scale

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"

	"github.com/angas/riskplot-go/convert"
	"github.com/angas/riskplot-go/types"
)

// Interval is a closed real interval. Min may be larger than Max, which is
// how inverted (e.g. vertical pixel) ranges are expressed.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (i Interval) Mid() float64 {
	return i.Min + (i.Max-i.Min)/2
}

// Config holds the per axis parameters of a scale.
type Config struct {
	PadLow    float64 // Factor applied to the smallest data value
	PadHigh   float64 // Factor applied to the largest data value
	RangeLow  float64 // Pixel position of the domain min
	RangeHigh float64 // Pixel position of the domain max
}

// Linear is a linear mapping from a padded data domain to a pixel range.
// It is a plain value: building a new scale never changes an existing one.
type Linear struct {
	Field  types.Field `json:"field"`
	Domain Interval    `json:"domain"`
	Range  Interval    `json:"range"`
}

// EmptyDatasetError is returned when a scale is requested over zero records.
type EmptyDatasetError struct {
	Field types.Field
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("cannot build scale for %s: dataset is empty", e.Field)
}

// MissingFieldError is returned when a record has no usable value for the
// field of the scale.
type MissingFieldError struct {
	Field types.Field
	Index int
	State string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("cannot build scale for %s: record %d (%s) has no value", e.Field, e.Index, e.State)
}

// Build computes the scale of field over ds:
// [min*PadLow, max*PadHigh] -> [RangeLow, RangeHigh].
func Build(ds types.Dataset, field types.Field, cfg Config) (Linear, error) {
	if ds.Len() == 0 {
		return Linear{}, &EmptyDatasetError{Field: field}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, r := range ds {
		v, ok := r.Value(field)
		if !ok {
			return Linear{}, &MissingFieldError{Field: field, Index: i, State: r.State}
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	return Linear{
		Field:  field,
		Domain: Interval{Min: lo * cfg.PadLow, Max: hi * cfg.PadHigh},
		Range:  Interval{Min: cfg.RangeLow, Max: cfg.RangeHigh},
	}, nil
}

// Map maps the data value x to its pixel position. Values outside the domain
// are extrapolated. A degenerate domain maps everything to the middle of the
// range.
func (s Linear) Map(x float64) float64 {
	width := s.Domain.Max - s.Domain.Min
	if width == 0 {
		return s.Range.Mid()
	}
	return s.Range.Min + (s.Range.Max-s.Range.Min)*(x-s.Domain.Min)/width
}

type Tick struct {
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
	Position float64 `json:"position"`
}

// Ticks returns the major ticks within the domain together with their pixel
// positions. Labels are formatted like the field's values.
func (s Linear) Ticks() []Tick {
	lo, hi := math.Min(s.Domain.Min, s.Domain.Max), math.Max(s.Domain.Min, s.Domain.Max)
	if lo == hi {
		return []Tick{{Value: lo, Label: s.Field.Format(lo), Position: s.Map(lo)}}
	}

	var ticks []Tick
	for _, t := range (plot.DefaultTicks{}).Ticks(lo, hi) {
		if t.IsMinor() || t.Value < lo || t.Value > hi {
			continue
		}
		// Drop float noise of the tick step, e.g. 0.30000000000000004.
		v := convert.RoundFloat64(t.Value, 9)
		ticks = append(ticks, Tick{Value: v, Label: s.Field.Format(v), Position: s.Map(v)})
	}
	return ticks
}

// Lerp returns the position a fraction t of the way from a to b; t is
// clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return a + (b-a)*t
}
