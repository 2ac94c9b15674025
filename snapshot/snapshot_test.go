package snapshot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

var ds = types.Dataset{
	{State: "Alabama", Abbr: "AL", Poverty: 19.3, Age: 38.6, Income: 42830, Healthcare: 13.9, Smokes: 21.1, Obesity: 33.5},
	{State: "Alaska", Abbr: "AK", Poverty: 11.2, Age: 33.3, Income: 71583, Healthcare: 15, Smokes: 19.9, Obesity: 29.7},
}

func options(format string) Options {
	return Options{
		Width:  6 * vg.Inch,
		Height: 4 * vg.Inch,
		Format: format,
		X:      scale.Config{PadLow: 0.9, PadHigh: 1.1, RangeLow: 0, RangeHigh: 850},
		Y:      scale.Config{PadLow: 0.9, PadHigh: 1.1, RangeLow: 600, RangeHigh: 0},
	}
}

func TestNewUsesChartDomains(t *testing.T) {
	sel, err := selection.New(types.FieldIncome, types.FieldObesity)
	require.NoError(t, err)

	p, err := New(ds, sel, options("svg"))
	require.NoError(t, err)

	xs, _ := scale.Build(ds, types.FieldIncome, options("svg").X)
	assert.Equal(t, xs.Domain.Min, p.X.Min)
	assert.Equal(t, xs.Domain.Max, p.X.Max)
	assert.Equal(t, "Household Income (Median)", p.X.Label.Text)
	assert.Equal(t, "Obese (%)", p.Y.Label.Text)
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds, selection.Default(), options("")))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "AL")
	assert.Contains(t, out, "AK")
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds, selection.Default(), options("PNG")))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name string
		ds   types.Dataset
		opts Options
	}{
		{"format", ds, options("gif")},
		{"size", ds, Options{Format: "svg"}},
		{"empty", types.Dataset{}, options("svg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, Write(&buf, tt.ds, selection.Default(), tt.opts))
			assert.Zero(t, buf.Len())
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/svg+xml", ContentType("svg"))
	assert.Equal(t, "image/png", ContentType("png"))
	assert.Equal(t, "application/pdf", ContentType("pdf"))
}

func TestFieldTicker(t *testing.T) {
	ticks := fieldTicker{types.FieldIncome}.Ticks(40000, 80000)
	require.NotEmpty(t, ticks)
	for _, tk := range ticks {
		if tk.Label != "" {
			assert.Equal(t, "$", tk.Label[:1])
		}
	}
}

func TestTickLabelsMatchLiveAxis(t *testing.T) {
	for _, f := range []types.Field{types.FieldIncome, types.FieldAge, types.FieldObesity} {
		cfg := options("svg").X
		if f.Info().Axis == types.AxisY {
			cfg = options("svg").Y
		}
		s, err := scale.Build(ds, f, cfg)
		require.NoError(t, err)

		var plotted []string
		for _, tk := range (fieldTicker{f}).Ticks(s.Domain.Min, s.Domain.Max) {
			if tk.Label != "" {
				plotted = append(plotted, tk.Label)
			}
		}
		for _, tick := range s.Ticks() {
			assert.Contains(t, plotted, tick.Label, f)
		}
	}
}
