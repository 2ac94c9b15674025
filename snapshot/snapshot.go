// Package snapshot renders a static image of the scatter plot for a
// selection, using the same scales as the interactive chart.
package snapshot

import (
	"fmt"
	"image/color"
	"io"
	"slices"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

var (
	pointColor = color.RGBA{R: 137, G: 189, B: 211, A: 255}
	labelColor = color.White
)

// Formats lists the image formats Write accepts.
var Formats = []string{"svg", "png", "pdf"}

type Options struct {
	Width  vg.Length
	Height vg.Length
	Format string
	X, Y   scale.Config
	Title  string
}

// fieldTicker labels the default gonum ticks the way the field is formatted.
type fieldTicker struct {
	field types.Field
}

func (t fieldTicker) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = t.field.Format(ticks[i].Value)
		}
	}
	return ticks
}

// New builds the plot of ds for sel.
func New(ds types.Dataset, sel selection.State, opts Options) (*plot.Plot, error) {
	xs, err := scale.Build(ds, sel.X(), opts.X)
	if err != nil {
		return nil, err
	}
	ys, err := scale.Build(ds, sel.Y(), opts.Y)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = sel.X().Info().Title
	p.Y.Label.Text = sel.Y().Info().Title
	p.X.Min, p.X.Max = xs.Domain.Min, xs.Domain.Max
	p.Y.Min, p.Y.Max = ys.Domain.Min, ys.Domain.Max
	p.X.Tick.Marker = fieldTicker{sel.X()}
	p.Y.Tick.Marker = fieldTicker{sel.Y()}

	xy := make(plotter.XYs, len(ds))
	abbrs := make([]string, len(ds))
	for i, r := range ds {
		xy[i].X, _ = r.Value(sel.X())
		xy[i].Y, _ = r.Value(sel.Y())
		abbrs[i] = r.Abbr
	}

	sc, err := plotter.NewScatter(xy)
	if err != nil {
		return nil, fmt.Errorf("creating scatter: %w", err)
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(8)
	sc.GlyphStyle.Color = pointColor
	p.Add(sc)

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xy, Labels: abbrs})
	if err != nil {
		return nil, fmt.Errorf("creating labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(7)
		labels.TextStyle[i].Color = labelColor
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(labels)

	return p, nil
}

// Write renders ds for sel to w in opts.Format.
func Write(w io.Writer, ds types.Dataset, sel selection.State, opts Options) error {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "svg"
	}
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("unsupported snapshot format %q", opts.Format)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid snapshot size %vx%v", opts.Width, opts.Height)
	}

	p, err := New(ds, sel, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}
	return nil
}

// ContentType returns the MIME type of a snapshot format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	}
	return "image/svg+xml"
}
