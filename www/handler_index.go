package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/riskplot-go/config"
	"github.com/angas/riskplot-go/types"
)

type AxisLabel struct {
	Axis   types.Axis
	Field  types.Field
	Title  string
	Active bool
	Offset float64 // Position across the axis, relative to the axis line
}

type IndexData struct {
	Width       float64
	Height      float64
	Margin      config.AppConfigMargin
	InnerWidth  float64
	InnerHeight float64
	HalfWidth   float64
	HalfHeight  float64
	XLabels     []AxisLabel
	YLabels     []AxisLabel
}

// axisLabels stacks the labels of axis a 20px apart. X labels sit below
// the axis, Y labels left of it inside the margin.
func axisLabels(a types.Axis, active types.Field, margin config.AppConfigMargin) []AxisLabel {
	fields := types.FieldsFor(a)
	labels := make([]AxisLabel, len(fields))
	for i, f := range fields {
		labels[i] = AxisLabel{
			Axis:   a,
			Field:  f,
			Title:  f.Info().Title,
			Active: f == active,
			Offset: labelOffset(a, i, margin),
		}
	}
	return labels
}

func labelOffset(a types.Axis, i int, margin config.AppConfigMargin) float64 {
	step := float64(20 * (i + 1))
	if a == types.AxisY {
		return -margin.Left + step
	}
	return 20 + step
}

func NewIndexHandler(logger *slog.Logger, tm *TemplateManager, chart config.AppConfigChart) http.HandlerFunc {
	data := IndexData{
		Width:       chart.GetWidth(),
		Height:      chart.GetHeight(),
		Margin:      chart.GetMargin(),
		InnerWidth:  chart.InnerWidth(),
		InnerHeight: chart.InnerHeight(),
		HalfWidth:   chart.InnerWidth() / 2,
		HalfHeight:  chart.InnerHeight() / 2,
		XLabels:     axisLabels(types.AxisX, chart.GetInitialX(), chart.GetMargin()),
		YLabels:     axisLabels(types.AxisY, chart.GetInitialY(), chart.GetMargin()),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("index.html", data, w); err != nil {
			logger.Error("handling index request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
