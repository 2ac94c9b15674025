package render

import (
	"fmt"
	"strings"

	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

// TitleMode selects what identifies a state in its tooltip.
type TitleMode string

const (
	TitleAbbr TitleMode = "abbr"
	TitleName TitleMode = "name"
)

func ParseTitleMode(s string) (TitleMode, error) {
	switch TitleMode(strings.ToLower(s)) {
	case TitleAbbr:
		return TitleAbbr, nil
	case TitleName:
		return TitleName, nil
	}
	return "", fmt.Errorf("unknown tooltip title mode %q", s)
}

// LabelPair holds the tooltip captions for the X and Y value.
type LabelPair struct {
	X string
	Y string
}

type fieldPair struct {
	x, y types.Field
}

var tooltipLabels = map[fieldPair]LabelPair{
	{types.FieldPoverty, types.FieldHealthcare}: {"In Poverty", "Lacks Healthcare"},
	{types.FieldPoverty, types.FieldSmokes}:     {"In Poverty", "Smokers"},
	{types.FieldPoverty, types.FieldObesity}:    {"In Poverty", "Obese"},
	{types.FieldAge, types.FieldHealthcare}:     {"Median Age", "Lacks Healthcare"},
	{types.FieldAge, types.FieldSmokes}:         {"Median Age", "Smokers"},
	{types.FieldAge, types.FieldObesity}:        {"Median Age", "Obese"},
	{types.FieldIncome, types.FieldHealthcare}:  {"Median Income", "Lacks Healthcare"},
	{types.FieldIncome, types.FieldSmokes}:      {"Median Income", "Smokers"},
	{types.FieldIncome, types.FieldObesity}:     {"Median Income", "Obese"},
}

// TooltipLabels returns the caption pair for the given selection.
func TooltipLabels(x, y types.Field) (LabelPair, bool) {
	p, ok := tooltipLabels[fieldPair{x, y}]
	return p, ok
}

func tooltips(ds types.Dataset, sel selection.State, mode TitleMode) BindTooltips {
	labels, ok := TooltipLabels(sel.X(), sel.Y())
	if !ok {
		labels = LabelPair{X: sel.X().Info().Short, Y: sel.Y().Info().Short}
	}

	tips := make([]Tooltip, len(ds))
	for i, r := range ds {
		title := r.Abbr
		if mode == TitleName {
			title = r.State
		}
		xv, _ := r.Value(sel.X())
		yv, _ := r.Value(sel.Y())
		tips[i] = Tooltip{
			Index: i,
			Label: r.Abbr,
			Title: title,
			Lines: []string{
				fmt.Sprintf("%s: %s", labels.X, sel.X().Format(xv)),
				fmt.Sprintf("%s: %s", labels.Y, sel.Y().Format(yv)),
			},
		}
	}

	return BindTooltips{X: sel.X(), Y: sel.Y(), Tooltips: tips}
}

// LabelStyles derives the style of all six labels from the selection:
// the selected field of each axis is active, every other label inactive.
func LabelStyles(sel selection.State) StyleLabels {
	fields := types.AllFields()
	labels := make([]LabelStyle, len(fields))
	for i, f := range fields {
		info := f.Info()
		labels[i] = LabelStyle{
			Axis:   info.Axis,
			Field:  f,
			Title:  info.Title,
			Active: sel.Active(f),
		}
	}
	return StyleLabels{Labels: labels}
}
