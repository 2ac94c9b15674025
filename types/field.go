package types

import (
	"fmt"
	"strings"
)

type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

func (a Axis) String() string {
	return string(a)
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return "", fmt.Errorf("unknown axis %q", s)
}

// Field is one numeric column of the survey data set.
type Field string

const (
	FieldPoverty    Field = "poverty"
	FieldAge        Field = "age"
	FieldIncome     Field = "income"
	FieldHealthcare Field = "healthcare"
	FieldSmokes     Field = "smokes"
	FieldObesity    Field = "obesity"
)

// XFields and YFields are the fields selectable per axis, in label order.
var (
	XFields = []Field{FieldPoverty, FieldAge, FieldIncome}
	YFields = []Field{FieldHealthcare, FieldSmokes, FieldObesity}
)

// AllFields returns the X fields followed by the Y fields.
func AllFields() []Field {
	all := make([]Field, 0, len(XFields)+len(YFields))
	all = append(all, XFields...)
	return append(all, YFields...)
}

type FieldInfo struct {
	Axis   Axis
	Title  string // Axis label text
	Short  string // Name used in tooltips
	Prefix string
	Suffix string
	Digits int
}

var fieldInfo = map[Field]FieldInfo{
	FieldPoverty:    {Axis: AxisX, Title: "In Poverty (%)", Short: "Poverty", Suffix: "%", Digits: 1},
	FieldAge:        {Axis: AxisX, Title: "Age (Median)", Short: "Age", Digits: 1},
	FieldIncome:     {Axis: AxisX, Title: "Household Income (Median)", Short: "Income", Prefix: "$", Digits: 0},
	FieldHealthcare: {Axis: AxisY, Title: "Lacks Healthcare (%)", Short: "Healthcare", Suffix: "%", Digits: 1},
	FieldSmokes:     {Axis: AxisY, Title: "Smokes (%)", Short: "Smokes", Suffix: "%", Digits: 1},
	FieldObesity:    {Axis: AxisY, Title: "Obese (%)", Short: "Obesity", Suffix: "%", Digits: 1},
}

func (f Field) String() string {
	return string(f)
}

// Info returns the display information of f. Unknown fields yield the zero value.
func (f Field) Info() FieldInfo {
	return fieldInfo[f]
}

// FieldsFor returns the selectable fields of axis a.
func FieldsFor(a Axis) []Field {
	switch a {
	case AxisX:
		return XFields
	case AxisY:
		return YFields
	}
	return nil
}

// OnAxis reports whether f is selectable on axis a.
func (f Field) OnAxis(a Axis) bool {
	info, ok := fieldInfo[f]
	return ok && info.Axis == a
}

// Format renders v with the prefix, suffix and precision of f.
func (f Field) Format(v float64) string {
	info := f.Info()
	return fmt.Sprintf("%s%.*f%s", info.Prefix, info.Digits, v, info.Suffix)
}
