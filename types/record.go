package types

import "math"

// Record is one state's row of the survey data set.
type Record struct {
	State      string  `json:"state"`
	Abbr       string  `json:"abbr"`
	Poverty    float64 `json:"poverty"`
	Age        float64 `json:"age"`
	Income     float64 `json:"income"`
	Healthcare float64 `json:"healthcare"`
	Smokes     float64 `json:"smokes"`
	Obesity    float64 `json:"obesity"`
}

// Value returns the value of field f. The bool is false for unknown fields
// and for values that are not finite numbers.
func (r Record) Value(f Field) (float64, bool) {
	var v float64
	switch f {
	case FieldPoverty:
		v = r.Poverty
	case FieldAge:
		v = r.Age
	case FieldIncome:
		v = r.Income
	case FieldHealthcare:
		v = r.Healthcare
	case FieldSmokes:
		v = r.Smokes
	case FieldObesity:
		v = r.Obesity
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, false
	}
	return v, true
}

// Dataset is the fixed-order, read-only sequence of records of one load.
type Dataset []Record

func (d Dataset) Len() int {
	return len(d)
}
