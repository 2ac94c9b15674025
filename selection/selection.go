// Package selection tracks which field is plotted on which axis.
package selection

import (
	"fmt"

	"github.com/angas/riskplot-go/types"
)

// InvalidFieldError is returned for a field that cannot be selected on an axis.
type InvalidFieldError struct {
	Axis  types.Axis
	Field types.Field
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %q cannot be selected on axis %q", e.Field, e.Axis)
}

// Change describes a single committed selection transition.
type Change struct {
	Axis     types.Axis  `json:"axis"`
	Previous types.Field `json:"previous"`
	Current  types.Field `json:"current"`
}

// State is the current axis selection. It is a value type: copying a State
// and selecting on the copy leaves the original untouched.
type State struct {
	x types.Field
	y types.Field
}

// Default returns the initial poverty/healthcare selection.
func Default() State {
	return State{x: types.FieldPoverty, y: types.FieldHealthcare}
}

// New returns a selection with the given fields, both must be valid for
// their axis.
func New(x, y types.Field) (State, error) {
	if !x.OnAxis(types.AxisX) {
		return State{}, &InvalidFieldError{Axis: types.AxisX, Field: x}
	}
	if !y.OnAxis(types.AxisY) {
		return State{}, &InvalidFieldError{Axis: types.AxisY, Field: y}
	}
	return State{x: x, y: y}, nil
}

func (s State) X() types.Field {
	return s.x
}

func (s State) Y() types.Field {
	return s.y
}

// Field returns the field currently bound to axis a.
func (s State) Field(a types.Axis) types.Field {
	if a == types.AxisY {
		return s.y
	}
	return s.x
}

// Active reports whether f is the selected field of its axis.
func (s State) Active(f types.Field) bool {
	return f == s.x || f == s.y
}

func (s *State) SelectX(f types.Field) (Change, bool, error) {
	return s.Select(types.AxisX, f)
}

func (s *State) SelectY(f types.Field) (Change, bool, error) {
	return s.Select(types.AxisY, f)
}

// Select binds f to axis a. Selecting the field that is already bound is a
// no-op and reports changed == false. An invalid field leaves s unchanged.
func (s *State) Select(a types.Axis, f types.Field) (ch Change, changed bool, err error) {
	if !f.OnAxis(a) {
		return Change{}, false, &InvalidFieldError{Axis: a, Field: f}
	}

	target := &s.x
	if a == types.AxisY {
		target = &s.y
	}
	if *target == f {
		return Change{}, false, nil
	}

	ch = Change{Axis: a, Previous: *target, Current: f}
	*target = f
	return ch, true, nil
}

func (s State) String() string {
	return fmt.Sprintf("x=%s y=%s", s.x, s.y)
}
