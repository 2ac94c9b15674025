package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angas/riskplot-go/types"
)

func activeCount(s State, a types.Axis) int {
	n := 0
	for _, f := range types.FieldsFor(a) {
		if s.Active(f) {
			n++
		}
	}
	return n
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, types.FieldPoverty, s.X())
	assert.Equal(t, types.FieldHealthcare, s.Y())
	assert.Equal(t, 1, activeCount(s, types.AxisX))
	assert.Equal(t, 1, activeCount(s, types.AxisY))
}

func TestNew(t *testing.T) {
	s, err := New(types.FieldIncome, types.FieldObesity)
	require.NoError(t, err)
	assert.Equal(t, types.FieldIncome, s.Field(types.AxisX))
	assert.Equal(t, types.FieldObesity, s.Field(types.AxisY))

	var invalid *InvalidFieldError
	_, err = New(types.FieldSmokes, types.FieldObesity)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.AxisX, invalid.Axis)

	_, err = New(types.FieldAge, types.FieldAge)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.AxisY, invalid.Axis)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		axis    types.Axis
		field   types.Field
		changed bool
		wantErr bool
		want    Change
	}{
		{name: "x to age", axis: types.AxisX, field: types.FieldAge, changed: true,
			want: Change{Axis: types.AxisX, Previous: types.FieldPoverty, Current: types.FieldAge}},
		{name: "y to smokes", axis: types.AxisY, field: types.FieldSmokes, changed: true,
			want: Change{Axis: types.AxisY, Previous: types.FieldHealthcare, Current: types.FieldSmokes}},
		{name: "x already active", axis: types.AxisX, field: types.FieldPoverty},
		{name: "y already active", axis: types.AxisY, field: types.FieldHealthcare},
		{name: "y field on x", axis: types.AxisX, field: types.FieldObesity, wantErr: true},
		{name: "x field on y", axis: types.AxisY, field: types.FieldIncome, wantErr: true},
		{name: "unknown field", axis: types.AxisX, field: "latitude", wantErr: true},
		{name: "unknown axis", axis: "z", field: types.FieldAge, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			before := s

			ch, changed, err := s.Select(tt.axis, tt.field)
			if tt.wantErr {
				var invalid *InvalidFieldError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, before, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, ch)
			if !changed {
				assert.Equal(t, before, s)
			}
			assert.Equal(t, 1, activeCount(s, types.AxisX))
			assert.Equal(t, 1, activeCount(s, types.AxisY))
		})
	}
}

func TestSelectOnCopy(t *testing.T) {
	s := Default()
	staged := s
	_, changed, err := staged.SelectX(types.FieldIncome)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, types.FieldPoverty, s.X())
	assert.Equal(t, types.FieldIncome, staged.X())
}

func TestSelectSequenceKeepsOneActivePerAxis(t *testing.T) {
	s := Default()
	clicks := []types.Field{
		types.FieldAge, types.FieldSmokes, types.FieldAge, types.FieldIncome,
		types.FieldObesity, types.FieldPoverty, types.FieldHealthcare, types.FieldObesity,
	}
	for _, f := range clicks {
		_, _, err := s.Select(f.Info().Axis, f)
		require.NoError(t, err)
		assert.Equal(t, 1, activeCount(s, types.AxisX))
		assert.Equal(t, 1, activeCount(s, types.AxisY))
	}
	assert.Equal(t, types.FieldPoverty, s.X())
	assert.Equal(t, types.FieldObesity, s.Y())
}
