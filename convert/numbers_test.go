package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundFloat64(t *testing.T) {
	assert.Equal(t, 18.46, RoundFloat64(18.456, 2))
	assert.Equal(t, 40000.0, RoundFloat64(39999.7, 0))
	assert.Equal(t, 12.1, RoundFloat64(12.1, 1))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "38", want: 38},
		{name: "decimal", input: "18.5", want: 18.5},
		{name: "padded", input: " 12.1 ", want: 12.1},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "text", input: "n/a", wantErr: true},
		{name: "nan", input: "NaN", wantErr: true},
		{name: "inf", input: "+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumber(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
