package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/types"
)

var testData = filepath.Join("..", "..", "dataset", "testdata", "data.csv")

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	err := run(slog.Default(), &buf, params{
		Data:   testData,
		X:      types.FieldIncome,
		Y:      types.FieldObesity,
		Format: "svg",
		Policy: dataset.PolicyAbort,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "AK")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		p    params
	}{
		{"wrong axis", params{Data: testData, X: types.FieldSmokes, Y: types.FieldObesity, Format: "svg"}},
		{"missing file", params{Data: "nope.csv", X: types.FieldAge, Y: types.FieldObesity, Format: "svg"}},
		{"format", params{Data: testData, X: types.FieldAge, Y: types.FieldObesity, Format: "gif"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.Policy = dataset.PolicyAbort
			var buf bytes.Buffer
			assert.Error(t, run(slog.Default(), &buf, tt.p))
		})
	}
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "pdf", formatOf("pdf", "chart.png"))
	assert.Equal(t, "png", formatOf("", "out/chart.PNG"))
	assert.Equal(t, "svg", formatOf("", "-"))
	assert.Equal(t, "svg", formatOf("", "chart"))
}
