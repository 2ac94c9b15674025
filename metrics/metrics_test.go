package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/render"
	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

func TestRendered(t *testing.T) {
	m := New()
	m.Rendered(render.Batch{Initial: true, Commands: []render.Command{render.DrawAxis{}, render.DrawAxis{}, render.StyleLabels{}}})
	m.Rendered(render.Batch{Commands: []render.Command{render.MovePoints{}}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Batches.WithLabelValues("initial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Batches.WithLabelValues("transition")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("drawAxis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("movePoints")))
}

func TestChanged(t *testing.T) {
	m := New()
	ch := selection.Change{Axis: types.AxisX, Previous: types.FieldPoverty, Current: types.FieldAge}
	m.Changed(ch, false)
	m.Changed(ch, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Changes.WithLabelValues("x", "age")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retargets.WithLabelValues("x")))
}

func TestAborted(t *testing.T) {
	m := New()
	tests := []struct {
		err    error
		reason string
	}{
		{&render.TransitionAbortedError{Cause: &scale.EmptyDatasetError{}}, "empty_dataset"},
		{&render.TransitionAbortedError{Cause: &scale.MissingFieldError{}}, "missing_field"},
		{&render.TransitionAbortedError{Cause: &selection.InvalidFieldError{}}, "invalid_field"},
		{&render.TransitionAbortedError{Cause: errors.New("closed")}, "renderer"},
	}

	for _, tt := range tests {
		m.Aborted(tt.err)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Aborts.WithLabelValues(tt.reason)), tt.reason)
	}
}

func TestDatasetLoaded(t *testing.T) {
	m := New()
	m.DatasetLoaded(dataset.Result{
		Records: make(types.Dataset, 3),
		Skipped: []*dataset.MalformedRecordError{{Line: 2}},
	})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Records))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Skipped))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, reg.Register(m))
	m.Clients.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "riskplot_chart_clients")
	assert.Contains(t, names, "riskplot_dataset_records")
}
