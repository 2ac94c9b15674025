// Package metrics provides Prometheus metrics of the chart sessions.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/render"
	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
)

const (
	namespace = "riskplot"
	subsystem = "chart"
)

// Metrics represents chart session metrics.
type Metrics struct {
	Clients   prometheus.Gauge
	Batches   *prometheus.CounterVec
	Commands  *prometheus.CounterVec
	Changes   *prometheus.CounterVec
	Retargets *prometheus.CounterVec
	Aborts    *prometheus.CounterVec
	Records   prometheus.Gauge
	Skipped   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "clients",
			Help:      "Number of connected chart clients.",
		}),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batches_total",
				Help:      "Total number of rendered command batches.",
			},
			[]string{"kind"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_total",
				Help:      "Total number of rendered commands.",
			},
			[]string{"op"},
		),
		Changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "selection_changes_total",
				Help:      "Total number of committed axis selection changes.",
			},
			[]string{"axis", "field"},
		),
		Retargets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "retargets_total",
				Help:      "Total number of changes that interrupted a transition in flight.",
			},
			[]string{"axis"},
		),
		Aborts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aborted_total",
				Help:      "Total number of aborted render passes.",
			},
			[]string{"reason"},
		),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Number of records in the loaded dataset.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "skipped_records_total",
			Help:      "Total number of malformed records skipped while loading.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.Clients.Describe(ch)
	m.Batches.Describe(ch)
	m.Commands.Describe(ch)
	m.Changes.Describe(ch)
	m.Retargets.Describe(ch)
	m.Aborts.Describe(ch)
	m.Records.Describe(ch)
	m.Skipped.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.Clients.Collect(ch)
	m.Batches.Collect(ch)
	m.Commands.Collect(ch)
	m.Changes.Collect(ch)
	m.Retargets.Collect(ch)
	m.Aborts.Collect(ch)
	m.Records.Collect(ch)
	m.Skipped.Collect(ch)
}

// DatasetLoaded records the outcome of a dataset load.
func (m *Metrics) DatasetLoaded(r dataset.Result) {
	m.Records.Set(float64(r.Records.Len()))
	m.Skipped.Add(float64(len(r.Skipped)))
}

// Rendered implements render.Observer.
func (m *Metrics) Rendered(b render.Batch) {
	kind := "transition"
	if b.Initial {
		kind = "initial"
	}
	m.Batches.WithLabelValues(kind).Inc()
	for _, op := range b.Ops() {
		m.Commands.WithLabelValues(string(op)).Inc()
	}
}

// Changed implements render.Observer.
func (m *Metrics) Changed(ch selection.Change, retargeted bool) {
	m.Changes.WithLabelValues(ch.Axis.String(), ch.Current.String()).Inc()
	if retargeted {
		m.Retargets.WithLabelValues(ch.Axis.String()).Inc()
	}
}

// Aborted implements render.Observer.
func (m *Metrics) Aborted(err error) {
	m.Aborts.WithLabelValues(reason(err)).Inc()
}

func reason(err error) string {
	var (
		empty   *scale.EmptyDatasetError
		missing *scale.MissingFieldError
		invalid *selection.InvalidFieldError
	)
	switch {
	case errors.As(err, &empty):
		return "empty_dataset"
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &invalid):
		return "invalid_field"
	}
	return "renderer"
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
	_ render.Observer      = (*Metrics)(nil)
)
