// Package render keeps scales, axes, points, labels and tooltips of the
// scatter plot consistent with the axis selection.
//
// A Coordinator is not safe for concurrent use: all calls must come from the
// single goroutine that owns it.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

// TransitionAbortedError is returned when a render pass could not be
// completed. The previous render state stays in place.
type TransitionAbortedError struct {
	Axis  types.Axis
	Field types.Field
	Cause error
}

func (e *TransitionAbortedError) Error() string {
	if e.Axis == "" {
		return fmt.Sprintf("render aborted: %v", e.Cause)
	}
	return fmt.Sprintf("transition of %s axis to %s aborted: %v", e.Axis, e.Field, e.Cause)
}

func (e *TransitionAbortedError) Unwrap() error {
	return e.Cause
}

type Phase int

const (
	Idle Phase = iota
	Transitioning
)

func (p Phase) String() string {
	if p == Transitioning {
		return "transitioning"
	}
	return "idle"
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Observer is notified about what the Coordinator did. Calls happen on the
// Coordinator's goroutine.
type Observer interface {
	Rendered(b Batch)
	Changed(ch selection.Change, retargeted bool)
	Aborted(err error)
}

type Options struct {
	X, Y          scale.Config
	XAxisPosition Point // Translation of the X axis inside the chart group
	YAxisPosition Point
	LabelOffset   Point // Offset of the state label from its point
	Duration      time.Duration
	TooltipTitle  TitleMode
	Initial       selection.State
}

type Coordinator struct {
	logger     *slog.Logger
	renderer   Renderer
	clock      Clock
	opts       Options
	observers  []Observer
	dataset    types.Dataset
	sel        selection.State
	xScale     scale.Linear
	yScale     scale.Linear
	phase      Phase
	deadline   time.Time
	transition uint64
}

func NewCoordinator(logger *slog.Logger, renderer Renderer, clock Clock, ds types.Dataset, opts Options) *Coordinator {
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.Initial == (selection.State{}) {
		opts.Initial = selection.Default()
	}
	if opts.TooltipTitle == "" {
		opts.TooltipTitle = TitleAbbr
	}
	return &Coordinator{
		logger:   logger,
		renderer: renderer,
		clock:    clock,
		opts:     opts,
		dataset:  ds,
		sel:      opts.Initial,
	}
}

func (c *Coordinator) Observe(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Coordinator) Selection() selection.State {
	return c.sel
}

func (c *Coordinator) Dataset() types.Dataset {
	return c.dataset
}

// Scale returns the scale currently held for axis a.
func (c *Coordinator) Scale(a types.Axis) scale.Linear {
	if a == types.AxisY {
		return c.yScale
	}
	return c.xScale
}

func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Deadline returns when the transition in flight completes.
func (c *Coordinator) Deadline() (time.Time, bool) {
	return c.deadline, c.phase == Transitioning
}

// Tick returns the Coordinator to Idle once the transition deadline has
// passed. It reports whether the phase changed.
func (c *Coordinator) Tick(now time.Time) bool {
	if c.phase != Transitioning || now.Before(c.deadline) {
		return false
	}
	c.phase = Idle
	c.logger.Debug("transition complete", slog.Uint64("transition", c.transition))
	return true
}

// Init renders the whole chart for the current selection.
func (c *Coordinator) Init(ctx context.Context) error {
	return c.renderAll(ctx, c.dataset)
}

// Reload swaps the dataset and re-renders the whole chart. On failure the
// previous dataset and render state are kept.
func (c *Coordinator) Reload(ctx context.Context, ds types.Dataset) error {
	return c.renderAll(ctx, ds)
}

func (c *Coordinator) SelectX(ctx context.Context, f types.Field) (bool, error) {
	return c.Click(ctx, types.AxisX, f)
}

func (c *Coordinator) SelectY(ctx context.Context, f types.Field) (bool, error) {
	return c.Click(ctx, types.AxisY, f)
}

// Click handles a click on the label of field f on axis a. Clicking the
// active label does nothing and reports false. Otherwise the scale of a is
// rebuilt, one batch is rendered and a transition starts. A click while a
// transition is in flight starts a new transition that retargets it.
func (c *Coordinator) Click(ctx context.Context, a types.Axis, f types.Field) (bool, error) {
	staged := c.sel
	ch, changed, err := staged.Select(a, f)
	if err != nil {
		return false, c.abort(&TransitionAbortedError{Axis: a, Field: f, Cause: err})
	}
	if !changed {
		return false, nil
	}

	s, err := scale.Build(c.dataset, f, c.scaleConfig(a))
	if err != nil {
		return false, c.abort(&TransitionAbortedError{Axis: a, Field: f, Cause: err})
	}

	batch := Batch{Transition: c.transition + 1}
	batch.Commands = append(c.axisCommands(c.dataset, a, s, c.opts.Duration),
		tooltips(c.dataset, staged, c.opts.TooltipTitle),
		LabelStyles(staged))

	if err := c.renderer.Render(ctx, batch); err != nil {
		return false, c.abort(&TransitionAbortedError{Axis: a, Field: f, Cause: err})
	}

	retargeted := c.phase == Transitioning
	c.sel = staged
	c.setScale(a, s)
	c.transition = batch.Transition
	c.startTransition()

	c.logger.Debug("axis selection changed",
		slog.String("axis", a.String()),
		slog.String("previous", ch.Previous.String()),
		slog.String("current", ch.Current.String()),
		slog.Bool("retargeted", retargeted))

	for _, o := range c.observers {
		o.Rendered(batch)
		o.Changed(ch, retargeted)
	}
	return true, nil
}

func (c *Coordinator) renderAll(ctx context.Context, ds types.Dataset) error {
	xs, err := scale.Build(ds, c.sel.X(), c.opts.X)
	if err != nil {
		return c.abort(&TransitionAbortedError{Cause: err})
	}
	ys, err := scale.Build(ds, c.sel.Y(), c.opts.Y)
	if err != nil {
		return c.abort(&TransitionAbortedError{Cause: err})
	}

	xCmds := c.axisCommands(ds, types.AxisX, xs, 0)
	yCmds := c.axisCommands(ds, types.AxisY, ys, 0)
	batch := Batch{
		Transition: c.transition + 1,
		Initial:    true,
		Commands: []Command{
			xCmds[0], yCmds[0],
			xCmds[1], yCmds[1],
			xCmds[2], yCmds[2],
			tooltips(ds, c.sel, c.opts.TooltipTitle),
			LabelStyles(c.sel),
		},
	}

	if err := c.renderer.Render(ctx, batch); err != nil {
		return c.abort(&TransitionAbortedError{Cause: err})
	}

	c.dataset = ds
	c.xScale, c.yScale = xs, ys
	c.transition = batch.Transition
	c.phase = Idle

	for _, o := range c.observers {
		o.Rendered(batch)
	}
	return nil
}

// axisCommands returns DrawAxis, MovePoints and MoveLabels for axis a.
func (c *Coordinator) axisCommands(ds types.Dataset, a types.Axis, s scale.Linear, d time.Duration) []Command {
	pos, offset := c.opts.XAxisPosition, c.opts.LabelOffset.X
	if a == types.AxisY {
		pos, offset = c.opts.YAxisPosition, c.opts.LabelOffset.Y
	}

	points := make([]float64, len(ds))
	labels := make([]float64, len(ds))
	for i, r := range ds {
		v, _ := r.Value(s.Field)
		points[i] = s.Map(v)
		labels[i] = points[i] + offset
	}

	return []Command{
		DrawAxis{Axis: a, Field: s.Field, Scale: s, Ticks: s.Ticks(), Position: pos, Duration: d},
		MovePoints{Axis: a, Positions: points, Duration: d},
		MoveLabels{Axis: a, Positions: labels, Duration: d},
	}
}

func (c *Coordinator) scaleConfig(a types.Axis) scale.Config {
	if a == types.AxisY {
		return c.opts.Y
	}
	return c.opts.X
}

func (c *Coordinator) setScale(a types.Axis, s scale.Linear) {
	if a == types.AxisY {
		c.yScale = s
	} else {
		c.xScale = s
	}
}

func (c *Coordinator) startTransition() {
	if c.opts.Duration <= 0 {
		c.phase = Idle
		return
	}
	c.phase = Transitioning
	c.deadline = c.clock.Now().Add(c.opts.Duration)
}

func (c *Coordinator) abort(err error) error {
	c.logger.Warn("render aborted", slog.Any("error", err))
	for _, o := range c.observers {
		o.Aborted(err)
	}
	return err
}
