package render

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/types"
)

type Op string

const (
	OpDrawAxis     Op = "drawAxis"
	OpMovePoints   Op = "movePoints"
	OpMoveLabels   Op = "moveLabels"
	OpBindTooltips Op = "bindTooltips"
	OpStyleLabels  Op = "styleLabels"
)

// Command is one discrete instruction for the rendering collaborator.
type Command interface {
	Op() Op
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawAxis draws the ticks of an axis placed at Position, animated over Duration.
type DrawAxis struct {
	Axis     types.Axis    `json:"axis"`
	Field    types.Field   `json:"field"`
	Scale    scale.Linear  `json:"scale"`
	Ticks    []scale.Tick  `json:"ticks"`
	Position Point         `json:"position"`
	Duration time.Duration `json:"duration"`
}

// MovePoints moves every point along Axis. Positions are in dataset order.
// A MovePoints for an axis retargets any animation of that axis still in
// flight; the other axis is not affected.
type MovePoints struct {
	Axis      types.Axis    `json:"axis"`
	Positions []float64     `json:"positions"`
	Duration  time.Duration `json:"duration"`
}

// MoveLabels is MovePoints for the text label of every point.
type MoveLabels struct {
	Axis      types.Axis    `json:"axis"`
	Positions []float64     `json:"positions"`
	Duration  time.Duration `json:"duration"`
}

type Tooltip struct {
	Index int      `json:"index"`
	Label string   `json:"label"` // Text drawn on the point
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// BindTooltips replaces the hover content of every point.
type BindTooltips struct {
	X        types.Field `json:"x"`
	Y        types.Field `json:"y"`
	Tooltips []Tooltip   `json:"tooltips"`
}

type LabelStyle struct {
	Axis   types.Axis  `json:"axis"`
	Field  types.Field `json:"field"`
	Title  string      `json:"title"`
	Active bool        `json:"active"`
}

// StyleLabels sets the style of all six axis labels at once.
type StyleLabels struct {
	Labels []LabelStyle `json:"labels"`
}

func (DrawAxis) Op() Op     { return OpDrawAxis }
func (MovePoints) Op() Op   { return OpMovePoints }
func (MoveLabels) Op() Op   { return OpMoveLabels }
func (BindTooltips) Op() Op { return OpBindTooltips }
func (StyleLabels) Op() Op  { return OpStyleLabels }

// Batch is the ordered command sequence of one render pass. A renderer must
// apply a batch completely or not at all.
type Batch struct {
	Transition uint64
	Initial    bool
	Commands   []Command
}

type envelope struct {
	Op   Op      `json:"op"`
	Args Command `json:"args"`
}

func (b Batch) MarshalJSON() ([]byte, error) {
	cmds := make([]envelope, len(b.Commands))
	for i, c := range b.Commands {
		cmds[i] = envelope{Op: c.Op(), Args: c}
	}
	return json.Marshal(struct {
		Type       string     `json:"type"`
		Transition uint64     `json:"transition"`
		Initial    bool       `json:"initial"`
		Commands   []envelope `json:"commands"`
	}{"render", b.Transition, b.Initial, cmds})
}

// Renderer is the rendering collaborator the Coordinator issues commands to.
type Renderer interface {
	Render(ctx context.Context, b Batch) error
}

// Ops lists the operations of b in order.
func (b Batch) Ops() []Op {
	ops := make([]Op, len(b.Commands))
	for i, c := range b.Commands {
		ops[i] = c.Op()
	}
	return ops
}
