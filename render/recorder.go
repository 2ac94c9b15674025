package render

import (
	"context"
	"sync"
	"time"

	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/types"
)

type animKey struct {
	axis  types.Axis
	index int
}

type animation struct {
	from, to float64
	start    time.Time
	duration time.Duration
}

func (a animation) at(t time.Time) float64 {
	if a.duration <= 0 {
		return a.to
	}
	return scale.Lerp(a.from, a.to, float64(t.Sub(a.start))/float64(a.duration))
}

// Recorder is an in-memory Renderer. It records every batch and tracks point
// positions the way the browser collaborator animates them: a move for an
// axis starts from the current visual position of that axis and retargets
// any animation in flight.
type Recorder struct {
	mu      sync.Mutex
	clock   Clock
	batches []Batch
	points  map[animKey]animation
	// Err, if set, is returned by Render and the batch is dropped.
	Err error
}

func NewRecorder(clock Clock) *Recorder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Recorder{clock: clock, points: make(map[animKey]animation)}
}

func (r *Recorder) Render(_ context.Context, b Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	now := r.clock.Now()
	for _, c := range b.Commands {
		mp, ok := c.(MovePoints)
		if !ok {
			continue
		}
		for i, target := range mp.Positions {
			key := animKey{mp.Axis, i}
			from := target
			if a, ok := r.points[key]; ok {
				from = a.at(now)
			}
			r.points[key] = animation{from: from, to: target, start: now, duration: mp.Duration}
		}
	}

	r.batches = append(r.batches, b)
	return nil
}

func (r *Recorder) Batches() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Batch(nil), r.batches...)
}

// Last returns the most recent batch.
func (r *Recorder) Last() (Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return Batch{}, false
	}
	return r.batches[len(r.batches)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}

// PointAt returns the visual position of point index on axis a at time t.
func (r *Recorder) PointAt(a types.Axis, index int, t time.Time) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	anim, ok := r.points[animKey{a, index}]
	if !ok {
		return 0, false
	}
	return anim.at(t), true
}
