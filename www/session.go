package www

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/angas/riskplot-go/render"
)

// socketRenderer sends every batch as a single websocket message.
type socketRenderer struct {
	client *Client
}

func (r socketRenderer) Render(_ context.Context, b render.Batch) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}
	return r.client.Enqueue(data)
}

// runSession is the event loop of one client. Clicks, dataset reloads and
// transition deadlines are handled one at a time, so the coordinator is
// only ever used from this goroutine.
func runSession(ctx context.Context, c *Client, coord *render.Coordinator) {
	logger := c.logger.With(slog.String("session", "chart"))
	if err := coord.Init(ctx); err != nil {
		c.sendError(err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	arm := func() {
		if deadline, ok := coord.Deadline(); ok {
			timer.Reset(time.Until(deadline))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-c.done:
			logger.Debug("session closed")
			return

		case msg := <-c.inbound:
			changed, err := coord.Click(ctx, msg.Axis, msg.Field)
			if err != nil {
				c.sendError(err)
				continue
			}
			if changed {
				arm()
			}

		case ds := <-c.reload:
			if err := coord.Reload(ctx, ds); err != nil {
				c.sendError(err)
			}

		case now := <-timer.C:
			if !coord.Tick(now) {
				arm()
			}
		}
	}
}
