package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

type token struct {
	err error
}

func (t *token) Wait() bool                     { return true }
func (t *token) WaitTimeout(time.Duration) bool { return true }
func (t *token) Error() error                   { return t.err }

func (t *token) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	messages     []published
	err          error
	disconnected chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{disconnected: make(chan struct{})}
}

func (c *fakeClient) Connect() mqtt.Token { return &token{} }

func (c *fakeClient) Disconnect(uint) { close(c.disconnected) }

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic, payload.([]byte)})
	return &token{err: c.err}
}

func (c *fakeClient) published() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.messages...)
}

var at = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestPublisher(c client) *Publisher {
	p := newPublisher(c, slog.Default(), Options{TopicPrefix: "riskplot"})
	p.now = func() time.Time { return at }
	return p
}

func TestSelectionChange(t *testing.T) {
	c := newFakeClient()
	p := newTestPublisher(c)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	obs := p.Observer("client-1")
	obs.Changed(selection.Change{Axis: types.AxisX, Previous: types.FieldPoverty, Current: types.FieldAge}, true)

	require.Eventually(t, func() bool { return len(c.published()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	<-c.disconnected

	msg := c.published()[0]
	assert.Equal(t, "riskplot/selection", msg.topic)

	var ev SelectionEvent
	require.NoError(t, json.Unmarshal(msg.payload, &ev))
	assert.Equal(t, SelectionEvent{
		Client:     "client-1",
		Axis:       types.AxisX,
		Previous:   types.FieldPoverty,
		Current:    types.FieldAge,
		Retargeted: true,
		At:         at,
	}, ev)
}

func TestDatasetReloaded(t *testing.T) {
	c := newFakeClient()
	p := newTestPublisher(c)

	p.DatasetReloaded(dataset.Result{
		Records: types.Dataset{{State: "Alabama"}, {State: "Alaska"}},
		Skipped: []*dataset.MalformedRecordError{{Line: 4}},
	})
	m := <-p.queue
	require.NoError(t, p.publish(m))

	msg := c.published()[0]
	assert.Equal(t, "riskplot/dataset", msg.topic)
	assert.JSONEq(t, `{"records":2,"skipped":1,"at":"2025-03-01T10:00:00Z"}`, string(msg.payload))
}

func TestPublishError(t *testing.T) {
	c := newFakeClient()
	c.err = errors.New("not connected")
	p := newTestPublisher(c)

	err := p.publish(message{topic: "riskplot/selection", payload: []byte("{}")})
	assert.ErrorContains(t, err, "not connected")
}

func TestQueueFullDropsEvents(t *testing.T) {
	p := newTestPublisher(newFakeClient())
	obs := p.Observer("client-1")
	for i := 0; i < queueSize+10; i++ {
		obs.Changed(selection.Change{Axis: types.AxisY, Previous: types.FieldHealthcare, Current: types.FieldSmokes}, false)
	}
	assert.Len(t, p.queue, queueSize)
}
