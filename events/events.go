// Package events publishes axis selection changes and dataset reloads to an
// MQTT broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/render"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 64
)

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

type Options struct {
	Broker      string
	Port        int
	Username    string
	Password    string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// SelectionEvent is published on <prefix>/selection for every committed
// axis change.
type SelectionEvent struct {
	Client     string      `json:"client"`
	Axis       types.Axis  `json:"axis"`
	Previous   types.Field `json:"previous"`
	Current    types.Field `json:"current"`
	Retargeted bool        `json:"retargeted"`
	At         time.Time   `json:"at"`
}

// DatasetEvent is published on <prefix>/dataset after a dataset reload.
type DatasetEvent struct {
	Records int       `json:"records"`
	Skipped int       `json:"skipped"`
	At      time.Time `json:"at"`
}

type message struct {
	topic   string
	payload []byte
}

type Publisher struct {
	client client
	logger *slog.Logger
	prefix string
	qos    byte
	queue  chan message
	now    func() time.Time
}

func New(opts Options) *Publisher {
	logger := slog.Default().With("module", "events")
	o := mqtt.NewClientOptions()
	o.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	o.SetClientID(opts.ClientID)
	o.SetUsername(opts.Username)
	o.SetPassword(opts.Password)
	o.SetAutoReconnect(true)
	o.OnConnect = func(client mqtt.Client) {
		logger.Info("events MQTT connected", slog.String("broker", opts.Broker))
	}
	o.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("events MQTT connection lost", slog.Any("error", err))
	}

	mqttLog := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLog, slog.LevelWarn)

	return newPublisher(mqtt.NewClient(o), logger, opts)
}

func newPublisher(c client, logger *slog.Logger, opts Options) *Publisher {
	return &Publisher{
		client: c,
		logger: logger,
		prefix: opts.TopicPrefix,
		qos:    opts.QoS,
		queue:  make(chan message, queueSize),
		now:    time.Now,
	}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting events MQTT client")
	token := p.client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout when connecting to MQTT broker")
	}
	return token.Error()
}

// Run publishes queued messages until ctx is done, then disconnects.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case m := <-p.queue:
			if err := p.publish(m); err != nil {
				p.logger.Error("publishing event", slog.String("topic", m.topic), slog.Any("error", err))
			}
		case <-ctx.Done():
			p.logger.Info("disconnecting events MQTT client")
			p.client.Disconnect(250)
			return
		}
	}
}

func (p *Publisher) publish(m message) error {
	token := p.client.Publish(m.topic, p.qos, false, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout when publishing to %s", m.topic)
	}
	return token.Error()
}

func (p *Publisher) enqueue(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("encoding event", slog.Any("error", err))
		return
	}
	select {
	case p.queue <- message{topic: p.prefix + "/" + topic, payload: payload}:
	default:
		p.logger.Warn("event queue full, dropping event", slog.String("topic", topic))
	}
}

// DatasetReloaded queues a dataset event for r.
func (p *Publisher) DatasetReloaded(r dataset.Result) {
	p.enqueue("dataset", DatasetEvent{Records: r.Records.Len(), Skipped: len(r.Skipped), At: p.now()})
}

// Observer returns a render.Observer that queues the selection changes of
// the websocket client with the given id.
func (p *Publisher) Observer(clientID string) render.Observer {
	return &clientObserver{p: p, client: clientID}
}

type clientObserver struct {
	p      *Publisher
	client string
}

func (o *clientObserver) Rendered(render.Batch) {}

func (o *clientObserver) Aborted(error) {}

func (o *clientObserver) Changed(ch selection.Change, retargeted bool) {
	o.p.enqueue("selection", SelectionEvent{
		Client:     o.client,
		Axis:       ch.Axis,
		Previous:   ch.Previous,
		Current:    ch.Current,
		Retargeted: retargeted,
		At:         o.p.now(),
	})
}
