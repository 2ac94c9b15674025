package www

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angas/riskplot-go/render"
	"github.com/angas/riskplot-go/types"
)

const msgTypeSelect = "select"

// ClientMessage is a message from the browser, e.g. a click on an axis label:
// {"type":"select","axis":"x","field":"age"}
type ClientMessage struct {
	Type  string      `json:"type"`
	Axis  types.Axis  `json:"axis"`
	Field types.Field `json:"field"`
}

func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decoding client message: %w", err)
	}
	if msg.Type != msgTypeSelect {
		return ClientMessage{}, fmt.Errorf("unknown client message type %q", msg.Type)
	}
	axis, err := types.ParseAxis(string(msg.Axis))
	if err != nil {
		return ClientMessage{}, err
	}
	msg.Axis = axis
	return msg, nil
}

type errorMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Axis    types.Axis  `json:"axis,omitempty"`
	Field   types.Field `json:"field,omitempty"`
}

// EncodeError encodes err for the browser. An aborted transition carries the
// axis and field of the rejected click.
func EncodeError(err error) ([]byte, error) {
	msg := errorMessage{Type: "error", Message: err.Error()}
	var aborted *render.TransitionAbortedError
	if errors.As(err, &aborted) {
		msg.Axis = aborted.Axis
		msg.Field = aborted.Field
	}
	return json.Marshal(msg)
}
