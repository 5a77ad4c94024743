package horizonredux

import (
	"encoding/json"
	"fmt"

	"github.com/ahmedkamals/horizonredux/internal/errors"
	"github.com/google/uuid"
)

type (
	// UUID of an action or an action taker.
	UUID string

	// ActionType is the tag every action carries.
	ActionType string

	// Metadata about the action.
	Metadata map[string]interface{}

	// Action is an intent or event flowing through the store pipeline.
	// It is passed by value and should be treated as immutable.
	Action struct {
		ID      UUID        `json:"id,omitempty"`
		Type    ActionType  `json:"type"`
		Payload interface{} `json:"payload,omitempty"`
		Meta    Metadata    `json:"meta,omitempty"`
		// Error marks the payload as an error value.
		Error bool `json:"error,omitempty"`
	}

	// Dispatch injects an action into the store pipeline.
	Dispatch func(Action) interface{}

	// StoreAPI is the part of a store a middleware sees on attachment.
	StoreAPI interface {
		Dispatch(Action) interface{}
		GetState() interface{}
	}

	// Middleware is the curried store middleware shape.
	// Calling next forwards the action, not calling it halts propagation.
	Middleware func(StoreAPI) func(next Dispatch) Dispatch
)

const (
	// DisconnectedActionType is dispatched when the data source reports a disconnect.
	DisconnectedActionType ActionType = "@@horizonredux/DISCONNECTED"
)

// NewUUID creates new UUID.
func NewUUID() UUID {
	return UUID(uuid.New().String())
}

// NewAction returns an action of the given type carrying payload.
func NewAction(actionType ActionType, payload interface{}) Action {
	return Action{
		ID:      NewUUID(),
		Type:    actionType,
		Payload: payload,
	}
}

// NewErrorAction returns an action whose payload is an error.
func NewErrorAction(actionType ActionType, err error) Action {
	action := NewAction(actionType, err)
	action.Error = true

	return action
}

// WithMeta returns a copy of the action with the metadata key set.
func (a Action) WithMeta(key string, value interface{}) Action {
	meta := make(Metadata, len(a.Meta)+1)
	for k, v := range a.Meta {
		meta[k] = v
	}
	meta[key] = value
	a.Meta = meta

	return a
}

func (a Action) String() string {
	return string(a.Type)
}

func (a Action) GoString() string {
	return fmt.Sprintf("%s[%s]", a.Type, a.ID)
}

// Marshal returns the JSON encoding of the action.
func (a Action) Marshal() ([]byte, error) {
	const op errors.Operation = "Action.Marshal"

	if a.Error {
		if err, ok := a.Payload.(error); ok {
			a.Payload = err.Error()
		}
	}

	encodedData, err := json.Marshal(a)
	if err != nil {
		return nil, errors.E(op, errors.Failure, err)
	}

	return encodedData, nil
}

// UnmarshalAction parses a JSON-encoded action.
func UnmarshalAction(data []byte) (Action, error) {
	const op errors.Operation = "UnmarshalAction"

	var action Action
	if err := json.Unmarshal(data, &action); err != nil {
		return Action{}, errors.E(op, errors.Failure, err)
	}

	if action.Type == "" {
		return Action{}, errors.E(op, errors.Invalid, "missing action type")
	}

	return action, nil
}
