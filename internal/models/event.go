package models

import (
	"errors"
	"fmt"
)

// ErrInvalidEvent is returned when an event payload does not match the event schema
var ErrInvalidEvent = errors.New("invalid event")

// EventKind discriminates the three event variants
type EventKind string

const (
	EventKindAction EventKind = "action"
	EventKindInput  EventKind = "input"
	EventKindOutput EventKind = "output"
)

// ActionType is the agent phase an event belongs to
type ActionType string

const (
	ActionTypePlan    ActionType = "plan"
	ActionTypeSearch  ActionType = "search"
	ActionTypeAnalyze ActionType = "analyze"
	ActionTypeWrite   ActionType = "write"
	ActionTypeReview  ActionType = "review"
	ActionTypeDone    ActionType = "done"
)

// ActionTypes lists every phase in the order the agent normally runs them
func ActionTypes() []ActionType {
	return []ActionType{
		ActionTypePlan,
		ActionTypeSearch,
		ActionTypeAnalyze,
		ActionTypeWrite,
		ActionTypeReview,
		ActionTypeDone,
	}
}

// ParseActionType validates a wire action type
func ParseActionType(value string) (ActionType, error) {
	for _, t := range ActionTypes() {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown action type %q", ErrInvalidEvent, value)
}

// ParseEventKind validates a wire event type
func ParseEventKind(value string) (EventKind, error) {
	switch EventKind(value) {
	case EventKindAction, EventKindInput, EventKindOutput:
		return EventKind(value), nil
	default:
		return "", fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, value)
	}
}

// Event is a unit of agent progress. The set of implementations is closed:
// ActionEvent, InputEvent and OutputEvent. Use MatchEvent to branch on them.
type Event interface {
	EventID() string
	Kind() EventKind
	Action() ActionType
	Text() string
	isEvent()
}

// EventData holds the fields shared by every event variant
type EventData struct {
	ID         string
	ActionType ActionType
	Message    string
}

func (d EventData) EventID() string    { return d.ID }
func (d EventData) Action() ActionType { return d.ActionType }
func (d EventData) Text() string       { return d.Message }

// ActionEvent reports an action the agent started
type ActionEvent struct{ EventData }

// InputEvent reports input the agent received
type InputEvent struct{ EventData }

// OutputEvent reports output the agent produced
type OutputEvent struct{ EventData }

func (ActionEvent) Kind() EventKind { return EventKindAction }
func (InputEvent) Kind() EventKind  { return EventKindInput }
func (OutputEvent) Kind() EventKind { return EventKindOutput }

func (ActionEvent) isEvent() {}
func (InputEvent) isEvent()  {}
func (OutputEvent) isEvent() {}

// MatchEvent dispatches e to the handler for its variant. Every variant needs a
// handler, so adding a kind breaks every call site until it is handled.
func MatchEvent[T any](e Event, onAction func(ActionEvent) T, onInput func(InputEvent) T, onOutput func(OutputEvent) T) T {
	switch ev := e.(type) {
	case ActionEvent:
		return onAction(ev)
	case InputEvent:
		return onInput(ev)
	case OutputEvent:
		return onOutput(ev)
	}
	panic(fmt.Sprintf("models: unhandled event type %T", e))
}

// NewEvent builds the variant for kind
func NewEvent(kind EventKind, data EventData) (Event, error) {
	if data.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	if _, err := ParseActionType(string(data.ActionType)); err != nil {
		return nil, err
	}
	switch kind {
	case EventKindAction:
		return ActionEvent{data}, nil
	case EventKindInput:
		return InputEvent{data}, nil
	case EventKindOutput:
		return OutputEvent{data}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, kind)
	}
}

// EventPayload is the JSON shape of an event on the wire
type EventPayload struct {
	ID         string `json:"id" yaml:"id"`
	EventType  string `json:"eventType" yaml:"event_type"`
	ActionType string `json:"actionType" yaml:"action_type"`
	Message    string `json:"message" yaml:"message"`
}

// DecodeEvent validates a payload and converts it to its variant
func DecodeEvent(p EventPayload) (Event, error) {
	kind, err := ParseEventKind(p.EventType)
	if err != nil {
		return nil, err
	}
	action, err := ParseActionType(p.ActionType)
	if err != nil {
		return nil, err
	}
	return NewEvent(kind, EventData{ID: p.ID, ActionType: action, Message: p.Message})
}

// EncodeEvent converts an event back to its wire shape
func EncodeEvent(e Event) EventPayload {
	return EventPayload{
		ID:         e.EventID(),
		EventType:  string(e.Kind()),
		ActionType: string(e.Action()),
		Message:    e.Text(),
	}
}
