package models

import (
	"errors"
	"testing"
)

func TestDecodeEventVariants(t *testing.T) {
	cases := []struct {
		eventType string
		want      EventKind
	}{
		{"action", EventKindAction},
		{"input", EventKindInput},
		{"output", EventKindOutput},
	}

	for _, tc := range cases {
		ev, err := DecodeEvent(EventPayload{ID: "ev-1", EventType: tc.eventType, ActionType: "search", Message: "looking"})
		if err != nil {
			t.Fatalf("decode %s: %v", tc.eventType, err)
		}
		if ev.Kind() != tc.want {
			t.Errorf("expected kind %s, got %s", tc.want, ev.Kind())
		}
		if ev.Action() != ActionTypeSearch || ev.Text() != "looking" || ev.EventID() != "ev-1" {
			t.Errorf("unexpected event fields: %+v", ev)
		}
	}
}

func TestDecodeEventRejectsUnknownValues(t *testing.T) {
	payloads := []EventPayload{
		{ID: "1", EventType: "thought", ActionType: "plan"},
		{ID: "1", EventType: "action", ActionType: "reflection"},
		{ID: "", EventType: "action", ActionType: "plan"},
	}
	for _, p := range payloads {
		if _, err := DecodeEvent(p); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("expected ErrInvalidEvent for %+v, got %v", p, err)
		}
	}
}

func TestMatchEventDispatchesByVariant(t *testing.T) {
	label := func(e Event) string {
		return MatchEvent(e,
			func(ActionEvent) string { return "action" },
			func(InputEvent) string { return "input" },
			func(OutputEvent) string { return "output" },
		)
	}

	data := EventData{ID: "x", ActionType: ActionTypePlan}
	if got := label(ActionEvent{data}); got != "action" {
		t.Errorf("expected action, got %s", got)
	}
	if got := label(InputEvent{data}); got != "input" {
		t.Errorf("expected input, got %s", got)
	}
	if got := label(OutputEvent{data}); got != "output" {
		t.Errorf("expected output, got %s", got)
	}
}

func TestEncodeEventRoundTripsKind(t *testing.T) {
	ev, err := NewEvent(EventKindOutput, EventData{ID: "o-1", ActionType: ActionTypeWrite, Message: "draft"})
	if err != nil {
		t.Fatal(err)
	}
	p := EncodeEvent(ev)
	if p.EventType != "output" || p.ActionType != "write" || p.ID != "o-1" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestStatusTerminal(t *testing.T) {
	if ProblemStatusProcessing.IsTerminal() || !ProblemStatusDone.IsTerminal() || !ProblemStatusFailed.IsTerminal() {
		t.Fatal("unexpected problem terminal states")
	}
	if DocumentStatusPending.IsTerminal() || !DocumentStatusFailed.IsTerminal() {
		t.Fatal("unexpected document terminal states")
	}
}
