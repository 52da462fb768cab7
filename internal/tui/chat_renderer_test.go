package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/gabe/consultant/internal/chat"
	"github.com/gabe/consultant/internal/models"
	"github.com/muesli/termenv"
)

func TestTextareaHeightClamp(t *testing.T) {
	got := clampHeight(1)
	if got != 3 {
		t.Fatalf("expected min 3")
	}
	got = clampHeight(30)
	if got != 24 {
		t.Fatalf("expected max 24")
	}
	got = clampHeight(10)
	if got != 10 {
		t.Fatalf("expected in-range 10")
	}
}

func TestRenderTranscriptMarksFailedMessage(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	v := chat.View{
		Messages: []models.Message{
			{Role: models.RoleAssistant, Message: "What happened?"},
			{Role: models.RoleUser, Message: "Sales fell"},
		},
		CanRetry: true,
	}
	out := renderTranscript(v, 60)
	if !strings.Contains(out, "Consultant") || !strings.Contains(out, "Sales fell") {
		t.Fatalf("missing transcript content: %s", out)
	}
	if !strings.Contains(out, "Not delivered") {
		t.Fatalf("expected retry hint: %s", out)
	}
}

func TestRenderMonitorShowsCurrentAndTail(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	var events []models.Event
	for i := 0; i < 10; i++ {
		events = append(events, models.OutputEvent{EventData: models.EventData{
			ID: string(rune('a' + i)), ActionType: models.ActionTypeSearch, Message: "result " + string(rune('a'+i)),
		}})
	}
	events = append(events, models.ActionEvent{EventData: models.EventData{ID: "z", ActionType: models.ActionTypeWrite, Message: "Writing"}})
	mon := chat.NewMonitor(events)

	out := renderMonitor(&mon, "*", 80)
	if !strings.Contains(out, "Writing") {
		t.Fatalf("expected current action: %s", out)
	}
	if strings.Contains(out, "result a") {
		t.Fatalf("expected old events trimmed: %s", out)
	}
	if !strings.Contains(out, "3 earlier events") {
		t.Fatalf("expected hidden count: %s", out)
	}
}
