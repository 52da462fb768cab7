package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gabe/consultant/internal/models"
	"github.com/muesli/termenv"
)

func event(t *testing.T, id, kind, action, msg string) models.Event {
	t.Helper()
	ev, err := models.DecodeEvent(models.EventPayload{ID: id, EventType: kind, ActionType: action, Message: msg})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func TestFormatEventsAsText(t *testing.T) {
	events := []models.Event{
		event(t, "1", "action", "plan", "Drafting a plan"),
		event(t, "2", "input", "search", "pricing 2024"),
		event(t, "3", "output", "search", "Found 4 sources"),
	}

	got := FormatEventsAsText(events)
	want := "1. [Action (plan)] Drafting a plan\n\n" +
		"2. [Input (search)] pricing 2024\n\n" +
		"3. [Output (search)] Found 4 sources"
	if got != want {
		t.Fatalf("unexpected text:\n%s\nwant:\n%s", got, want)
	}

	if FormatEventsAsText(nil) != "" {
		t.Error("expected empty string for no events")
	}
}

func TestStyledEventPlain(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	out := StyledEvent(event(t, "1", "output", "write", "Draft ready"))
	if out != "→ write Draft ready" {
		t.Fatalf("unexpected styled event: %q", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Findings\n\nCosts **doubled** in Q3.", 60)
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	if !strings.Contains(out, "Findings") || !strings.Contains(out, "doubled") {
		t.Errorf("rendered output missing content: %q", out)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestWriteFormats(t *testing.T) {
	docs := []models.Document{{
		ID:             "d1",
		Title:          "pricing",
		DocumentType:   models.DocumentTypeCSV,
		DocumentStatus: models.DocumentStatusDone,
		UpdatedAt:      time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, docs, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"documentType": "csv"`) {
		t.Errorf("unexpected json: %s", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, FormatYAML, docs, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "document_type: csv") {
		t.Errorf("unexpected yaml: %s", buf.String())
	}

	buf.Reset()
	lipgloss.SetColorProfile(termenv.Ascii)
	if err := DocumentTable(&buf, docs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "pricing") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestProblemTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ProblemTable(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No problems yet") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestProblemDetail(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	var buf bytes.Buffer
	p := &models.Problem{ID: "p1", Title: "Churn", Description: "Users leave", Status: models.ProblemStatusHearing}
	msgs := []models.Message{
		{Role: models.RoleAssistant, Message: "Since when?"},
		{Role: models.RoleUser, Message: "March"},
	}
	if err := ProblemDetail(&buf, p, msgs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Churn p1", "Status:  hearing", "Consultant: Since when?", "You: March"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDocumentOptions(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	var buf bytes.Buffer
	err := DocumentOptions(&buf,
		[]models.DocumentType{models.DocumentTypeCSV, models.DocumentTypePDF},
		[]models.DocumentStatus{models.DocumentStatusDone})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "types: csv, pdf  statuses: done" {
		t.Errorf("unexpected footer: %q", got)
	}

	buf.Reset()
	if err := DocumentOptions(&buf, nil, nil); err != nil || buf.Len() != 0 {
		t.Errorf("expected no footer for an empty list, got %q %v", buf.String(), err)
	}
}
