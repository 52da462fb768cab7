package display

import (
	"fmt"
	"strings"

	"github.com/gabe/consultant/internal/models"
)

// EventLabel names an event's kind for people
func EventLabel(e models.Event) string {
	return models.MatchEvent(e,
		func(models.ActionEvent) string { return "Action" },
		func(models.InputEvent) string { return "Input" },
		func(models.OutputEvent) string { return "Output" },
	)
}

// FormatEvent renders one event as "N. [Label (actionType)] message".
// n is 1-based.
func FormatEvent(n int, e models.Event) string {
	label := EventLabel(e)
	if a := e.Action(); a != "" {
		label += fmt.Sprintf(" (%s)", a)
	}
	return fmt.Sprintf("%d. [%s] %s", n, label, e.Text())
}

// FormatEventsAsText renders an event log as plain text, one numbered entry
// per event separated by a blank line. Used for copying the log.
func FormatEventsAsText(events []models.Event) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = FormatEvent(i+1, e)
	}
	return strings.Join(lines, "\n\n")
}

// StyledEvent renders an event for the terminal, colored by kind
func StyledEvent(e models.Event) string {
	tag := models.MatchEvent(e,
		func(models.ActionEvent) string { return activeStyle.Render("▶ " + string(e.Action())) },
		func(models.InputEvent) string { return warnStyle.Render("← " + string(e.Action())) },
		func(models.OutputEvent) string { return successStyle.Render("→ " + string(e.Action())) },
	)
	return tag + " " + e.Text()
}
