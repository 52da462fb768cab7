package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gabe/consultant/internal/chat"
	"github.com/gabe/consultant/internal/display"
	"github.com/gabe/consultant/internal/models"
)

// monitorLogLines is how many recent events the monitor panel shows
const monitorLogLines = 8

func clampHeight(height int) int {
	if height < 3 {
		return 3
	}
	if height > 24 {
		return 24
	}
	return height
}

func wrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

func renderMessage(msg models.Message, width int) string {
	label := assistantLabelStyle.Render("Consultant")
	if msg.Role == models.RoleUser {
		label = userLabelStyle.Render("You")
	}
	return label + "\n" + wrap(msg.Message, width)
}

func renderTranscript(v chat.View, width int) string {
	if len(v.Messages) == 0 {
		return mutedStyle.Render("Waiting for the consultant's first question...")
	}

	parts := make([]string, 0, len(v.Messages)+1)
	for i, msg := range v.Messages {
		out := renderMessage(msg, width)
		if v.CanRetry && i == len(v.Messages)-1 && msg.Role == models.RoleUser {
			out += "\n" + errorStyle.Render("Not delivered. Press ctrl+r or type /retry to resend.")
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n\n")
}

func renderMonitor(mon *chat.Monitor, spinner string, width int) string {
	var sb strings.Builder
	sb.WriteString(labelStyle.Render("Working"))
	sb.WriteString(" ")
	sb.WriteString(spinner)
	sb.WriteString(" ")
	if mon != nil && mon.HasCurrent {
		sb.WriteString(mon.Current)
	} else {
		sb.WriteString(mutedStyle.Render("Waiting for the agent to start..."))
	}

	if mon != nil && len(mon.Log) > 0 {
		log := mon.Log
		if len(log) > monitorLogLines {
			log = log[len(log)-monitorLogLines:]
		}
		sb.WriteString("\n")
		for _, ev := range log {
			sb.WriteString("\n")
			sb.WriteString(display.StyledEvent(ev))
		}
		if hidden := len(mon.Log) - len(log); hidden > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpStyle.Render(fmt.Sprintf("%d earlier events, /events shows all", hidden)))
		}
	}

	return monitorStyle.Width(width).Render(sb.String())
}

func renderEventLog(events []models.Event, width int) string {
	header := titleStyle.Render("Event log") + "  " + helpStyle.Render("/events to close")
	if len(events) == 0 {
		return header + "\n\n" + mutedStyle.Render("No events yet.")
	}
	return header + "\n\n" + wrap(display.FormatEventsAsText(events), width)
}

func renderSidebar(v chat.View, eventCount int, width, height int) string {
	var sb strings.Builder
	sb.WriteString(sidebarHeaderStyle.Render("Problem"))
	sb.WriteString("\n")
	if p := v.Problem; p != nil {
		sb.WriteString(wrap(p.Title, width-2))
		sb.WriteString("\n\n")
		sb.WriteString(kv("Status", string(p.Status)))
		sb.WriteString(kv("ID", p.ID))
		if !p.CreatedAt.IsZero() {
			sb.WriteString(kv("Created", p.CreatedAt.Local().Format("Jan 2 15:04")))
		}
	}
	if cfg := v.JobConfig; cfg != nil {
		search := "off"
		if cfg.EnableInternalSearch {
			search = "on"
		}
		sb.WriteString(kv("Internal search", search))
	}
	sb.WriteString(kv("Messages", fmt.Sprint(len(v.Messages))))
	sb.WriteString(kv("Events", fmt.Sprint(eventCount)))

	return sidebarStyle.Width(width).Height(height).Render(sb.String())
}

func kv(key, value string) string {
	return labelStyle.Render(key+": ") + valueStyle.Render(value) + "\n"
}

func renderHelp() string {
	var parts []string
	for _, cmd := range DefaultSlashCommands() {
		parts = append(parts, "/"+cmd.Name)
	}
	return "Commands: " + strings.Join(parts, " ")
}
