package tui

import "strings"

type SlashCommand struct {
	Name        string
	Description string
	Shortcut    string
}

// DefaultSlashCommands lists the commands the chat view understands
func DefaultSlashCommands() []SlashCommand {
	return []SlashCommand{
		{Name: "retry", Description: "Resend the message that failed", Shortcut: "ctrl+r"},
		{Name: "events", Description: "Toggle the full event log"},
		{Name: "report", Description: "Show the report"},
		{Name: "sidebar", Description: "Toggle the sidebar", Shortcut: "ctrl+b"},
		{Name: "help", Description: "List commands"},
		{Name: "quit", Description: "Leave the chat", Shortcut: "ctrl+c"},
	}
}

func FilterSlashCommands(commands []SlashCommand, input string) []SlashCommand {
	query := strings.TrimPrefix(strings.TrimSpace(input), "/")
	if query == "" {
		return commands
	}
	var out []SlashCommand
	for _, cmd := range commands {
		if strings.HasPrefix(cmd.Name, query) {
			out = append(out, cmd)
		}
	}
	return out
}

func NextSlashIndex(current int, total int, delta int) int {
	if total <= 0 {
		return 0
	}
	updated := current + delta
	if updated < 0 {
		return total - 1
	}
	if updated >= total {
		return 0
	}
	return updated
}

// ParseSlash splits "/name args" into its parts. ok is false for plain text.
func ParseSlash(input string) (name, args string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	name, args, _ = strings.Cut(strings.TrimPrefix(input, "/"), " ")
	return strings.ToLower(name), strings.TrimSpace(args), true
}
